//go:build windows

package api

import (
	"context"
	"errors"
	"net/http"
)

func listenIPC(ctx context.Context, mux *http.ServeMux) error {
	return errors.New("uds server mode is not supported on windows")
}
