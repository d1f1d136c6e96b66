package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/the-dev-tools/kanban/internal/api"

	"github.com/stretchr/testify/require"
)

func TestListenServicesStopsOnContextCancel(t *testing.T) {
	t.Setenv("SERVER_MODE", "tcp")
	t.Setenv("PORT", "0")

	ctx, cancel := context.WithCancel(context.Background())
	services := []api.Service{
		{
			Pattern: "GET /healthz",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- api.ListenServices(ctx, services)
	}()

	// let the listener come up before asking it to drain
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenServices did not return after context cancellation")
	}
}
