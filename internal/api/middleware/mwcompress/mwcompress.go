//nolint:revive // exported
package mwcompress

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/the-dev-tools/kanban/pkg/compress"
)

// minSize below which compressing a response is not worth the header bytes.
const minSize = 256

// New negotiates a Content-Encoding from the request's Accept-Encoding and
// compresses the buffered response with it. Preference order: zstd, br, gzip.
func New(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoding := negotiate(r.Header.Get("Accept-Encoding"))
		if encoding == compress.CompressTypeNone {
			next.ServeHTTP(w, r)
			return
		}

		rec := &recorder{header: w.Header(), status: http.StatusOK}
		next.ServeHTTP(rec, r)

		body := rec.buf.Bytes()
		if len(body) >= minSize {
			if compressed, err := compress.Compress(body, encoding); err == nil && len(compressed) < len(body) {
				w.Header().Set("Content-Encoding", compress.EncodingName(encoding))
				body = compressed
			}
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(rec.status)
		_, _ = w.Write(body)
	})
}

func negotiate(acceptEncoding string) compress.CompressType {
	accepted := map[string]bool{}
	for _, part := range strings.Split(acceptEncoding, ",") {
		token := strings.TrimSpace(part)
		if i := strings.IndexByte(token, ';'); i >= 0 {
			token = token[:i]
		}
		accepted[strings.ToLower(token)] = true
	}
	for _, name := range []string{"zstd", "br", "gzip"} {
		if accepted[name] {
			return compress.CompressLookupMap[name]
		}
	}
	return compress.CompressTypeNone
}

// recorder buffers the response so the body can be compressed as one unit.
type recorder struct {
	header http.Header
	buf    bytes.Buffer
	status int
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(p []byte) (int, error) { return r.buf.Write(p) }

func (r *recorder) WriteHeader(status int) { r.status = status }
