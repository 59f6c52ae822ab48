package source

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// serve starts a test server that answers every request with body.
func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testHTTP() HTTPOptions {
	return HTTPOptions{Timeout: 2 * time.Second, UserAgent: "hotdigest-test"}
}
