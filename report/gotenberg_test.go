package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.URL.Path != "/forms/chromium/convert/html" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("files")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		html, _ := io.ReadAll(f)
		if r.FormValue("waitDelay") != "500ms" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write(append([]byte("PDF:"), html...))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", WithWaitDelay(500*time.Millisecond))
	require.NoError(t, client.Ping(context.Background()))

	out, err := client.RenderHTML(context.Background(), "<p>hi</p>")
	require.NoError(t, err)
	require.Equal(t, "PDF:<p>hi</p>", string(out))
}

func TestRenderHTMLReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("chromium busy"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	_, err := client.RenderHTML(context.Background(), "<p/>")
	require.ErrorContains(t, err, "chromium busy")
	require.Error(t, client.Ping(context.Background()))
}
