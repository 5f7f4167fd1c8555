package browser

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"regexp"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/KonishchevDmitry/headlined/pkg/test/testutil"
)

func requireBrowser(t *testing.T) {
	for _, name := range []string{
		"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("Chrome is not installed.")
}

func TestGet(t *testing.T) {
	t.Parallel()
	requireBrowser(t)

	const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"

	ctx, stop, err := Configure(testutil.Context(t))
	require.NoError(t, err)
	defer stop()

	for _, testCase := range []struct {
		name        string
		status      int
		contentType string
		body        string
		result      string
	}{{
		name:        "xml",
		status:      http.StatusOK,
		contentType: "application/rss+xml",
		body: heredoc.Doc(`
			<?xml version="1.0" encoding="UTF-8"?>
			<rss version="2.0"><channel><item><title>First</title></item></channel></rss>
		`),
		// Chrome cuts the XML declaration
		result: `<rss version="2.0"><channel><item><title>First</title></item></channel></rss>`,
	}, {
		name:        "html",
		status:      http.StatusOK,
		contentType: "text/html",
		body:        `<html><head><link rel="alternate" type="application/rss+xml" href="/rss"></head></html>`,
		result:      `<html><head><link rel="alternate" type="application/rss+xml" href="/rss"></head><body></body></html>`,
	}, {
		name:        "error",
		status:      http.StatusForbidden,
		contentType: "text/plain",
		body:        "Please enable JS and disable any ad blocker",
		result:      "Please enable JS and disable any ad blocker",
	}} {
		t.Run(testCase.name, func(t *testing.T) {
			var requestUserAgent atomic.String

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestUserAgent.Store(r.Header.Get("User-Agent"))
				w.Header().Set("Content-Type", testCase.contentType)
				w.WriteHeader(testCase.status)
				_, _ = io.WriteString(w, testCase.body)
			}))
			defer server.Close()

			response, err := Get(ctx, server.URL+"/", UserAgent(userAgent))
			require.NoError(t, err)

			require.Equal(t, server.URL+"/", response.URL)
			require.Equal(t, testCase.status, response.StatusCode)
			require.Equal(t, testCase.contentType, response.ContentType)

			whitespaceRe := regexp.MustCompile(`\s+`)
			require.Contains(t, whitespaceRe.ReplaceAllString(response.Body, ""),
				whitespaceRe.ReplaceAllString(testCase.result, ""))
			require.Equal(t, userAgent, requestUserAgent.Load())
		})
	}

	t.Run("connection refused", func(t *testing.T) {
		socket, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		url := "http://" + socket.Addr().String() + "/"
		require.NoError(t, socket.Close())

		_, err = Get(ctx, url)
		require.ErrorContains(t, err, "net::ERR_CONNECTION_REFUSED")
	})

	t.Run("timeout", func(t *testing.T) {
		socket, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer func() {
			require.NoError(t, socket.Close())
		}()

		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		_, err = Get(ctx, "http://"+socket.Addr().String()+"/")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestGetWithoutBrowser(t *testing.T) {
	t.Parallel()

	_, err := Get(testutil.Context(t), "http://127.0.0.1/")
	require.EqualError(t, err, "the browser is not configured")
}
