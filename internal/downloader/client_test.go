package downloader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ttscraper/pkg/errors"
	"ttscraper/pkg/logger"
)

func TestDefaultFetchConfig(t *testing.T) {
	cfg := DefaultFetchConfig("https://www.tiktok.com/", "agent/1.0")

	want := map[string]string{
		"Accept":          mediaAccept,
		"Accept-Language": mediaAcceptLanguage,
		"Cache-Control":   "no-cache",
		"Connection":      "keep-alive",
		"Pragma":          "no-cache",
		"Range":           "bytes=0-",
		"Referer":         "https://www.tiktok.com/",
		"Sec-Fetch-Dest":  "video",
		"Sec-Fetch-Mode":  "no-cors",
		"Sec-Fetch-Site":  "same-site",
		"User-Agent":      "agent/1.0",
	}
	assert.Len(t, cfg.Headers, len(want))
	for k, v := range want {
		assert.Equal(t, v, cfg.Headers.Get(k), k)
	}

	clone := cfg.Clone()
	clone.Headers.Set("Range", "bytes=10-")
	assert.Equal(t, "bytes=0-", cfg.Headers.Get("Range"))
}

func TestClientSendsFetchHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusPartialContent)
		io.WriteString(w, "partial content body")
	}))
	defer srv.Close()

	client := NewClient(DefaultFetchConfig("https://www.tiktok.com/", "agent/1.0"), 5*time.Second, logger.NewNopLogger())
	body, err := client.Open(context.Background(), srv.URL+"/video")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "partial content body", string(data))

	assert.Equal(t, "bytes=0-", got.Get("Range"))
	assert.Equal(t, "https://www.tiktok.com/", got.Get("Referer"))
	assert.Equal(t, "agent/1.0", got.Get("User-Agent"))
	assert.Equal(t, "video", got.Get("Sec-Fetch-Dest"))
	assert.Equal(t, mediaAccept, got.Get("Accept"))
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusPartialContent, false},
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(FetchConfig{}, time.Second, logger.NewNopLogger())
			body, err := client.Open(context.Background(), srv.URL)
			if !tt.wantErr {
				require.NoError(t, err)
				body.Close()
				return
			}

			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrorTypeHTTPStatus, appErr.Type)
			assert.Equal(t, tt.status, appErr.Code)
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(FetchConfig{}, time.Second, logger.NewNopLogger())
	_, err := client.Open(context.Background(), url)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeNetwork, appErr.Type)
}

func TestClientInvalidURL(t *testing.T) {
	client := NewClient(FetchConfig{}, time.Second, logger.NewNopLogger())
	_, err := client.Open(context.Background(), "://bad")

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeUnknown, appErr.Type)
}
