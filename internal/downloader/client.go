package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "ttscraper/pkg/errors"
	"ttscraper/pkg/logger"
)

// Client fetches media over HTTP with a fixed header set
type Client struct {
	httpClient *http.Client
	headers    http.Header
	logger     logger.Logger
}

// NewClient creates a media client. A zero timeout leaves the transport
// defaults in place, which suits long video streams.
func NewClient(cfg FetchConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := cfg.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: headers,
		logger:  log,
	}
}

// Open issues a GET for url and returns the response body as a stream.
// The caller must close it. Only 200 and 206 responses are accepted.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeUnknown, err, "failed to create request: %v", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, apperrors.New(apperrors.ErrorTypeNetwork, err, "network error: %v", err)
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	c.logger.DebugWithFields("HTTP response streaming", map[string]interface{}{
		"url":            url,
		"status":         resp.StatusCode,
		"content_length": resp.ContentLength,
		"duration":       duration,
	})

	return resp.Body, nil
}

// checkResponseStatus maps non-media responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if apperrors.IsAcceptableStatusCode(resp.StatusCode) {
		return nil
	}

	c.logger.WarnWithFields("unexpected media response", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	})
	return &apperrors.Error{
		Type:    apperrors.ErrorTypeHTTPStatus,
		Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}
