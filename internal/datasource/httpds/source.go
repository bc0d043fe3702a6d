package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source adapts a Client into the datasource.Source shape: Open fetches the
// URL with GET and hands the response body to the caller.
type Source struct {
	client  *Client
	url     string
	headers http.Header
}

// NewSource binds a client to one URL. headers may be nil.
func NewSource(client *Client, url string, headers http.Header) *Source {
	return &Source{client: client, url: url, headers: headers}
}

// Open performs the GET and returns the body. A non-2xx final status is an
// error; the body is closed before returning it.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, s.headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", s.url, resp.StatusCode)
	}
	return resp.Body, nil
}
