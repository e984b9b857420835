package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
)

// DoNoRedirect issues a request with redirect following disabled, so the
// caller can inspect a 3xx Location itself. Used by the .well-known probe.
func (w *wrapper) DoNoRedirect(ctx context.Context, method string, urlStr string, depth string, doc *etree.Document) (*RawResponse, error) {
	body, err := serializeDoc(doc)
	if err != nil {
		return nil, err
	}

	resolvedURL, err := w.resolveURL(urlStr)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("starting no-redirect request",
		"method", method,
		"url", resolvedURL,
		"depth", depth)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolvedURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	for key, value := range mergeHeaders(map[string]string{
		"Content-Type": "text/xml;charset=UTF-8",
		"Depth":        depth,
	}, nil) {
		req.Header.Set(key, value)
	}

	// Shallow copy so the wrapper's shared client keeps following
	// redirects for every other verb.
	client := *w.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	w.logger.Debug("received no-redirect response",
		"method", method,
		"status", resp.Status,
		"location", resp.Header.Get("Location"))

	return &RawResponse{
		URL:        resolvedURL,
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Ok:         resp.StatusCode >= 200 && resp.StatusCode < 400,
		ETag:       resp.Header.Get("ETag"),
		Location:   resp.Header.Get("Location"),
		Body:       string(respBody),
	}, nil
}
