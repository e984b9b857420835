package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

func serializeDoc(doc *etree.Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	body, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize request body: %w", err)
	}
	return body, nil
}

// doXML issues an XML-bodied DAV request and decodes the multistatus
// response. Non-2xx statuses and non-XML bodies come back as a single
// synthetic response envelope, never as an error.
func (w *wrapper) doXML(ctx context.Context, method, urlStr, depth string, doc *etree.Document, headers map[string]string) (*davxml.Multistatus, error) {
	body, err := serializeDoc(doc)
	if err != nil {
		return nil, err
	}

	resolvedURL, err := w.resolveURL(urlStr)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("starting DAV request",
		"method", method,
		"url", resolvedURL,
		"depth", depth,
		"body_length", len(body))

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolvedURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	defaults := map[string]string{
		"Content-Type": "text/xml;charset=UTF-8",
		"Depth":        depth,
	}
	for key, value := range mergeHeaders(defaults, headers) {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	w.logger.Debug("received DAV response",
		"method", method,
		"status", resp.Status,
		"body_length", len(respBody))

	ms := davxml.ParseMultistatus(respBody, resp.StatusCode, statusText(resp), resolvedURL)
	return ms, nil
}

// doRaw issues a request whose response body is not parsed as XML.
func (w *wrapper) doRaw(ctx context.Context, method, urlStr, body string, headers map[string]string) (*RawResponse, error) {
	resolvedURL, err := w.resolveURL(urlStr)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("starting raw request",
		"method", method,
		"url", resolvedURL,
		"body_length", len(body))

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolvedURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	for key, value := range mergeHeaders(nil, headers) {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	w.logger.Debug("received raw response",
		"method", method,
		"status", resp.Status)

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

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
