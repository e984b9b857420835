package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// Wrapper wraps http.Client with the WebDAV verbs the library issues.
// XML verbs never fail on a non-2xx status; the status is carried in the
// decoded response envelopes instead.
type Wrapper interface {
	DoPROPFIND(ctx context.Context, url string, depth string, doc *etree.Document) (*davxml.Multistatus, error)
	DoREPORT(ctx context.Context, url string, depth string, doc *etree.Document) (*davxml.Multistatus, error)
	DoMKCOL(ctx context.Context, url string, doc *etree.Document) (*davxml.Multistatus, error)
	DoMKCALENDAR(ctx context.Context, url string, doc *etree.Document) (*davxml.Multistatus, error)
	DoPUT(ctx context.Context, url string, body string, contentType string, ifMatch string, ifNoneMatch string) (*RawResponse, error)
	DoDELETE(ctx context.Context, url string, ifMatch string) (*RawResponse, error)
	DoNoRedirect(ctx context.Context, method string, url string, depth string, doc *etree.Document) (*RawResponse, error)
}

// RawResponse is the envelope for verbs whose responses are not parsed as
// XML (PUT, DELETE and the redirect probe).
type RawResponse struct {
	URL        string
	Status     int
	StatusText string
	Ok         bool
	ETag       string
	Location   string
	Body       string
}

type wrapper struct {
	client   *http.Client
	baseURL  url.URL
	proxyURL string
	logger   *slog.Logger
}

// NewWrapper creates a client wrapper. Relative request URLs resolve
// against baseURL; when proxyURL is non-empty every outbound URL is
// prefixed with it verbatim. A nil logger discards debug output.
func NewWrapper(client *http.Client, baseURL url.URL, proxyURL string, logger *slog.Logger) Wrapper {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &wrapper{client: client, baseURL: baseURL, proxyURL: proxyURL, logger: logger}
}

// resolveURL resolves a URL string against the base URL and applies the
// proxy prefix. The proxy is a plain string prefix: the true target URL is
// embedded in the suffix for the proxy to forward.
func (w *wrapper) resolveURL(urlStr string) (string, error) {
	ref, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", urlStr, err)
	}
	resolved := w.baseURL.ResolveReference(ref).String()
	return w.proxyURL + resolved, nil
}

// mergeHeaders applies overrides on top of defaults. An empty override
// value removes the header entirely, so callers can clear a default.
func mergeHeaders(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for key, value := range defaults {
		if value != "" {
			merged[key] = value
		}
	}
	for key, value := range overrides {
		if value == "" {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	return merged
}
