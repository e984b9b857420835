package httpclient

import "context"

// DoPUT uploads a resource payload. ifNoneMatch "*" guards creation of a
// new resource; ifMatch guards an update against the etag in hand. Either
// may be empty, in which case the header is omitted.
func (w *wrapper) DoPUT(ctx context.Context, urlStr string, body string, contentType string, ifMatch string, ifNoneMatch string) (*RawResponse, error) {
	headers := map[string]string{
		"Content-Type":  contentType,
		"If-Match":      ifMatch,
		"If-None-Match": ifNoneMatch,
	}
	return w.doRaw(ctx, "PUT", urlStr, body, headers)
}
