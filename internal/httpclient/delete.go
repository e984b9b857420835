package httpclient

import "context"

// DoDELETE removes a resource, optionally guarded by If-Match.
func (w *wrapper) DoDELETE(ctx context.Context, urlStr string, ifMatch string) (*RawResponse, error) {
	headers := map[string]string{
		"If-Match": ifMatch,
	}
	return w.doRaw(ctx, "DELETE", urlStr, "", headers)
}
