package httpclient

import (
	"context"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// DoMKCOL performs an extended MKCOL request. doc may be nil for a plain
// collection with no initial properties.
func (w *wrapper) DoMKCOL(ctx context.Context, urlStr string, doc *etree.Document) (*davxml.Multistatus, error) {
	return w.doXML(ctx, "MKCOL", urlStr, "", doc, nil)
}

// DoMKCALENDAR performs a MKCALENDAR request.
func (w *wrapper) DoMKCALENDAR(ctx context.Context, urlStr string, doc *etree.Document) (*davxml.Multistatus, error) {
	return w.doXML(ctx, "MKCALENDAR", urlStr, "", doc, nil)
}
