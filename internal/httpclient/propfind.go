package httpclient

import (
	"context"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// DoPROPFIND performs a PROPFIND request at the given depth.
func (w *wrapper) DoPROPFIND(ctx context.Context, urlStr string, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
	return w.doXML(ctx, "PROPFIND", urlStr, depth, doc, nil)
}
