package httpclient

import (
	"context"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// DoREPORT performs a REPORT request at the given depth.
func (w *wrapper) DoREPORT(ctx context.Context, urlStr string, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
	return w.doXML(ctx, "REPORT", urlStr, depth, doc, nil)
}
