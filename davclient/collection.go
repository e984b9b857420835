package davclient

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// CollectionQuery issues a REPORT with the given body against url and
// returns the per-resource envelopes. A sole response with no decoded
// tree (the synthetic non-XML envelope) yields an empty list.
func (c *Client) CollectionQuery(ctx context.Context, url string, doc *etree.Document, depth string) ([]DAVResponse, error) {
	ms, err := c.wrapper.DoREPORT(ctx, url, depth, doc)
	if err != nil {
		return nil, err
	}
	if len(ms.Responses) == 1 && ms.Responses[0].Raw == nil {
		return nil, nil
	}
	return ms.Responses, nil
}

// MakeCollection issues MKCOL against url. When props are given they are
// sent as an extended MKCOL set body.
func (c *Client) MakeCollection(ctx context.Context, url string, props []Property) ([]DAVResponse, error) {
	var doc *etree.Document
	if len(props) > 0 {
		req := davxml.MkcolRequest{Props: props}
		doc = req.ToXML()
	}
	ms, err := c.wrapper.DoMKCOL(ctx, url, doc)
	if err != nil {
		return nil, err
	}
	return ms.Responses, nil
}

// MakeCalendar issues MKCALENDAR against url with the given initial
// properties.
func (c *Client) MakeCalendar(ctx context.Context, url string, props []Property) ([]DAVResponse, error) {
	req := davxml.MkcalendarRequest{Props: props}
	ms, err := c.wrapper.DoMKCALENDAR(ctx, url, req.ToXML())
	if err != nil {
		return nil, err
	}
	return ms.Responses, nil
}

// SupportedReportSet fetches d:supported-report-set for the collection and
// returns the camelCased report names the server advertises.
func (c *Client) SupportedReportSet(ctx context.Context, collectionURL string) ([]string, error) {
	req := davxml.PropfindRequest{Props: davxml.PropNames("d:supported-report-set")}
	ms, err := c.wrapper.DoPROPFIND(ctx, collectionURL, "0", req.ToXML())
	if err != nil {
		return nil, err
	}

	var reports []string
	for _, resp := range ms.Responses {
		prop, ok := resp.Props["supportedReportSet"]
		if !ok {
			continue
		}
		for _, sr := range prop.FindAll("supportedReport") {
			report, ok := sr.Find("report")
			if !ok || len(report.Children) == 0 {
				continue
			}
			reports = append(reports, report.Children[0].Name)
		}
	}
	return reports, nil
}

// IsCollectionDirty probes cs:getctag and compares it against the
// collection's cached ctag. The new ctag is returned either way so the
// caller can store it after reconciling.
func (c *Client) IsCollectionDirty(ctx context.Context, collection Collection) (isDirty bool, newCtag string, err error) {
	req := davxml.PropfindRequest{Props: davxml.PropNames("cs:getctag")}
	ms, err := c.wrapper.DoPROPFIND(ctx, collection.URL, "0", req.ToXML())
	if err != nil {
		return false, "", err
	}

	for _, resp := range ms.Responses {
		if !URLContains(collection.URL, resp.Href) {
			continue
		}
		if prop, ok := resp.Props["getctag"]; ok {
			newCtag = prop.Text()
		}
		return collection.CTag != newCtag, newCtag, nil
	}
	return false, "", fmt.Errorf("%w: %s", ErrCollectionNotFound, collection.URL)
}

// syncCollectionReport issues the sync-collection REPORT. An empty
// syncToken asks for the complete state; the server's next token comes
// back on the multistatus.
func (c *Client) syncCollectionReport(ctx context.Context, url string, props []Property, syncLevel string, syncToken string) (*davxml.Multistatus, error) {
	req := davxml.SyncCollectionRequest{
		SyncToken: syncToken,
		SyncLevel: syncLevel,
		Props:     props,
	}
	return c.wrapper.DoREPORT(ctx, url, "1", req.ToXML())
}
