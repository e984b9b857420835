package davclient

import (
	"context"
	"strings"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// Default prop set for address-book discovery.
func addressBookPropNames() []Property {
	return davxml.PropNames(
		"d:displayname",
		"cs:getctag",
		"d:resourcetype",
		"d:sync-token",
	)
}

// FetchAddressBooks lists the account's address-book collections from the
// home set, keeping resources whose resourcetype contains addressbook.
func (c *Client) FetchAddressBooks(ctx context.Context) ([]AddressBook, error) {
	if err := c.requireHome(); err != nil {
		return nil, err
	}

	req := davxml.PropfindRequest{Props: addressBookPropNames()}
	ms, err := c.wrapper.DoPROPFIND(ctx, c.account.HomeURL, "1", req.ToXML())
	if err != nil {
		return nil, err
	}

	var books []AddressBook
	for _, resp := range ms.Responses {
		resourceTypes := propChildNames(resp, "resourcetype")
		if !containsString(resourceTypes, "addressbook") {
			continue
		}
		books = append(books, AddressBook{
			Collection: Collection{
				URL:          resolveHref(c.account.RootURL, resp.Href),
				CTag:         propText(resp, "getctag"),
				SyncToken:    propText(resp, "syncToken"),
				DisplayName:  propText(resp, "displayname"),
				ResourceType: resourceTypes,
			},
		})
	}

	err = fanOut(len(books), func(i int) error {
		reports, err := c.SupportedReportSet(ctx, books[i].URL)
		if err != nil {
			return err
		}
		books[i].Reports = reports
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// FetchVCards fetches the address book's vCards: an addressbook-query
// collects hrefs (unless ObjectURLs pins them), then an
// addressbook-multiget retrieves etag and payload for each.
func (c *Client) FetchVCards(ctx context.Context, book AddressBook, opts *FetchObjectsOptions) ([]VCard, error) {
	if opts == nil {
		opts = &FetchObjectsOptions{}
	}

	hrefs := opts.ObjectURLs
	if hrefs == nil {
		filters := opts.Filters
		if filters == nil {
			// Every vCard carries FN, so this matches everything.
			filters = []Property{{
				Name:       "card:prop-filter",
				Attributes: map[string]string{"name": "FN"},
			}}
		}
		query := davxml.AddressbookQueryRequest{
			Props:   davxml.PropNames("d:getetag"),
			Filters: filters,
		}
		responses, err := c.CollectionQuery(ctx, book.URL, query.ToXML(), "1")
		if err != nil {
			return nil, err
		}
		for _, resp := range responses {
			hrefs = append(hrefs, resp.Href)
		}
	}

	urlFilter := opts.URLFilter
	if urlFilter == nil {
		urlFilter = func(u string) bool { return strings.Contains(u, ".vcf") }
	}

	var paths []string
	for _, href := range hrefs {
		if href == "" {
			continue
		}
		full := href
		if !strings.HasPrefix(full, "http") {
			full = resolveHref(book.URL, full)
		}
		if !urlFilter(full) {
			continue
		}
		paths = append(paths, pathname(full))
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return c.addressBookMultiGet(ctx, book, paths)
}

// addressBookMultiGet fetches etag and address-data for the given hrefs
// in one REPORT round trip.
func (c *Client) addressBookMultiGet(ctx context.Context, book AddressBook, hrefs []string) ([]VCard, error) {
	req := davxml.AddressbookMultigetRequest{
		Props: davxml.PropNames("d:getetag", "card:address-data"),
		Hrefs: hrefs,
	}
	responses, err := c.CollectionQuery(ctx, book.URL, req.ToXML(), "1")
	if err != nil {
		return nil, err
	}

	cards := make([]VCard, 0, len(responses))
	for _, resp := range responses {
		cards = append(cards, VCard{
			URL:  resolveHref(book.URL, resp.Href),
			ETag: propText(resp, "getetag"),
			Data: propText(resp, "addressData"),
		})
	}
	return cards, nil
}
