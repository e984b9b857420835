package davclient

import (
	"context"

	"github.com/benfviney/tsdav/internal/httpclient"
)

// Content types for the two payload flavors.
const (
	ContentTypeICal  = "text/calendar; charset=utf-8"
	ContentTypeVCard = "text/vcard; charset=utf-8"
)

func (t AccountType) contentType() string {
	if t == AccountTypeCardDAV {
		return ContentTypeVCard
	}
	return ContentTypeICal
}

// CreateObject uploads a new resource at url. If-None-Match: * makes the
// PUT fail if something already lives there.
func (c *Client) CreateObject(ctx context.Context, url, data, contentType string) (*httpclient.RawResponse, error) {
	return c.wrapper.DoPUT(ctx, url, data, contentType, "", "*")
}

// UpdateObject replaces the resource. The object's etag guards against
// lost updates; with an empty etag the guard is omitted.
func (c *Client) UpdateObject(ctx context.Context, obj DAVObject, contentType string) (*httpclient.RawResponse, error) {
	return c.wrapper.DoPUT(ctx, obj.URL, obj.Data, contentType, obj.ETag, "")
}

// DeleteObject removes the resource, guarded by its etag when present.
func (c *Client) DeleteObject(ctx context.Context, obj DAVObject) (*httpclient.RawResponse, error) {
	return c.wrapper.DoDELETE(ctx, obj.URL, obj.ETag)
}

// CreateCalendarObject uploads iCalendar data under filename inside the
// calendar collection.
func (c *Client) CreateCalendarObject(ctx context.Context, calendar Calendar, filename, data string) (*httpclient.RawResponse, error) {
	return c.CreateObject(ctx, resolveHref(calendar.URL, filename), data, ContentTypeICal)
}

// UpdateCalendarObject replaces a calendar object using its etag.
func (c *Client) UpdateCalendarObject(ctx context.Context, obj CalendarObject) (*httpclient.RawResponse, error) {
	return c.UpdateObject(ctx, obj, ContentTypeICal)
}

// DeleteCalendarObject removes a calendar object using its etag.
func (c *Client) DeleteCalendarObject(ctx context.Context, obj CalendarObject) (*httpclient.RawResponse, error) {
	return c.DeleteObject(ctx, obj)
}

// CreateVCard uploads vCard data under filename inside the address book.
func (c *Client) CreateVCard(ctx context.Context, book AddressBook, filename, data string) (*httpclient.RawResponse, error) {
	return c.CreateObject(ctx, resolveHref(book.URL, filename), data, ContentTypeVCard)
}

// UpdateVCard replaces a vCard using its etag.
func (c *Client) UpdateVCard(ctx context.Context, obj VCard) (*httpclient.RawResponse, error) {
	return c.UpdateObject(ctx, obj, ContentTypeVCard)
}

// DeleteVCard removes a vCard using its etag.
func (c *Client) DeleteVCard(ctx context.Context, obj VCard) (*httpclient.RawResponse, error) {
	return c.DeleteObject(ctx, obj)
}
