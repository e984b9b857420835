package davclient

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/benfviney/tsdav/internal/httpclient"
)

// EncodeCalendar serializes an iCalendar document to the wire payload.
func EncodeCalendar(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// DecodeCalendar parses a calendar object's payload. The core never does
// this on its own; payloads stay opaque until the caller asks.
func DecodeCalendar(obj CalendarObject) (*ical.Calendar, error) {
	cal, err := ical.NewDecoder(strings.NewReader(obj.Data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse iCalendar data: %w", err)
	}
	return cal, nil
}

// PutCalendarObject encodes cal and creates it in the collection under a
// generated UUID name. Returns the created object with the server's etag
// when the server sent one.
func (c *Client) PutCalendarObject(ctx context.Context, calendar Calendar, cal *ical.Calendar) (CalendarObject, *httpclient.RawResponse, error) {
	data, err := EncodeCalendar(cal)
	if err != nil {
		return CalendarObject{}, nil, err
	}
	filename := uuid.New().String() + ".ics"
	res, err := c.CreateCalendarObject(ctx, calendar, filename, data)
	if err != nil {
		return CalendarObject{}, nil, err
	}
	obj := CalendarObject{
		URL:  resolveHref(calendar.URL, filename),
		ETag: res.ETag,
		Data: data,
	}
	return obj, res, nil
}
