package davclient

import (
	"context"
	"strings"
	"testing"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benfviney/tsdav/internal/httpclient"
)

const icsFixture = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//example//app//EN\r\nBEGIN:VEVENT\r\nUID:event-1@example.com\r\nDTSTAMP:20240115T100000Z\r\nDTSTART:20240116T090000Z\r\nSUMMARY:Standup\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func TestDecodeCalendar(t *testing.T) {
	cal, err := DecodeCalendar(CalendarObject{Data: icsFixture})
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Standup", summary)
}

func TestDecodeCalendarInvalidData(t *testing.T) {
	_, err := DecodeCalendar(CalendarObject{Data: "this is not icalendar"})
	assert.Error(t, err)
}

func TestEncodeCalendarRoundTrip(t *testing.T) {
	cal, err := DecodeCalendar(CalendarObject{Data: icsFixture})
	require.NoError(t, err)

	data, err := EncodeCalendar(cal)
	require.NoError(t, err)
	assert.Contains(t, data, "BEGIN:VCALENDAR")
	assert.Contains(t, data, "SUMMARY:Standup")

	again, err := DecodeCalendar(CalendarObject{Data: data})
	require.NoError(t, err)
	assert.Len(t, again.Events(), 1)
}

func TestPutCalendarObject(t *testing.T) {
	var gotURL, gotContentType, gotIfNoneMatch string
	mock := &mockWrapper{
		doPut: func(url, body, contentType, ifMatch, ifNoneMatch string) (*httpclient.RawResponse, error) {
			gotURL, gotContentType, gotIfNoneMatch = url, contentType, ifNoneMatch
			return &httpclient.RawResponse{Status: 201, Ok: true, ETag: `"created"`}, nil
		},
	}
	c := newTestClient(t, calendarAccount(), mock)

	cal, err := DecodeCalendar(CalendarObject{Data: icsFixture})
	require.NoError(t, err)

	obj, res, err := c.PutCalendarObject(context.Background(), calendarForTest(), cal)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotURL, "https://example.com/calendars/alice/default/"))
	assert.True(t, strings.HasSuffix(gotURL, ".ics"))
	assert.Equal(t, ContentTypeICal, gotContentType)
	assert.Equal(t, "*", gotIfNoneMatch)

	assert.Equal(t, gotURL, obj.URL)
	assert.Equal(t, `"created"`, obj.ETag)
	assert.Contains(t, obj.Data, "SUMMARY:Standup")
	assert.True(t, res.Ok)
}
