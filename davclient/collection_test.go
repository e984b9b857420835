package davclient

import (
	"context"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

func TestCollectionQueryEmptyResult(t *testing.T) {
	mock := &mockWrapper{
		doReport: func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
			// A server answering a query with a non-XML body produces the
			// synthetic envelope.
			return davxml.ParseMultistatus(nil, 207, "Multi-Status", url), nil
		},
	}
	c := newTestClient(t, calendarAccount(), mock)

	responses, err := c.CollectionQuery(context.Background(), "https://example.com/cal/", etree.NewDocument(), "1")
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestMakeCollection(t *testing.T) {
	tests := []struct {
		name     string
		props    []Property
		wantBody bool
	}{
		{"plain mkcol has no body", nil, false},
		{"extended mkcol sends the set body", []Property{{Name: "d:displayname", TextContent: "New"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDoc *etree.Document
			mock := &mockWrapper{
				doMkcol: func(url string, doc *etree.Document) (*davxml.Multistatus, error) {
					gotDoc = doc
					return davxml.ParseMultistatus(nil, 201, "Created", url), nil
				},
			}
			c := newTestClient(t, calendarAccount(), mock)

			_, err := c.MakeCollection(context.Background(), "https://example.com/new/", tt.props)
			require.NoError(t, err)
			if tt.wantBody {
				require.NotNil(t, gotDoc)
				body := docToString(t, gotDoc)
				assert.Contains(t, body, "<d:mkcol")
				assert.Contains(t, body, "<d:displayname>New</d:displayname>")
			} else {
				assert.Nil(t, gotDoc)
			}
		})
	}
}

func TestMakeCalendar(t *testing.T) {
	var gotBody string
	mock := &mockWrapper{
		doMkcalendar: func(url string, doc *etree.Document) (*davxml.Multistatus, error) {
			gotBody = docToString(t, doc)
			return davxml.ParseMultistatus(nil, 201, "Created", url), nil
		},
	}
	c := newTestClient(t, calendarAccount(), mock)

	_, err := c.MakeCalendar(context.Background(), "https://example.com/calendars/alice/new/", []Property{
		{Name: "d:displayname", TextContent: "Holidays"},
	})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "<c:mkcalendar")
	assert.Contains(t, gotBody, "<d:displayname>Holidays</d:displayname>")
}

func TestIsCollectionDirty(t *testing.T) {
	tests := []struct {
		name      string
		cachedTag string
		newTag    string
		wantDirty bool
	}{
		{"unchanged ctag", "ctag-1", "ctag-1", false},
		{"moved ctag", "ctag-1", "ctag-2", true},
		{"first probe with no cached ctag", "", "ctag-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockWrapper{
				doPropfind: func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
					assert.Equal(t, "0", depth)
					return mustMultistatus(t, `<d:multistatus xmlns:d="DAV:" xmlns:cs="http://calendarserver.org/ns/">
  <d:response>
    <d:href>/calendars/alice/default/</d:href>
    <d:propstat>
      <d:prop><cs:getctag>`+tt.newTag+`</cs:getctag></d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`), nil
				},
			}
			c := newTestClient(t, calendarAccount(), mock)

			dirty, newCtag, err := c.IsCollectionDirty(context.Background(), Collection{
				URL:  "https://example.com/calendars/alice/default/",
				CTag: tt.cachedTag,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDirty, dirty)
			assert.Equal(t, tt.newTag, newCtag)
		})
	}
}

func TestIsCollectionDirtyNoMatchingResponse(t *testing.T) {
	mock := &mockWrapper{
		doPropfind: func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
			return mustMultistatus(t, `<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/calendars/bob/other/</d:href>
    <d:propstat>
      <d:prop><d:displayname>Other</d:displayname></d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`), nil
		},
	}
	c := newTestClient(t, calendarAccount(), mock)

	_, _, err := c.IsCollectionDirty(context.Background(), Collection{
		URL: "https://example.com/calendars/alice/default/",
	})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSupportedReportSet(t *testing.T) {
	mock := &mockWrapper{
		doPropfind: func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
			return mustMultistatus(t, `<d:multistatus xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:response>
    <d:href>/calendars/alice/default/</d:href>
    <d:propstat>
      <d:prop>
        <d:supported-report-set>
          <d:supported-report><d:report><d:sync-collection/></d:report></d:supported-report>
          <d:supported-report><d:report><c:calendar-multiget/></d:report></d:supported-report>
          <d:supported-report><d:report><c:free-busy-query/></d:report></d:supported-report>
        </d:supported-report-set>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`), nil
		},
	}
	c := newTestClient(t, calendarAccount(), mock)

	reports, err := c.SupportedReportSet(context.Background(), "https://example.com/calendars/alice/default/")
	require.NoError(t, err)
	assert.Equal(t, []string{"syncCollection", "calendarMultiget", "freeBusyQuery"}, reports)
}
