package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestMergeHeaders(t *testing.T) {
	tests := []struct {
		name      string
		defaults  map[string]string
		overrides map[string]string
		want      map[string]string
	}{
		{
			name:     "defaults pass through",
			defaults: map[string]string{"Depth": "0"},
			want:     map[string]string{"Depth": "0"},
		},
		{
			name:      "override replaces default",
			defaults:  map[string]string{"Depth": "0"},
			overrides: map[string]string{"Depth": "1"},
			want:      map[string]string{"Depth": "1"},
		},
		{
			name:      "empty override removes header",
			defaults:  map[string]string{"Depth": "0", "Content-Type": "text/xml"},
			overrides: map[string]string{"Depth": ""},
			want:      map[string]string{"Content-Type": "text/xml"},
		},
		{
			name:     "empty default is never sent",
			defaults: map[string]string{"If-Match": "", "If-None-Match": "*"},
			want:     map[string]string{"If-None-Match": "*"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeHeaders(tt.defaults, tt.overrides))
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		proxy string
		in    string
		want  string
	}{
		{
			name: "relative path against base",
			base: "https://caldav.example.com/",
			in:   "/calendars/alice/",
			want: "https://caldav.example.com/calendars/alice/",
		},
		{
			name: "absolute url wins over base",
			base: "https://caldav.example.com/",
			in:   "https://other.example.com/cal/",
			want: "https://other.example.com/cal/",
		},
		{
			name:  "proxy prefixes the resolved url",
			base:  "https://caldav.example.com/",
			proxy: "https://proxy.local/fetch/",
			in:    "/calendars/alice/",
			want:  "https://proxy.local/fetch/https://caldav.example.com/calendars/alice/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &wrapper{baseURL: mustParseURL(t, tt.base), proxyURL: tt.proxy}
			got, err := w.resolveURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDoPROPFINDSendsDepthAndBody(t *testing.T) {
	var gotDepth, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		gotDepth = r.Header.Get("Depth")
		gotContentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		rw.WriteHeader(207)
		rw.Write([]byte(`<d:multistatus xmlns:d="DAV:"><d:response><d:href>/a/</d:href><d:propstat><d:prop><d:displayname>A</d:displayname></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat></d:response></d:multistatus>`))
	}))
	defer srv.Close()

	w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
	req := davxml.PropfindRequest{Props: davxml.PropNames("d:displayname")}
	ms, err := w.DoPROPFIND(context.Background(), "/a/", "0", req.ToXML())
	require.NoError(t, err)

	assert.Equal(t, "0", gotDepth)
	assert.Equal(t, "text/xml;charset=UTF-8", gotContentType)
	assert.Contains(t, gotBody, "<d:displayname/>")
	require.Len(t, ms.Responses, 1)
	assert.Equal(t, "A", ms.Responses[0].Props["displayname"].Text())
}

func TestDoPROPFINDNon2xxYieldsSyntheticResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusForbidden)
		rw.Write([]byte("you shall not pass"))
	}))
	defer srv.Close()

	w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
	ms, err := w.DoPROPFIND(context.Background(), "/a/", "0", nil)
	require.NoError(t, err)
	require.Len(t, ms.Responses, 1)
	resp := ms.Responses[0]
	assert.False(t, resp.Ok)
	assert.Equal(t, 403, resp.Status)
	assert.Equal(t, "you shall not pass", resp.RawBody)
}

func TestDoPUTConditionalHeaders(t *testing.T) {
	tests := []struct {
		name        string
		ifMatch     string
		ifNoneMatch string
	}{
		{"create guard", "", "*"},
		{"update guard", `"rev7"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIfMatch, gotIfNoneMatch string
			srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "PUT", r.Method)
				gotIfMatch = r.Header.Get("If-Match")
				gotIfNoneMatch = r.Header.Get("If-None-Match")
				rw.Header().Set("ETag", `"rev8"`)
				rw.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
			res, err := w.DoPUT(context.Background(), "/cal/1.ics", "BEGIN:VCALENDAR\nEND:VCALENDAR", "text/calendar; charset=utf-8", tt.ifMatch, tt.ifNoneMatch)
			require.NoError(t, err)

			assert.Equal(t, tt.ifMatch, gotIfMatch)
			assert.Equal(t, tt.ifNoneMatch, gotIfNoneMatch)
			assert.True(t, res.Ok)
			assert.Equal(t, 201, res.Status)
			assert.Equal(t, `"rev8"`, res.ETag)
		})
	}
}

func TestDoPUTPreconditionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer srv.Close()

	w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
	res, err := w.DoPUT(context.Background(), "/cal/1.ics", "data", "text/calendar; charset=utf-8", `"stale"`, "")
	require.NoError(t, err)
	assert.False(t, res.Ok)
	assert.Equal(t, 412, res.Status)
}

func TestDoDELETE(t *testing.T) {
	var gotIfMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		gotIfMatch = r.Header.Get("If-Match")
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
	res, err := w.DoDELETE(context.Background(), "/cal/1.ics", `"rev7"`)
	require.NoError(t, err)
	assert.Equal(t, `"rev7"`, gotIfMatch)
	assert.True(t, res.Ok)
}

func TestDoNoRedirectStopsAtFirstHop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.well-known/caldav" {
			rw.Header().Set("Location", "/dav/")
			rw.WriteHeader(http.StatusMovedPermanently)
			return
		}
		t.Errorf("redirect was followed to %s", r.URL.Path)
	}))
	defer srv.Close()

	w := NewWrapper(srv.Client(), mustParseURL(t, srv.URL), "", nil)
	res, err := w.DoNoRedirect(context.Background(), "PROPFIND", "/.well-known/caldav", "0", nil)
	require.NoError(t, err)
	assert.Equal(t, 301, res.Status)
	assert.Equal(t, "/dav/", res.Location)
	assert.True(t, res.Ok)
}
