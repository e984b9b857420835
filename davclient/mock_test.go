package davclient

import (
	"context"
	"fmt"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/benfviney/tsdav/internal/httpclient"
	davxml "github.com/benfviney/tsdav/internal/xml"
)

// mockWrapper satisfies httpclient.Wrapper with per-verb hooks. A verb
// without a hook fails the call so tests notice unexpected traffic.
type mockWrapper struct {
	doPropfind   func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error)
	doReport     func(url, depth string, doc *etree.Document) (*davxml.Multistatus, error)
	doMkcol      func(url string, doc *etree.Document) (*davxml.Multistatus, error)
	doMkcalendar func(url string, doc *etree.Document) (*davxml.Multistatus, error)
	doPut        func(url, body, contentType, ifMatch, ifNoneMatch string) (*httpclient.RawResponse, error)
	doDelete     func(url, ifMatch string) (*httpclient.RawResponse, error)
	doNoRedirect func(method, url string) (*httpclient.RawResponse, error)
}

func (m *mockWrapper) DoPROPFIND(_ context.Context, url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
	if m.doPropfind == nil {
		return nil, fmt.Errorf("unexpected PROPFIND %s", url)
	}
	return m.doPropfind(url, depth, doc)
}

func (m *mockWrapper) DoREPORT(_ context.Context, url, depth string, doc *etree.Document) (*davxml.Multistatus, error) {
	if m.doReport == nil {
		return nil, fmt.Errorf("unexpected REPORT %s", url)
	}
	return m.doReport(url, depth, doc)
}

func (m *mockWrapper) DoMKCOL(_ context.Context, url string, doc *etree.Document) (*davxml.Multistatus, error) {
	if m.doMkcol == nil {
		return nil, fmt.Errorf("unexpected MKCOL %s", url)
	}
	return m.doMkcol(url, doc)
}

func (m *mockWrapper) DoMKCALENDAR(_ context.Context, url string, doc *etree.Document) (*davxml.Multistatus, error) {
	if m.doMkcalendar == nil {
		return nil, fmt.Errorf("unexpected MKCALENDAR %s", url)
	}
	return m.doMkcalendar(url, doc)
}

func (m *mockWrapper) DoPUT(_ context.Context, url, body, contentType, ifMatch, ifNoneMatch string) (*httpclient.RawResponse, error) {
	if m.doPut == nil {
		return nil, fmt.Errorf("unexpected PUT %s", url)
	}
	return m.doPut(url, body, contentType, ifMatch, ifNoneMatch)
}

func (m *mockWrapper) DoDELETE(_ context.Context, url, ifMatch string) (*httpclient.RawResponse, error) {
	if m.doDelete == nil {
		return nil, fmt.Errorf("unexpected DELETE %s", url)
	}
	return m.doDelete(url, ifMatch)
}

func (m *mockWrapper) DoNoRedirect(_ context.Context, method, url, _ string, _ *etree.Document) (*httpclient.RawResponse, error) {
	if m.doNoRedirect == nil {
		return nil, fmt.Errorf("unexpected %s %s", method, url)
	}
	return m.doNoRedirect(method, url)
}

func newTestClient(t *testing.T, account Account, w httpclient.Wrapper) *Client {
	t.Helper()
	c, err := New(account, Credentials{Username: "alice", Password: "secret"}, withWrapper(w))
	require.NoError(t, err)
	return c
}

// mustMultistatus parses fixture XML through the real codec so responses
// carry their decoded trees, exactly as production responses do.
func mustMultistatus(t *testing.T, body string) *davxml.Multistatus {
	t.Helper()
	ms := davxml.ParseMultistatus([]byte(body), 207, "Multi-Status", "")
	require.NotEmpty(t, ms.Responses, "fixture did not parse as multistatus")
	require.NotNil(t, ms.Responses[0].Raw, "fixture did not parse as multistatus")
	return ms
}

func docToString(t *testing.T, doc *etree.Document) string {
	t.Helper()
	if doc == nil {
		return ""
	}
	s, err := doc.WriteToString()
	require.NoError(t, err)
	return s
}
