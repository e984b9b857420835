package xml

import (
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs used by WebDAV, CalDAV and CardDAV documents.
const (
	// DAV is the WebDAV namespace
	DAV = "DAV:"
	// CalDAV is the CalDAV namespace
	CalDAV = "urn:ietf:params:xml:ns:caldav"
	// CardDAV is the CardDAV namespace
	CardDAV = "urn:ietf:params:xml:ns:carddav"
	// CalendarServer is the Calendar Server namespace (getctag lives here)
	CalendarServer = "http://calendarserver.org/ns/"
	// AppleICal is Apple's iCal namespace (calendar-color)
	AppleICal = "http://apple.com/ns/ical/"
)

// Canonical prefixes, one per namespace.
var nsPrefixes = map[string]string{
	DAV:            "d",
	CalDAV:         "c",
	CardDAV:        "card",
	CalendarServer: "cs",
	AppleICal:      "ca",
}

// Prefix returns the canonical prefix for a namespace URI, or "" if the
// namespace is unknown.
func Prefix(ns string) string {
	return nsPrefixes[ns]
}

// AddNamespaces declares xmlns attributes for the given namespace URIs on
// the document root.
func AddNamespaces(doc *etree.Document, namespaces ...string) {
	root := doc.Root()
	if root == nil {
		return
	}
	for _, ns := range namespaces {
		if prefix, ok := nsPrefixes[ns]; ok {
			root.CreateAttr("xmlns:"+prefix, ns)
		}
	}
}

// CreateRootElement creates the document root with the XML declaration the
// servers expect. qualifiedName may carry a prefix ("c:calendar-query").
func CreateRootElement(doc *etree.Document, qualifiedName string) *etree.Element {
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	space, local := splitQualified(qualifiedName)
	root := doc.CreateElement(local)
	root.Space = space
	return root
}

// CreateElement creates a child element. A name without a prefix gets
// defaultPrefix; a name that already carries one is emitted verbatim.
func CreateElement(parent *etree.Element, name, defaultPrefix string) *etree.Element {
	space, local := splitQualified(name)
	if space == "" {
		space = defaultPrefix
	}
	elem := parent.CreateElement(local)
	elem.Space = space
	return elem
}

func splitQualified(name string) (space, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
