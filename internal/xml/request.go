package xml

import "github.com/beevik/etree"

// TimeRange holds a CalDAV time range in the compressed UTC wire format
// (20060102T150405Z).
type TimeRange struct {
	Start string
	End   string
}

// PropfindRequest represents a PROPFIND request body.
type PropfindRequest struct {
	Props []Property
}

// ToXML converts a PropfindRequest to an XML document.
func (r *PropfindRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "d:"+TagPropfind)
	AddNamespaces(doc, DAV, CalDAV, CardDAV, CalendarServer, AppleICal)

	prop := CreateElement(root, TagProp, "d")
	for i := range r.Props {
		r.Props[i].ToElement(prop, "d")
	}
	return doc
}

// SyncCollectionRequest represents a sync-collection REPORT request.
// An empty SyncToken asks for the full state on the first run.
type SyncCollectionRequest struct {
	SyncToken string
	SyncLevel string
	Props     []Property
}

// ToXML converts a SyncCollectionRequest to an XML document.
func (r *SyncCollectionRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "d:sync-collection")
	AddNamespaces(doc, DAV, CalDAV, CardDAV)

	token := CreateElement(root, "sync-token", "d")
	if r.SyncToken != "" {
		token.SetText(r.SyncToken)
	}

	level := CreateElement(root, "sync-level", "d")
	level.SetText(r.SyncLevel)

	if len(r.Props) > 0 {
		prop := CreateElement(root, TagProp, "d")
		for i := range r.Props {
			r.Props[i].ToElement(prop, "d")
		}
	}
	return doc
}

// MkcolRequest represents an extended MKCOL request. With no props the
// request body is omitted entirely by the transport.
type MkcolRequest struct {
	Props []Property
}

// ToXML converts a MkcolRequest to an XML document.
func (r *MkcolRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "d:mkcol")
	AddNamespaces(doc, DAV, CalDAV, CardDAV)

	set := CreateElement(root, TagSet, "d")
	prop := CreateElement(set, TagProp, "d")
	for i := range r.Props {
		r.Props[i].ToElement(prop, "d")
	}
	return doc
}

// MkcalendarRequest represents a MKCALENDAR request.
type MkcalendarRequest struct {
	Props []Property
}

// ToXML converts a MkcalendarRequest to an XML document.
func (r *MkcalendarRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "c:mkcalendar")
	AddNamespaces(doc, DAV, CalDAV, CalendarServer, AppleICal)

	if len(r.Props) > 0 {
		set := CreateElement(root, TagSet, "d")
		prop := CreateElement(set, TagProp, "d")
		for i := range r.Props {
			r.Props[i].ToElement(prop, "d")
		}
	}
	return doc
}

// CalendarQueryRequest represents a calendar-query REPORT request.
type CalendarQueryRequest struct {
	Props    []Property
	Filters  []Property
	Timezone string
}

// ToXML converts a CalendarQueryRequest to an XML document.
func (r *CalendarQueryRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "c:calendar-query")
	AddNamespaces(doc, DAV, CalDAV, CalendarServer, AppleICal)

	if len(r.Props) > 0 {
		prop := CreateElement(root, TagProp, "d")
		for i := range r.Props {
			r.Props[i].ToElement(prop, "d")
		}
	}

	filter := CreateElement(root, "filter", "c")
	for i := range r.Filters {
		r.Filters[i].ToElement(filter, "c")
	}

	if r.Timezone != "" {
		tz := CreateElement(root, "timezone", "c")
		tz.SetText(r.Timezone)
	}
	return doc
}

// AddressbookQueryRequest represents an addressbook-query REPORT request.
type AddressbookQueryRequest struct {
	Props   []Property
	Filters []Property
}

// ToXML converts an AddressbookQueryRequest to an XML document.
func (r *AddressbookQueryRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "card:addressbook-query")
	AddNamespaces(doc, DAV, CardDAV)

	if len(r.Props) > 0 {
		prop := CreateElement(root, TagProp, "d")
		for i := range r.Props {
			r.Props[i].ToElement(prop, "d")
		}
	}

	filter := CreateElement(root, "filter", "card")
	for i := range r.Filters {
		r.Filters[i].ToElement(filter, "card")
	}
	return doc
}

// CalendarMultigetRequest represents a calendar-multiget REPORT request.
type CalendarMultigetRequest struct {
	Props []Property
	Hrefs []string
}

// ToXML converts a CalendarMultigetRequest to an XML document.
func (r *CalendarMultigetRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "c:calendar-multiget")
	AddNamespaces(doc, DAV, CalDAV)
	addMultigetElements(root, r.Props, r.Hrefs)
	return doc
}

// AddressbookMultigetRequest represents an addressbook-multiget REPORT
// request.
type AddressbookMultigetRequest struct {
	Props []Property
	Hrefs []string
}

// ToXML converts an AddressbookMultigetRequest to an XML document.
func (r *AddressbookMultigetRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "card:addressbook-multiget")
	AddNamespaces(doc, DAV, CardDAV)
	addMultigetElements(root, r.Props, r.Hrefs)
	return doc
}

func addMultigetElements(root *etree.Element, props []Property, hrefs []string) {
	if len(props) > 0 {
		prop := CreateElement(root, TagProp, "d")
		for i := range props {
			props[i].ToElement(prop, "d")
		}
	}
	for _, href := range hrefs {
		h := CreateElement(root, TagHref, "d")
		h.SetText(href)
	}
}

// FreeBusyQueryRequest represents a free-busy-query REPORT request.
type FreeBusyQueryRequest struct {
	TimeRange TimeRange
}

// ToXML converts a FreeBusyQueryRequest to an XML document.
func (r *FreeBusyQueryRequest) ToXML() *etree.Document {
	doc := etree.NewDocument()
	root := CreateRootElement(doc, "c:free-busy-query")
	AddNamespaces(doc, CalDAV)

	tr := CreateElement(root, "time-range", "c")
	if r.TimeRange.Start != "" {
		tr.CreateAttr("start", r.TimeRange.Start)
	}
	if r.TimeRange.End != "" {
		tr.CreateAttr("end", r.TimeRange.End)
	}
	return doc
}
