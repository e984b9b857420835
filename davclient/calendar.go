package davclient

import (
	"context"
	"strings"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// Default prop set for calendar discovery.
func calendarPropNames() []Property {
	return davxml.PropNames(
		"c:calendar-description",
		"c:calendar-timezone",
		"d:displayname",
		"ca:calendar-color",
		"cs:getctag",
		"d:resourcetype",
		"c:supported-calendar-component-set",
		"d:sync-token",
	)
}

// FetchCalendars lists the account's calendar collections: PROPFIND on
// the home set at depth 1, keeping resources whose resourcetype contains
// calendar and whose supported component set intersects the iCalendar
// component names. Each calendar's supported reports are attached in a
// parallel pass.
func (c *Client) FetchCalendars(ctx context.Context) ([]Calendar, error) {
	if err := c.requireHome(); err != nil {
		return nil, err
	}

	req := davxml.PropfindRequest{Props: calendarPropNames()}
	ms, err := c.wrapper.DoPROPFIND(ctx, c.account.HomeURL, "1", req.ToXML())
	if err != nil {
		return nil, err
	}

	var calendars []Calendar
	for _, resp := range ms.Responses {
		resourceTypes := propChildNames(resp, "resourcetype")
		if !containsString(resourceTypes, "calendar") {
			continue
		}
		components := componentNames(resp)
		if !intersectsKnownComponents(components) {
			continue
		}

		cal := Calendar{
			Collection: Collection{
				URL:          resolveHref(c.account.RootURL, resp.Href),
				CTag:         propText(resp, "getctag"),
				SyncToken:    propText(resp, "syncToken"),
				DisplayName:  propText(resp, "displayname"),
				ResourceType: resourceTypes,
			},
			Description: propText(resp, "calendarDescription"),
			Timezone:    propText(resp, "calendarTimezone"),
			Color:       propText(resp, "calendarColor"),
			Components:  components,
		}
		calendars = append(calendars, cal)
	}

	err = fanOut(len(calendars), func(i int) error {
		reports, err := c.SupportedReportSet(ctx, calendars[i].URL)
		if err != nil {
			return err
		}
		calendars[i].Reports = reports
		return nil
	})
	if err != nil {
		return nil, err
	}
	return calendars, nil
}

func (c *Client) requireHome() error {
	var missing []string
	if c.account.HomeURL == "" {
		missing = append(missing, "homeUrl")
	}
	if c.account.RootURL == "" {
		missing = append(missing, "rootUrl")
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}

func propText(resp DAVResponse, name string) string {
	if prop, ok := resp.Props[name]; ok {
		return prop.Text()
	}
	return ""
}

func propChildNames(resp DAVResponse, name string) []string {
	if prop, ok := resp.Props[name]; ok {
		return prop.ChildNames()
	}
	return nil
}

// componentNames pulls the comp name attributes out of
// supported-calendar-component-set.
func componentNames(resp DAVResponse) []string {
	prop, ok := resp.Props["supportedCalendarComponentSet"]
	if !ok {
		return nil
	}
	var names []string
	for _, comp := range prop.FindAll("comp") {
		if name := comp.GetAttr("name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func intersectsKnownComponents(components []string) bool {
	for _, comp := range components {
		if isKnownComponent(comp) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// FetchObjectsOptions tunes FetchCalendarObjects and FetchVCards. The
// zero value (or nil pointer) queries everything with the defaults.
type FetchObjectsOptions struct {
	// ObjectURLs skips the query stage and multigets exactly these URLs.
	ObjectURLs []string
	// Filters replaces the default query filter tree.
	Filters []Property
	// TimeRange narrows the default VEVENT filter.
	TimeRange *TimeRange
	// Expand asks the server to expand recurrences inside TimeRange.
	Expand bool
	// URLFilter drops hrefs before the multiget. Defaults to requiring
	// the payload extension (".ics" / ".vcf").
	URLFilter func(url string) bool
}

// FetchCalendarObjects fetches the calendar's objects: a calendar-query
// collects hrefs (unless ObjectURLs pins them), then a calendar-multiget
// retrieves etag and payload for each.
func (c *Client) FetchCalendarObjects(ctx context.Context, calendar Calendar, opts *FetchObjectsOptions) ([]CalendarObject, error) {
	if opts == nil {
		opts = &FetchObjectsOptions{}
	}
	if opts.TimeRange != nil {
		if err := opts.TimeRange.validate(); err != nil {
			return nil, err
		}
	}

	hrefs := opts.ObjectURLs
	if hrefs == nil {
		filters := opts.Filters
		if filters == nil {
			filters = defaultCalendarFilters(opts.TimeRange)
		}
		query := davxml.CalendarQueryRequest{
			Props:   davxml.PropNames("d:getetag"),
			Filters: filters,
		}
		responses, err := c.CollectionQuery(ctx, calendar.URL, query.ToXML(), "1")
		if err != nil {
			return nil, err
		}
		for _, resp := range responses {
			hrefs = append(hrefs, resp.Href)
		}
	}

	urlFilter := opts.URLFilter
	if urlFilter == nil {
		urlFilter = func(u string) bool { return strings.Contains(u, ".ics") }
	}

	var paths []string
	for _, href := range hrefs {
		if href == "" {
			continue
		}
		full := href
		if !strings.HasPrefix(full, "http") {
			full = resolveHref(calendar.URL, full)
		}
		if !urlFilter(full) {
			continue
		}
		paths = append(paths, pathname(full))
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return c.calendarMultiGet(ctx, calendar, paths, opts)
}

func defaultCalendarFilters(tr *TimeRange) []Property {
	event := Property{Name: "c:comp-filter", Attributes: map[string]string{"name": "VEVENT"}}
	if tr != nil {
		wire := tr.wire()
		event.Children = append(event.Children, Property{
			Name:       "c:time-range",
			Attributes: map[string]string{"start": wire.Start, "end": wire.End},
		})
	}
	return []Property{{
		Name:       "c:comp-filter",
		Attributes: map[string]string{"name": "VCALENDAR"},
		Children:   []Property{event},
	}}
}

// calendarMultiGet fetches etag and calendar-data for the given hrefs in
// one REPORT round trip.
func (c *Client) calendarMultiGet(ctx context.Context, calendar Calendar, hrefs []string, opts *FetchObjectsOptions) ([]CalendarObject, error) {
	calendarData := Property{Name: "c:calendar-data"}
	if opts != nil && opts.Expand && opts.TimeRange != nil {
		wire := opts.TimeRange.wire()
		calendarData.Children = append(calendarData.Children, Property{
			Name:       "c:expand",
			Attributes: map[string]string{"start": wire.Start, "end": wire.End},
		})
	}

	req := davxml.CalendarMultigetRequest{
		Props: []Property{davxml.Prop("d:getetag"), calendarData},
		Hrefs: hrefs,
	}
	responses, err := c.CollectionQuery(ctx, calendar.URL, req.ToXML(), "1")
	if err != nil {
		return nil, err
	}

	objects := make([]CalendarObject, 0, len(responses))
	for _, resp := range responses {
		objects = append(objects, CalendarObject{
			URL:  resolveHref(calendar.URL, resp.Href),
			ETag: propText(resp, "getetag"),
			Data: propText(resp, "calendarData"),
		})
	}
	return objects, nil
}

// FreeBusyQuery issues a free-busy-query REPORT for the given range and
// returns the server's sole response.
func (c *Client) FreeBusyQuery(ctx context.Context, url string, timeRange TimeRange) (*DAVResponse, error) {
	if err := timeRange.validate(); err != nil {
		return nil, err
	}
	req := davxml.FreeBusyQueryRequest{TimeRange: timeRange.wire()}
	ms, err := c.wrapper.DoREPORT(ctx, url, "0", req.ToXML())
	if err != nil {
		return nil, err
	}
	if len(ms.Responses) == 0 {
		return nil, nil
	}
	return &ms.Responses[0], nil
}
