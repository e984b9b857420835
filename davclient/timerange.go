package davclient

import (
	"regexp"
	"time"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// TimeRange bounds a query. Both endpoints are ISO-8601 strings, either a
// full datetime ("2024-01-01T00:00:00Z", fraction and offset optional) or
// a bare date ("2024-01-01").
type TimeRange struct {
	Start string
	End   string
}

var (
	isoDateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func isISO8601(s string) bool {
	return isoDateTimeRe.MatchString(s) || isoDateRe.MatchString(s)
}

func (tr TimeRange) validate() error {
	if !isISO8601(tr.Start) || !isISO8601(tr.End) {
		return &InvalidTimeRangeError{Start: tr.Start, End: tr.End}
	}
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// toBasic converts an accepted ISO-8601 string to the compressed UTC wire
// format CalDAV time-range attributes use.
func toBasic(iso string) string {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.UTC().Format("20060102T150405Z")
		}
	}
	return iso
}

// wire converts a validated range to the codec's wire representation.
func (tr TimeRange) wire() davxml.TimeRange {
	return davxml.TimeRange{Start: toBasic(tr.Start), End: toBasic(tr.End)}
}
