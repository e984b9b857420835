package xml

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/beevik/etree"
	"github.com/samber/mo"
)

// Per-property errors surfaced through PropResults.
var (
	ErrPropNotFound  = errors.New("HTTP 404: property not found")
	ErrPropForbidden = errors.New("HTTP 403: forbidden access to the property")
	ErrPropInternal  = errors.New("HTTP 500: internal server error")
)

// Multistatus is a decoded multistatus document. SyncToken is set when the
// response came from a sync-collection REPORT.
type Multistatus struct {
	SyncToken string
	Responses []Response
}

// PropStat is one propstat block of a response, before flattening.
type PropStat struct {
	Status     int
	StatusText string
	Props      map[string]Property
}

// Response is the uniform per-resource envelope every DAV operation
// returns. Props flattens all propstat blocks into one map keyed by
// camelCased property name; later blocks win on collision. PropStats and
// Raw keep the structure the flatten loses.
type Response struct {
	Href                string
	Status              int
	StatusText          string
	Ok                  bool
	Error               string
	ResponseDescription string
	Props               map[string]Property
	PropStats           []PropStat
	Raw                 *etree.Element
	RawBody             string
}

// HasProp reports whether a property came back under the given camelCased
// name.
func (r *Response) HasProp(name string) bool {
	_, ok := r.Props[name]
	return ok
}

// PropResults returns every property keyed by name, wrapped in a result
// that reflects the status of the propstat block it arrived in. Properties
// from non-2xx blocks carry the matching error.
func (r *Response) PropResults() map[string]mo.Result[Property] {
	out := make(map[string]mo.Result[Property])
	for _, ps := range r.PropStats {
		for name, prop := range ps.Props {
			if ps.Status == 0 || (ps.Status >= 200 && ps.Status < 300) {
				out[name] = mo.Ok(prop)
				continue
			}
			out[name] = mo.Err[Property](propStatusError(ps))
		}
	}
	return out
}

func propStatusError(ps PropStat) error {
	switch ps.Status {
	case 404:
		return ErrPropNotFound
	case 403:
		return ErrPropForbidden
	case 500:
		return ErrPropInternal
	default:
		return fmt.Errorf("HTTP %d: %s", ps.Status, ps.StatusText)
	}
}

// Matches e.g. "HTTP/1.1 404 Not Found".
var statusLineRe = regexp.MustCompile(`^\S+\s(?P<status>\d+)\s(?P<statusText>.+)$`)

func parseStatusLine(line string, fallbackStatus int, fallbackText string) (int, string) {
	if m := statusLineRe.FindStringSubmatch(line); m != nil {
		status, err := strconv.Atoi(m[1])
		if err == nil {
			return status, m[2]
		}
	}
	return fallbackStatus, fallbackText
}

// ParseMultistatus decodes a multistatus body into the normalized response
// list. A body that is not XML, or not a multistatus document, yields a
// single synthetic response carrying the transport status and the body as
// text.
func ParseMultistatus(body []byte, fallbackStatus int, fallbackStatusText, requestURL string) *Multistatus {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil || doc.Root().Tag != TagMultistatus {
		return &Multistatus{Responses: []Response{{
			Href:       requestURL,
			Status:     fallbackStatus,
			StatusText: fallbackStatusText,
			Ok:         fallbackStatus >= 200 && fallbackStatus < 400,
			RawBody:    string(body),
		}}}
	}

	root := doc.Root()
	ms := &Multistatus{}

	if tokenElem := root.SelectElement("sync-token"); tokenElem != nil {
		ms.SyncToken = tokenElem.Text()
	}

	for _, respElem := range root.SelectElements(TagResponse) {
		resp := Response{
			Status:     fallbackStatus,
			StatusText: fallbackStatusText,
			Props:      make(map[string]Property),
			Raw:        respElem,
		}

		if hrefElem := respElem.SelectElement(TagHref); hrefElem != nil {
			resp.Href = hrefElem.Text()
		}
		if statusElem := respElem.SelectElement(TagStatus); statusElem != nil {
			resp.Status, resp.StatusText = parseStatusLine(statusElem.Text(), fallbackStatus, fallbackStatusText)
		}
		if descElem := respElem.SelectElement("responsedescription"); descElem != nil {
			resp.ResponseDescription = descElem.Text()
		}
		if errorElem := respElem.SelectElement(TagError); errorElem != nil {
			if children := errorElem.ChildElements(); len(children) > 0 {
				resp.Error = CamelCase(children[0].Tag)
			} else {
				resp.Error = errorElem.Text()
			}
		}

		for _, propstatElem := range respElem.SelectElements(TagPropstat) {
			ps := PropStat{Props: make(map[string]Property)}
			if statusElem := propstatElem.SelectElement(TagStatus); statusElem != nil {
				ps.Status, ps.StatusText = parseStatusLine(statusElem.Text(), 0, "")
			}
			if propElem := propstatElem.SelectElement(TagProp); propElem != nil {
				for _, child := range propElem.ChildElements() {
					prop := Property{}
					prop.FromElement(child)
					ps.Props[prop.Name] = prop
				}
			}
			resp.PropStats = append(resp.PropStats, ps)
			for name, prop := range ps.Props {
				resp.Props[name] = prop
			}
		}

		resp.Ok = resp.Error == ""
		ms.Responses = append(ms.Responses, resp)
	}

	return ms
}
