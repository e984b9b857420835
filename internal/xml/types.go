package xml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Common XML tag names used in WebDAV
const (
	TagPropfind    = "propfind"
	TagProp        = "prop"
	TagMultistatus = "multistatus"
	TagResponse    = "response"
	TagHref        = "href"
	TagPropstat    = "propstat"
	TagStatus      = "status"
	TagError       = "error"
	TagSet         = "set"
)

// Property is a dynamic XML element tree. On the request side Name may
// carry a namespace prefix ("c:calendar-data"); on the response side Name
// is the camelCased local name with the prefix stripped.
type Property struct {
	Name        string
	TextContent string
	CData       string
	Attributes  map[string]string
	Children    []Property
}

// Prop is shorthand for a named empty property request.
func Prop(name string) Property {
	return Property{Name: name}
}

// PropNames builds a property list from plain names.
func PropNames(names ...string) []Property {
	props := make([]Property, 0, len(names))
	for _, name := range names {
		props = append(props, Property{Name: name})
	}
	return props
}

// ToElement renders the property under parent, applying defaultPrefix to
// every name that does not already carry one.
func (p *Property) ToElement(parent *etree.Element, defaultPrefix string) *etree.Element {
	elem := CreateElement(parent, p.Name, defaultPrefix)
	for key, value := range p.Attributes {
		elem.CreateAttr(key, value)
	}
	if p.CData != "" {
		elem.CreateCData(p.CData)
	} else if p.TextContent != "" {
		elem.SetText(p.TextContent)
	}
	for i := range p.Children {
		p.Children[i].ToElement(elem, defaultPrefix)
	}
	return elem
}

// FromElement populates a Property from a decoded element. Local names are
// camelCased and namespace prefixes dropped.
func (p *Property) FromElement(elem *etree.Element) {
	p.Name = CamelCase(elem.Tag)
	p.TextContent = ""
	p.CData = ""
	p.Children = nil
	p.Attributes = nil

	for _, attr := range elem.Attr {
		if attr.Space == "xmlns" || attr.Key == "xmlns" {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		p.Attributes[attr.Key] = attr.Value
	}

	for _, token := range elem.Child {
		if cd, ok := token.(*etree.CharData); ok {
			if cd.IsCData() {
				p.CData += cd.Data
			} else {
				p.TextContent += cd.Data
			}
		}
	}
	p.TextContent = strings.TrimSpace(p.TextContent)

	for _, child := range elem.ChildElements() {
		childProp := Property{}
		childProp.FromElement(child)
		p.Children = append(p.Children, childProp)
	}
}

// Text returns the CDATA content if present, otherwise the character data.
func (p Property) Text() string {
	if p.CData != "" {
		return p.CData
	}
	return p.TextContent
}

// Value returns the coerced scalar content of a leaf property.
func (p Property) Value() any {
	return CoerceText(p.Text())
}

// Href returns the text of the first href child, falling back to the
// property's own text. Properties like current-user-principal and
// calendar-home-set wrap their value in <d:href>.
func (p Property) Href() string {
	if child, ok := p.Find(TagHref); ok {
		return child.Text()
	}
	return p.Text()
}

// Find returns the first child with the given (camelCased) name.
func (p Property) Find(name string) (Property, bool) {
	for _, child := range p.Children {
		if child.Name == name {
			return child, true
		}
	}
	return Property{}, false
}

// FindAll returns every child with the given (camelCased) name.
func (p Property) FindAll(name string) []Property {
	var out []Property
	for _, child := range p.Children {
		if child.Name == name {
			out = append(out, child)
		}
	}
	return out
}

// ChildNames returns the camelCased names of all children, in order.
func (p Property) ChildNames() []string {
	names := make([]string, 0, len(p.Children))
	for _, child := range p.Children {
		names = append(names, child.Name)
	}
	return names
}

// GetAttr returns the value of an attribute, or empty string if not found.
func (p Property) GetAttr(name string) string {
	return p.Attributes[name]
}

// CamelCase lowercases an element local name and camelCases it across
// hyphens and underscores: "calendar-home-set" becomes "calendarHomeSet".
func CamelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		b.WriteString(strings.ToUpper(lower[:1]))
		b.WriteString(lower[1:])
	}
	return b.String()
}

// CoerceText converts decoded character data to its natural scalar type:
// decimal strings become numbers, "true"/"false" become booleans, and
// everything else stays a string.
func CoerceText(s string) any {
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
