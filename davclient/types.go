package davclient

import (
	davxml "github.com/benfviney/tsdav/internal/xml"
)

// AccountType selects between the two DAV flavors.
type AccountType string

const (
	AccountTypeCalDAV  AccountType = "caldav"
	AccountTypeCardDAV AccountType = "carddav"
)

// objectExtension returns the resource filename extension the sync engine
// partitions hrefs by.
func (t AccountType) objectExtension() string {
	if t == AccountTypeCardDAV {
		return ".vcf"
	}
	return ".ics"
}

// homeSetPropName returns the camelCased name of the home-set property
// for this account type.
func (t AccountType) homeSetPropName() string {
	if t == AccountTypeCardDAV {
		return "addressbookHomeSet"
	}
	return "calendarHomeSet"
}

// Account describes one server-side account. The three discovered URLs
// are filled in by CreateAccount; ServerURL is the only required input.
type Account struct {
	AccountType  AccountType
	ServerURL    string
	RootURL      string
	PrincipalURL string
	HomeURL      string

	Calendars    []Calendar
	AddressBooks []AddressBook
}

// AuthMethod selects the credential flavor.
type AuthMethod string

const (
	AuthMethodBasic AuthMethod = "Basic"
	AuthMethodOAuth AuthMethod = "Oauth"
)

// Credentials holds either Basic or OAuth credentials. When AuthMethod is
// empty it is inferred: a username means Basic, otherwise OAuth.
type Credentials struct {
	AuthMethod AuthMethod

	Username string
	Password string

	TokenURL          string
	ClientID          string
	ClientSecret      string
	AuthorizationCode string
	RedirectURL       string
	AccessToken       string
	RefreshToken      string
	Expiration        int64
}

func (c Credentials) method() AuthMethod {
	if c.AuthMethod != "" {
		return c.AuthMethod
	}
	if c.Username != "" {
		return AuthMethodBasic
	}
	return AuthMethodOAuth
}

// Collection is the common base of calendars and address books. Sync
// calls never mutate a collection in place; they return a new value with
// a refreshed CTag/SyncToken and Objects snapshot.
type Collection struct {
	URL          string
	CTag         string
	SyncToken    string
	DisplayName  string
	ResourceType []string
	Reports      []string
	Objects      []DAVObject
}

// SupportsSyncCollection reports whether the server advertised the
// sync-collection REPORT for this collection.
func (c Collection) SupportsSyncCollection() bool {
	for _, report := range c.Reports {
		if report == reportSyncCollection {
			return true
		}
	}
	return false
}

const reportSyncCollection = "syncCollection"

// Calendar is a CalDAV collection.
type Calendar struct {
	Collection
	Description string
	Timezone    string
	Color       string
	Components  []string
}

// AddressBook is a CardDAV collection.
type AddressBook struct {
	Collection
}

// DAVObject is a member resource of a collection. Data is the raw payload
// and is never interpreted by the core; ETag is the sole per-object
// change witness.
type DAVObject struct {
	URL  string
	ETag string
	Data string
}

// CalendarObject is a DAVObject whose Data is iCalendar text.
type CalendarObject = DAVObject

// VCard is a DAVObject whose Data is vCard text.
type VCard = DAVObject

// DAVResponse is the uniform per-resource response envelope.
type DAVResponse = davxml.Response

// Property re-exports the codec's dynamic element tree for callers who
// build custom prop sets or filters.
type Property = davxml.Property

// KnownComponents is the component set a calendar must intersect to be
// considered iCalendar-format.
var KnownComponents = []string{"VEVENT", "VTODO", "VJOURNAL", "VFREEBUSY", "VTIMEZONE", "VALARM"}

func isKnownComponent(name string) bool {
	for _, c := range KnownComponents {
		if c == name {
			return true
		}
	}
	return false
}
