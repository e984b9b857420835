package davclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benfviney/tsdav/internal/httpclient"
)

var (
	// ErrInvalidCredentials is returned when the server rejects the
	// principal lookup with HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrHomeURLNotFound is returned when no response of the home-set
	// lookup matches the principal URL.
	ErrHomeURLNotFound = errors.New("home url not found")

	// ErrCollectionNotFound is returned when a ctag probe has no
	// response matching the collection URL.
	ErrCollectionNotFound = errors.New("collection not found")
)

// ErrOAuthFetchFailed re-exports the transport-level token endpoint
// failure so callers can match it without importing internal packages.
var ErrOAuthFetchFailed = httpclient.ErrOAuthFetchFailed

// OAuthConfigError re-exports the transport-level incomplete-config error.
type OAuthConfigError = httpclient.OAuthConfigError

// MissingFieldError reports required account or collection fields that
// were absent.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidTimeRangeError reports a time range whose endpoints are not
// ISO-8601.
type InvalidTimeRangeError struct {
	Start string
	End   string
}

func (e *InvalidTimeRangeError) Error() string {
	return fmt.Sprintf("invalid time range: start=%q end=%q", e.Start, e.End)
}
