package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrOAuthFetchFailed is returned when the token endpoint answers with a
// non-2xx status.
var ErrOAuthFetchFailed = errors.New("oauth token endpoint returned an error")

// OAuthConfigError reports the missing fields of an incomplete OAuth
// configuration.
type OAuthConfigError struct {
	Missing []string
}

func (e *OAuthConfigError) Error() string {
	return fmt.Sprintf("oauth config missing fields: %s", strings.Join(e.Missing, ", "))
}

// OAuthCredentials holds the token endpoint configuration plus the mutable
// token state. Expiration is epoch milliseconds.
type OAuthCredentials struct {
	TokenURL          string
	ClientID          string
	ClientSecret      string
	AuthorizationCode string
	RedirectURL       string

	AccessToken  string
	RefreshToken string
	Expiration   int64
}

// OAuthTransport implements http.RoundTripper. It injects a Bearer access
// token and keeps it fresh: the first request exchanges the authorization
// code, later requests refresh when the token has expired. Refresh is
// single-flight; concurrent requests with an expired token trigger one
// token POST, not many.
type OAuthTransport struct {
	Transport http.RoundTripper
	Logger    *slog.Logger

	mu          sync.Mutex
	creds       OAuthCredentials
	tokenClient *http.Client
	now         func() time.Time
}

// NewOAuthTransport creates an OAuthTransport around creds. If transport
// is nil, http.DefaultTransport is used.
func NewOAuthTransport(creds OAuthCredentials, transport http.RoundTripper, logger *slog.Logger) *OAuthTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OAuthTransport{
		Transport:   transport,
		Logger:      logger,
		creds:       creds,
		tokenClient: http.DefaultClient,
		now:         time.Now,
	}
}

// Credentials returns a snapshot of the current token state, so callers
// can persist refreshed tokens.
func (t *OAuthTransport) Credentials() OAuthCredentials {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.creds
}

// RoundTrip implements the http.RoundTripper interface.
func (t *OAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.accessToken(req.Context())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return t.Transport.RoundTrip(req)
}

// accessToken returns a valid access token, fetching or refreshing one
// when needed.
func (t *OAuthTransport) accessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.creds.RefreshToken == "":
		t.Logger.Debug("fetching oauth tokens with authorization code")
		if err := t.fetchTokens(ctx); err != nil {
			return "", err
		}
	case t.creds.AccessToken == "" || t.now().UnixMilli() > t.creds.Expiration:
		t.Logger.Debug("refreshing expired oauth access token")
		if err := t.refreshAccessToken(ctx); err != nil {
			return "", err
		}
	}
	return t.creds.AccessToken, nil
}

func (t *OAuthTransport) fetchTokens(ctx context.Context) error {
	var missing []string
	if t.creds.TokenURL == "" {
		missing = append(missing, "tokenUrl")
	}
	if t.creds.ClientID == "" {
		missing = append(missing, "clientId")
	}
	if t.creds.ClientSecret == "" {
		missing = append(missing, "clientSecret")
	}
	if t.creds.AuthorizationCode == "" {
		missing = append(missing, "authorizationCode")
	}
	if t.creds.RedirectURL == "" {
		missing = append(missing, "redirectUrl")
	}
	if len(missing) > 0 {
		return &OAuthConfigError{Missing: missing}
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {t.creds.AuthorizationCode},
		"redirect_uri":  {t.creds.RedirectURL},
		"client_id":     {t.creds.ClientID},
		"client_secret": {t.creds.ClientSecret},
	}
	return t.postTokenEndpoint(ctx, form)
}

func (t *OAuthTransport) refreshAccessToken(ctx context.Context) error {
	var missing []string
	if t.creds.TokenURL == "" {
		missing = append(missing, "tokenUrl")
	}
	if t.creds.ClientID == "" {
		missing = append(missing, "clientId")
	}
	if t.creds.ClientSecret == "" {
		missing = append(missing, "clientSecret")
	}
	if t.creds.RefreshToken == "" {
		missing = append(missing, "refreshToken")
	}
	if len(missing) > 0 {
		return &OAuthConfigError{Missing: missing}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {t.creds.RefreshToken},
		"client_id":     {t.creds.ClientID},
		"client_secret": {t.creds.ClientSecret},
	}
	return t.postTokenEndpoint(ctx, form)
}

func (t *OAuthTransport) postTokenEndpoint(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.tokenClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.Logger.Debug("token endpoint error",
			"status", resp.Status,
			"body", string(body))
		return fmt.Errorf("%w: HTTP %d", ErrOAuthFetchFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	t.creds.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		t.creds.RefreshToken = payload.RefreshToken
	}
	if payload.ExpiresIn > 0 {
		t.creds.Expiration = t.now().UnixMilli() + payload.ExpiresIn*1000
	}
	t.Logger.Debug("oauth tokens updated",
		"expiration", t.creds.Expiration)
	return nil
}
