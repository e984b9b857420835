package davclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/benfviney/tsdav/internal/httpclient"
)

// Client binds an account, its credentials and a transport into the
// CalDAV/CardDAV operations. All mutation of account state happens through
// CreateAccount; every other operation treats the account as read-only.
type Client struct {
	wrapper  httpclient.Wrapper
	account  Account
	fetcher  ObjectFetcher
	logger   *slog.Logger
	proxyURL string
}

type clientOptions struct {
	httpClient *http.Client
	transport  http.RoundTripper
	logger     *slog.Logger
	proxyURL   string
	fetcher    ObjectFetcher
	wrapper    httpclient.Wrapper
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHTTPClient supplies the underlying HTTP client. Its transport is
// wrapped with the auth transport derived from the credentials.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger supplies a logger for debug tracing. Correctness never
// depends on it.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithProxyURL prefixes every outbound request URL with proxyURL. The
// proxy is expected to forward to the true URL embedded in the suffix.
func WithProxyURL(proxyURL string) Option {
	return func(o *clientOptions) { o.proxyURL = proxyURL }
}

// WithObjectFetcher overrides the object-level operations the sync engine
// uses. Mainly useful in tests.
func WithObjectFetcher(f ObjectFetcher) Option {
	return func(o *clientOptions) { o.fetcher = f }
}

// withWrapper replaces the transport wrapper wholesale (tests only).
func withWrapper(w httpclient.Wrapper) Option {
	return func(o *clientOptions) { o.wrapper = w }
}

// New creates a client for the given account and credentials.
func New(account Account, creds Credentials, opts ...Option) (*Client, error) {
	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		account:  account,
		logger:   logger,
		proxyURL: options.proxyURL,
	}
	c.fetcher = options.fetcher
	if c.fetcher == nil {
		c.fetcher = defaultFetcher{client: c}
	}

	if options.wrapper != nil {
		c.wrapper = options.wrapper
		return c, nil
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	switch creds.method() {
	case AuthMethodBasic:
		httpClient.Transport = httpclient.NewBasicAuthTransport(creds.Username, creds.Password, base, logger)
	case AuthMethodOAuth:
		httpClient.Transport = httpclient.NewOAuthTransport(httpclient.OAuthCredentials{
			TokenURL:          creds.TokenURL,
			ClientID:          creds.ClientID,
			ClientSecret:      creds.ClientSecret,
			AuthorizationCode: creds.AuthorizationCode,
			RedirectURL:       creds.RedirectURL,
			AccessToken:       creds.AccessToken,
			RefreshToken:      creds.RefreshToken,
			Expiration:        creds.Expiration,
		}, base, logger)
	}

	baseURL, err := url.Parse(account.ServerURL)
	if err != nil {
		return nil, err
	}
	c.wrapper = httpclient.NewWrapper(httpClient, *baseURL, options.proxyURL, logger)
	return c, nil
}

// Account returns the client's current account snapshot.
func (c *Client) Account() Account {
	return c.account
}

// CreateAccountOptions controls how much of the account is populated
// during bootstrap.
type CreateAccountOptions struct {
	// LoadCollections fetches the account's calendars or address books
	// after discovery.
	LoadCollections bool
	// LoadObjects additionally fetches every collection's objects, in
	// parallel. Implies LoadCollections.
	LoadObjects bool
}

// CreateAccount bootstraps the account: service discovery, principal
// lookup, home-set lookup, then optional collection and object loading.
// The three discovery steps are strictly sequential; each consumes the
// previous output.
func (c *Client) CreateAccount(ctx context.Context, opts CreateAccountOptions) (Account, error) {
	rootURL, err := c.serviceDiscovery(ctx)
	if err != nil {
		return c.account, err
	}
	c.account.RootURL = rootURL

	principalURL, err := c.fetchPrincipalURL(ctx)
	if err != nil {
		return c.account, err
	}
	c.account.PrincipalURL = principalURL

	homeURL, err := c.fetchHomeURL(ctx)
	if err != nil {
		return c.account, err
	}
	c.account.HomeURL = homeURL

	if !opts.LoadCollections && !opts.LoadObjects {
		return c.account, nil
	}

	switch c.account.AccountType {
	case AccountTypeCardDAV:
		books, err := c.FetchAddressBooks(ctx)
		if err != nil {
			return c.account, err
		}
		if opts.LoadObjects {
			if err := c.loadAddressBookObjects(ctx, books); err != nil {
				return c.account, err
			}
		}
		c.account.AddressBooks = books
	default:
		calendars, err := c.FetchCalendars(ctx)
		if err != nil {
			return c.account, err
		}
		if opts.LoadObjects {
			if err := c.loadCalendarObjects(ctx, calendars); err != nil {
				return c.account, err
			}
		}
		c.account.Calendars = calendars
	}
	return c.account, nil
}

func (c *Client) loadCalendarObjects(ctx context.Context, calendars []Calendar) error {
	return fanOut(len(calendars), func(i int) error {
		objects, err := c.FetchCalendarObjects(ctx, calendars[i], nil)
		if err != nil {
			return err
		}
		calendars[i].Objects = objects
		return nil
	})
}

func (c *Client) loadAddressBookObjects(ctx context.Context, books []AddressBook) error {
	return fanOut(len(books), func(i int) error {
		objects, err := c.FetchVCards(ctx, books[i], nil)
		if err != nil {
			return err
		}
		books[i].Objects = objects
		return nil
	})
}

// fanOut runs fn for every index in parallel and returns the first error.
func fanOut(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return firstErr
}
