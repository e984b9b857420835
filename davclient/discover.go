package davclient

import (
	"context"
	"fmt"
	"net/url"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// serviceDiscovery probes the account type's .well-known URL with
// redirects disabled and resolves a 3xx Location against the original
// endpoint. Discovery failures are recovered locally: the server URL is
// used as the root and the probe result is only logged.
func (c *Client) serviceDiscovery(ctx context.Context) (string, error) {
	endpoint, err := url.Parse(c.account.ServerURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server url: %w", err)
	}

	wellKnown := *endpoint
	wellKnown.Path = "/.well-known/" + string(c.account.AccountType)

	res, err := c.wrapper.DoNoRedirect(ctx, "PROPFIND", wellKnown.String(), "0", nil)
	if err != nil {
		c.logger.Debug("service discovery failed, falling back to server url", "error", err)
		return c.account.ServerURL, nil
	}

	if res.Status >= 300 && res.Status < 400 && res.Location != "" {
		serviceURL, err := url.Parse(res.Location)
		if err != nil {
			c.logger.Debug("service discovery returned an unparseable location", "location", res.Location)
			return c.account.ServerURL, nil
		}
		resolved := endpoint.ResolveReference(serviceURL)
		// Redirects that name the same host but drop the port keep the
		// original port; the scheme always stays the caller's.
		if resolved.Hostname() == wellKnown.Hostname() && wellKnown.Port() != "" && resolved.Port() == "" {
			resolved.Host = resolved.Hostname() + ":" + wellKnown.Port()
		}
		resolved.Scheme = endpoint.Scheme
		return resolved.String(), nil
	}

	return c.account.ServerURL, nil
}

// fetchPrincipalURL looks up d:current-user-principal on the root URL.
func (c *Client) fetchPrincipalURL(ctx context.Context) (string, error) {
	req := davxml.PropfindRequest{Props: davxml.PropNames("d:current-user-principal")}
	ms, err := c.wrapper.DoPROPFIND(ctx, c.account.RootURL, "0", req.ToXML())
	if err != nil {
		return "", err
	}
	if len(ms.Responses) == 0 {
		return "", fmt.Errorf("empty principal response")
	}

	resp := ms.Responses[0]
	if !resp.Ok && resp.Status == 401 {
		return "", ErrInvalidCredentials
	}

	href := ""
	if prop, ok := resp.Props["currentUserPrincipal"]; ok {
		href = prop.Href()
	}
	principalURL := resolveHref(c.account.RootURL, href)
	c.logger.Debug("found principal url", "url", principalURL)
	return principalURL, nil
}

// fetchHomeURL looks up the calendar or address-book home set on the
// principal URL.
func (c *Client) fetchHomeURL(ctx context.Context) (string, error) {
	propName := "c:calendar-home-set"
	if c.account.AccountType == AccountTypeCardDAV {
		propName = "card:addressbook-home-set"
	}

	req := davxml.PropfindRequest{Props: davxml.PropNames(propName)}
	ms, err := c.wrapper.DoPROPFIND(ctx, c.account.PrincipalURL, "0", req.ToXML())
	if err != nil {
		return "", err
	}

	for _, resp := range ms.Responses {
		if !URLContains(c.account.PrincipalURL, resp.Href) || !resp.Ok {
			continue
		}
		href := ""
		if prop, ok := resp.Props[c.account.AccountType.homeSetPropName()]; ok {
			href = prop.Href()
		}
		homeURL := resolveHref(c.account.RootURL, href)
		c.logger.Debug("found home url", "url", homeURL)
		return homeURL, nil
	}
	return "", ErrHomeURLNotFound
}
