package davclient

import (
	"context"
	"strings"

	davxml "github.com/benfviney/tsdav/internal/xml"
)

// SyncMethod selects the reconciliation strategy.
type SyncMethod string

const (
	// SyncMethodWebDAV reconciles with sync-collection tokens (RFC 6578).
	SyncMethodWebDAV SyncMethod = "webdav"
	// SyncMethodBasic reconciles by comparing ctags and full fetches.
	SyncMethodBasic SyncMethod = "basic"
	// SyncMethodAuto picks webdav when the collection advertises the
	// sync-collection report, basic otherwise.
	SyncMethodAuto SyncMethod = ""
)

// ObjectFetcher supplies the object-level operations the sync engine
// needs. The client is its own default fetcher; tests and callers with
// exotic servers can substitute their own.
type ObjectFetcher interface {
	// MultiGet fetches full objects for the given hrefs.
	MultiGet(ctx context.Context, collection Collection, hrefs []string) ([]DAVObject, error)
	// FetchObjects fetches the collection's complete object set.
	FetchObjects(ctx context.Context, collection Collection) ([]DAVObject, error)
}

type defaultFetcher struct {
	client *Client
}

func (f defaultFetcher) MultiGet(ctx context.Context, collection Collection, hrefs []string) ([]DAVObject, error) {
	if f.client.account.AccountType == AccountTypeCardDAV {
		return f.client.addressBookMultiGet(ctx, AddressBook{Collection: collection}, hrefs)
	}
	return f.client.calendarMultiGet(ctx, Calendar{Collection: collection}, hrefs, nil)
}

func (f defaultFetcher) FetchObjects(ctx context.Context, collection Collection) ([]DAVObject, error) {
	if f.client.account.AccountType == AccountTypeCardDAV {
		return f.client.FetchVCards(ctx, AddressBook{Collection: collection}, nil)
	}
	return f.client.FetchCalendarObjects(ctx, Calendar{Collection: collection}, nil)
}

// SyncDiff partitions a collection's objects after a sync pass. Created,
// Updated and Deleted never overlap; Unchanged ∪ Created ∪ Updated is the
// collection's new snapshot.
type SyncDiff struct {
	Created   []DAVObject
	Updated   []DAVObject
	Deleted   []DAVObject
	Unchanged []DAVObject
}

func (d SyncDiff) merged() []DAVObject {
	merged := make([]DAVObject, 0, len(d.Unchanged)+len(d.Created)+len(d.Updated))
	merged = append(merged, d.Unchanged...)
	merged = append(merged, d.Created...)
	merged = append(merged, d.Updated...)
	return merged
}

// SmartCollectionSync reconciles the collection with the server and
// returns a new collection value with a refreshed change witness and
// objects snapshot. The input is never mutated. When the server reports
// no changes the input collection is returned as-is.
func (c *Client) SmartCollectionSync(ctx context.Context, collection Collection, method SyncMethod) (Collection, error) {
	newCollection, diff, changed, err := c.smartSync(ctx, collection, method)
	if err != nil {
		return collection, err
	}
	if !changed {
		return collection, nil
	}
	newCollection.Objects = diff.merged()
	return newCollection, nil
}

// SmartCollectionSyncDetailed is SmartCollectionSync returning the diff
// instead of folding it into the objects snapshot.
func (c *Client) SmartCollectionSyncDetailed(ctx context.Context, collection Collection, method SyncMethod) (Collection, SyncDiff, error) {
	newCollection, diff, changed, err := c.smartSync(ctx, collection, method)
	if err != nil {
		return collection, SyncDiff{}, err
	}
	if !changed {
		return collection, SyncDiff{}, nil
	}
	return newCollection, diff, nil
}

func (c *Client) smartSync(ctx context.Context, collection Collection, method SyncMethod) (Collection, SyncDiff, bool, error) {
	var missing []string
	if c.account.AccountType == "" {
		missing = append(missing, "accountType")
	}
	if c.account.HomeURL == "" {
		missing = append(missing, "homeUrl")
	}
	if len(missing) > 0 {
		return collection, SyncDiff{}, false, &MissingFieldError{Fields: missing}
	}

	if method == SyncMethodAuto {
		if collection.SupportsSyncCollection() {
			method = SyncMethodWebDAV
		} else {
			method = SyncMethodBasic
		}
	}

	c.logger.Debug("syncing collection",
		"url", collection.URL,
		"method", string(method))

	if method == SyncMethodWebDAV {
		return c.webdavSync(ctx, collection)
	}
	return c.basicSync(ctx, collection)
}

// webdavSync drives the sync-collection REPORT: the server reports only
// hrefs changed since the token, changed objects are multiget-fetched,
// 404s are deletions.
func (c *Client) webdavSync(ctx context.Context, collection Collection) (Collection, SyncDiff, bool, error) {
	dataProp := "c:calendar-data"
	if c.account.AccountType == AccountTypeCardDAV {
		dataProp = "card:address-data"
	}
	props := davxml.PropNames("d:getetag", dataProp, "d:displayname")

	ms, err := c.syncCollectionReport(ctx, collection.URL, props, "1", collection.SyncToken)
	if err != nil {
		return collection, SyncDiff{}, false, err
	}

	ext := c.account.AccountType.objectExtension()
	var changedHrefs, deletedHrefs []string
	for _, resp := range ms.Responses {
		if !strings.HasSuffix(strings.TrimSpace(resp.Href), ext) {
			continue
		}
		if resp.Status == 404 {
			deletedHrefs = append(deletedHrefs, resp.Href)
		} else {
			changedHrefs = append(changedHrefs, resp.Href)
		}
	}

	var remote []DAVObject
	if len(changedHrefs) > 0 {
		remote, err = c.fetcher.MultiGet(ctx, collection, changedHrefs)
		if err != nil {
			return collection, SyncDiff{}, false, err
		}
	}

	diff := diffObjects(collection.Objects, remote)
	for _, href := range deletedHrefs {
		diff.Deleted = append(diff.Deleted, DAVObject{URL: href})
	}
	// Locals the delta never mentioned are unchanged; only objects the
	// server reported as updated or deleted leave the snapshot.
	diff.Unchanged = untouchedLocals(collection.Objects, diff.Updated, diff.Deleted)

	newCollection := collection
	if ms.SyncToken != "" {
		newCollection.SyncToken = ms.SyncToken
	}
	return newCollection, diff, true, nil
}

// basicSync compares ctags and reconciles against a full object fetch.
// The fetch happens before the dirtiness check is acted on, so the diff
// is available whenever the ctag moved.
func (c *Client) basicSync(ctx context.Context, collection Collection) (Collection, SyncDiff, bool, error) {
	isDirty, newCtag, err := c.IsCollectionDirty(ctx, collection)
	if err != nil {
		return collection, SyncDiff{}, false, err
	}

	remote, err := c.fetcher.FetchObjects(ctx, collection)
	if err != nil {
		return collection, SyncDiff{}, false, err
	}

	diff := diffObjects(collection.Objects, remote)
	for _, local := range collection.Objects {
		if !matchesAny(remote, local.URL) {
			diff.Deleted = append(diff.Deleted, DAVObject{URL: local.URL})
		}
	}
	diff.Unchanged = matchedEqualLocals(collection.Objects, remote)

	if !isDirty {
		return collection, SyncDiff{}, false, nil
	}

	newCollection := collection
	newCollection.CTag = newCtag
	return newCollection, diff, true, nil
}

// diffObjects computes created and updated against the remote set.
// Created are remote objects with no local counterpart; updated are the
// remote values of locals whose counterpart carries a different,
// non-empty etag.
func diffObjects(local, remote []DAVObject) SyncDiff {
	var diff SyncDiff
	for _, ro := range remote {
		if !matchesAny(local, ro.URL) {
			diff.Created = append(diff.Created, ro)
		}
	}
	for _, lo := range local {
		for _, ro := range remote {
			if URLContains(lo.URL, ro.URL) && ro.ETag != "" && ro.ETag != lo.ETag {
				diff.Updated = append(diff.Updated, ro)
				break
			}
		}
	}
	return diff
}

// matchedEqualLocals returns the locals whose remote counterpart carries
// the same etag.
func matchedEqualLocals(local, remote []DAVObject) []DAVObject {
	var out []DAVObject
	for _, lo := range local {
		for _, ro := range remote {
			if URLContains(lo.URL, ro.URL) && ro.ETag == lo.ETag {
				out = append(out, lo)
				break
			}
		}
	}
	return out
}

// untouchedLocals returns the locals that were neither updated nor
// deleted by a delta.
func untouchedLocals(local, updated, deleted []DAVObject) []DAVObject {
	var out []DAVObject
	for _, lo := range local {
		if matchesAny(updated, lo.URL) || matchesAny(deleted, lo.URL) {
			continue
		}
		out = append(out, lo)
	}
	return out
}

func matchesAny(objects []DAVObject, url string) bool {
	for _, obj := range objects {
		if URLContains(obj.URL, url) {
			return true
		}
	}
	return false
}

// CalendarSyncResult is the detailed outcome of SyncCalendarsDetailed.
type CalendarSyncResult struct {
	Created   []Calendar
	Updated   []Calendar
	Deleted   []Calendar
	Unchanged []Calendar
}

// SyncCalendars reconciles the account's calendar list: calendars whose
// syncToken or ctag moved are re-synced (webdav strategy) in parallel.
// Returns the new complete calendar list.
func (c *Client) SyncCalendars(ctx context.Context, oldCalendars []Calendar) ([]Calendar, error) {
	result, err := c.SyncCalendarsDetailed(ctx, oldCalendars)
	if err != nil {
		return nil, err
	}
	merged := make([]Calendar, 0, len(result.Unchanged)+len(result.Created)+len(result.Updated))
	merged = append(merged, result.Unchanged...)
	merged = append(merged, result.Created...)
	merged = append(merged, result.Updated...)
	return merged, nil
}

// SyncCalendarsDetailed reconciles the account's calendar list and
// reports which calendars appeared, changed or vanished.
func (c *Client) SyncCalendarsDetailed(ctx context.Context, oldCalendars []Calendar) (*CalendarSyncResult, error) {
	remote, err := c.FetchCalendars(ctx)
	if err != nil {
		return nil, err
	}

	result := &CalendarSyncResult{}
	var changed []Calendar
	for _, rc := range remote {
		if !calendarMatchesAny(oldCalendars, rc.URL) {
			result.Created = append(result.Created, rc)
		}
	}
	for _, lc := range oldCalendars {
		rc, ok := findCalendar(remote, lc.URL)
		if !ok {
			result.Deleted = append(result.Deleted, lc)
			continue
		}
		if rc.SyncToken != lc.SyncToken || rc.CTag != lc.CTag {
			// Fresh metadata with the local cursor: the sync pass
			// advances the token and snapshot itself.
			next := rc
			next.SyncToken = lc.SyncToken
			next.Objects = lc.Objects
			changed = append(changed, next)
		} else {
			result.Unchanged = append(result.Unchanged, lc)
		}
	}

	updated := make([]Calendar, len(changed))
	err = fanOut(len(changed), func(i int) error {
		col, err := c.SmartCollectionSync(ctx, changed[i].Collection, SyncMethodWebDAV)
		if err != nil {
			return err
		}
		cal := changed[i]
		cal.Collection = col
		updated[i] = cal
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Updated = updated
	return result, nil
}

func calendarMatchesAny(calendars []Calendar, url string) bool {
	_, ok := findCalendar(calendars, url)
	return ok
}

func findCalendar(calendars []Calendar, url string) (Calendar, bool) {
	for _, cal := range calendars {
		if URLContains(cal.URL, url) {
			return cal, true
		}
	}
	return Calendar{}, false
}
