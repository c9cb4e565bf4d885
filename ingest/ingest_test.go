package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senate-votes/database"
	"senate-votes/models"
	"senate-votes/scraper"
)

type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	fails map[string]int
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{docs: make(map[string]string), fails: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*scraper.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if status, ok := f.fails[url]; ok {
		return nil, &scraper.RequestFailedError{URL: url, StatusCode: status, Attempts: 100}
	}
	doc, ok := f.docs[url]
	if !ok {
		return nil, &scraper.RequestFailedError{URL: url, StatusCode: 404, Attempts: 1}
	}
	return &scraper.Response{StatusCode: 200, Body: []byte(doc)}, nil
}

type staticLinks []string

func (l staticLinks) Discover(context.Context, string) ([]string, error) {
	return l, nil
}

type recordingNotifier struct {
	summaries []Summary
}

func (n *recordingNotifier) Notify(_ context.Context, s Summary) error {
	n.summaries = append(n.summaries, s)
	return nil
}

const rosterXML = `<?xml version="1.0" encoding="UTF-8"?>
<contact_information>
  <member><last_name>Alpha</last_name><first_name>Ann</first_name><party>D</party><state>CA</state></member>
  <member><last_name>Bravo</last_name><first_name>Bob</first_name><party>D</party><state>CA</state></member>
  <member><last_name>Charlie</last_name><first_name>Cat</first_name><party>R</party><state>NY</state></member>
</contact_information>`

type member struct {
	last, party, state, cast string
}

func voteXML(vote int, members ...member) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<roll_call_vote>
  <congress>115</congress>
  <session>1</session>
  <congress_year>2017</congress_year>
  <vote_number>%d</vote_number>
  <vote_date>January %d, 2017,  05:56 PM</vote_date>
  <vote_title>Vote %d</vote_title>
  <majority_requirement>1/2</majority_requirement>
  <vote_result>Agreed to</vote_result>
  <count><yeas>2</yeas><nays>1</nays><absent>0</absent></count>
  <tie_breaker><by_whom></by_whom><tie_breaker_vote></tie_breaker_vote></tie_breaker>
  <members>
`, vote, vote, vote)
	for _, m := range members {
		fmt.Fprintf(&b, "    <member><last_name>%s</last_name><party>%s</party><state>%s</state><vote_cast>%s</vote_cast></member>\n",
			m.last, m.party, m.state, m.cast)
	}
	b.WriteString("  </members>\n</roll_call_vote>\n")
	return b.String()
}

var standardMembers = []member{
	{"Alpha", "D", "CA", "Yea"},
	{"Bravo", "D", "CA", "Nay"},
	{"Charlie", "R", "NY", "Yea"},
}

func locator(vote int) string {
	return fmt.Sprintf("https://www.senate.gov/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&session=1&vote=%05d", vote)
}

func documentURL(vote int) string {
	return scraper.Identity{Congress: 115, Session: 1, VoteNumber: vote}.DocumentURL(scraper.DefaultDocumentURLTemplate)
}

type fixture struct {
	store    *database.Store
	fetcher  *fakeFetcher
	notifier *recordingNotifier
	registry *prometheus.Registry
	metrics  *Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "votes.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fetcher := newFakeFetcher()
	fetcher.docs[scraper.DefaultRosterURL] = rosterXML
	reg := prometheus.NewRegistry()
	return &fixture{
		store:    store,
		fetcher:  fetcher,
		notifier: &recordingNotifier{},
		registry: reg,
		metrics:  NewMetrics(reg),
	}
}

func (f *fixture) ingester(links ...string) *Ingester {
	clock := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	runs := 0
	return New(f.store, staticLinks(links), f.fetcher, nil, Options{},
		WithNotifier(f.notifier),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return clock }),
		WithRunID(func() string {
			runs++
			return fmt.Sprintf("run-%d", runs)
		}),
	)
}

func TestInitializeThenUpdate(t *testing.T) {
	f := newFixture(t)
	f.fetcher.docs[documentURL(1)] = voteXML(1, standardMembers...)
	f.fetcher.docs[documentURL(2)] = voteXML(2, standardMembers...)

	summary, err := f.ingester(locator(1)).Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewCount)
	assert.Equal(t, StatusSuccess, summary.Status)

	roster, err := f.store.Roster()
	require.NoError(t, err)
	assert.Len(t, roster, 3)

	summary, err = f.ingester(locator(1), locator(2)).Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewCount)

	rec, err := f.store.RollCall("115-1-2")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Totals["total_D_yea"])
	assert.Equal(t, 1, rec.Totals["total_D_nay"])
	assert.Equal(t, 1, rec.Totals["total_R_yea"])
	assert.Equal(t, 0, rec.Totals["total_I_yea"])
	assert.Equal(t, models.CastYea, rec.Seats["CA0"])
	assert.Equal(t, models.CastNay, rec.Seats["CA1"])
	assert.Equal(t, models.CastYea, rec.Seats["NY0"])
	assert.Equal(t, locator(2), rec.SourceLocator)

	entry, err := f.store.LastUpdated()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.NewCount)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.ingested))
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.fetcher.docs[documentURL(1)] = voteXML(1, standardMembers...)
	f.fetcher.docs[documentURL(2)] = voteXML(2, standardMembers...)

	summary, err := f.ingester(locator(1), locator(2)).Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewCount)

	f.fetcher.calls = nil
	summary, err = f.ingester(locator(1), locator(2)).Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Empty(t, f.fetcher.calls)

	n, err := f.store.CountRollCalls()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUpdateAbortsOnRequestFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.ingester().Initialize(context.Background())
	require.NoError(t, err)

	f.fetcher.docs[documentURL(1)] = voteXML(1, standardMembers...)
	f.fetcher.fails[documentURL(2)] = 503
	f.fetcher.docs[documentURL(3)] = voteXML(3, standardMembers...)

	summary, err := f.ingester(locator(1), locator(2), locator(3)).Update(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, scraper.ErrRequestFailed)
	assert.Equal(t, StatusFailure, summary.Status)
	assert.Equal(t, 1, summary.NewCount)

	ids, err := f.store.RollCallIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"115-1-1": {}}, ids)
	assert.NotContains(t, f.fetcher.calls, documentURL(3))

	entry, err := f.store.LastUpdated()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0, entry.NewCount, "failed run must not overwrite the update log")

	last := f.notifier.summaries[len(f.notifier.summaries)-1]
	assert.Equal(t, StatusFailure, last.Status)
	assert.Equal(t, 1, last.NewCount)
}

func TestUpdateSkipsUnmappableDocuments(t *testing.T) {
	f := newFixture(t)
	_, err := f.ingester().Initialize(context.Background())
	require.NoError(t, err)

	unknown := append([]member{}, standardMembers...)
	unknown = append(unknown, member{"Zulu", "I", "VT", "Nay"})
	f.fetcher.docs[documentURL(1)] = voteXML(1, unknown...)
	f.fetcher.docs[documentURL(2)] = strings.Replace(voteXML(2, standardMembers...), "<congress>115</congress>", "", 1)
	f.fetcher.docs[documentURL(3)] = voteXML(4, standardMembers...)
	f.fetcher.docs[documentURL(5)] = voteXML(5, standardMembers...)

	summary, err := f.ingester(locator(1), locator(2), locator(3), locator(5), "https://www.senate.gov/not-a-vote").
		Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewCount)
	assert.Equal(t, 4, summary.Skipped)

	ids, err := f.store.RollCallIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"115-1-5": {}}, ids)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.skipped.WithLabelValues("unknown_member")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.skipped.WithLabelValues("missing_required_field")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.skipped.WithLabelValues("locator_mismatch")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.skipped.WithLabelValues("malformed_locator")))
}

func TestUpdateRequiresRoster(t *testing.T) {
	f := newFixture(t)
	_, err := f.ingester().Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.store.ReplaceRoster(nil))

	_, err = f.ingester(locator(1)).Update(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestInitializeRosterFailure(t *testing.T) {
	f := newFixture(t)
	delete(f.fetcher.docs, scraper.DefaultRosterURL)

	summary, err := f.ingester(locator(1)).Initialize(context.Background())
	assert.ErrorIs(t, err, scraper.ErrRequestFailed)
	assert.Equal(t, StatusFailure, summary.Status)
	require.Len(t, f.notifier.summaries, 1)
}
