package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<a href="/legislative/LIS/roll_call_lists/vote_menu_115_1.htm">115th Congress, 1st Session</a>
<a href="/legislative/LIS/roll_call_lists/vote_menu_115_2.htm">115th Congress, 2nd Session</a>
<a href="/legislative/LIS/roll_call_lists/vote_menu_115_1.htm">again</a>
<a href="/general/contact_information/senators_cfm.cfm">Contact</a>
<a name="no-href">anchor</a>
</body></html>`

const menuPage1151 = `<html><body><table>
<tr><td><a href="/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&amp;session=1&amp;vote=00002">2</a></td></tr>
<tr><td><a href="/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&amp;session=1&amp;vote=00001">1</a></td></tr>
<tr><td><a href="/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&amp;session=1&amp;vote=00001">1 again</a></td></tr>
<tr><td><a href="/legislation/details.htm">bill</a></td></tr>
</table></body></html>`

const menuPage1152 = `<html><body>
<a href="/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&amp;session=2&amp;vote=00001">1</a>
</body></html>`

func newSenateServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/votes.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/legislative/LIS/roll_call_lists/vote_menu_115_1.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(menuPage1151))
	})
	mux.HandleFunc("/legislative/LIS/roll_call_lists/vote_menu_115_2.htm", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(menuPage1152))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover(t *testing.T) {
	srv := newSenateServer(t)
	d, err := NewDiscoverer(NewHTTPFetcher(nil, 1, 0), "", "", nil)
	require.NoError(t, err)

	locators, err := d.Discover(context.Background(), srv.URL+"/votes.htm")
	require.NoError(t, err)
	prefix := srv.URL + "/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?"
	assert.Equal(t, []string{
		prefix + "congress=115&session=1&vote=00001",
		prefix + "congress=115&session=1&vote=00002",
		prefix + "congress=115&session=2&vote=00001",
	}, locators)

	for _, l := range locators {
		_, err := DeriveIdentity(l)
		assert.NoError(t, err, l)
	}
}

func TestDiscoverListingFailure(t *testing.T) {
	srv := newSenateServer(t)
	d, err := NewDiscoverer(NewHTTPFetcher(nil, 1, 0), "", "", nil)
	require.NoError(t, err)

	_, err = d.Discover(context.Background(), srv.URL+"/missing.htm")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestNewDiscovererBadPattern(t *testing.T) {
	_, err := NewDiscoverer(NewHTTPFetcher(nil, 1, 0), "([", "", nil)
	assert.Error(t, err)
}

func TestExtractLinks(t *testing.T) {
	pattern := regexp.MustCompile(`^/legislative/LIS/roll_call_lists/vote_menu_[0-9]+_[0-9]+\.htm$`)
	links, err := ExtractLinks("https://www.senate.gov/pagelayout/votes.htm", []byte(listingPage), pattern)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.senate.gov/legislative/LIS/roll_call_lists/vote_menu_115_1.htm",
		"https://www.senate.gov/legislative/LIS/roll_call_lists/vote_menu_115_2.htm",
	}, links)
}
