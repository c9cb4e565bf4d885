package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	DefaultListingURL      = "https://www.senate.gov/pagelayout/legislative/a_three_sections_with_teasers/votes.htm"
	DefaultMenuPattern     = `^/legislative/LIS/roll_call_lists/vote_menu_[0-9]+_[0-9]+\.htm$`
	DefaultRollCallPattern = `^/legislative/LIS/roll_call_lists/roll_call_vote_cfm\.cfm\?congress=[0-9]+&session=[0-9]+&vote=[0-9]+$`
)

// Discoverer walks the listing page and the vote menus it links to and
// returns every roll call locator found.
type Discoverer struct {
	fetcher  Fetcher
	logger   *zap.Logger
	menu     *regexp.Regexp
	rollCall *regexp.Regexp
}

func NewDiscoverer(fetcher Fetcher, menuPattern, rollCallPattern string, logger *zap.Logger) (*Discoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if menuPattern == "" {
		menuPattern = DefaultMenuPattern
	}
	if rollCallPattern == "" {
		rollCallPattern = DefaultRollCallPattern
	}
	menu, err := regexp.Compile(menuPattern)
	if err != nil {
		return nil, fmt.Errorf("compile menu pattern: %w", err)
	}
	rollCall, err := regexp.Compile(rollCallPattern)
	if err != nil {
		return nil, fmt.Errorf("compile roll call pattern: %w", err)
	}
	return &Discoverer{
		fetcher:  fetcher,
		logger:   logger,
		menu:     menu,
		rollCall: rollCall,
	}, nil
}

// Discover returns the de-duplicated roll call locators reachable from
// listingURL, sorted ascending.
func (d *Discoverer) Discover(ctx context.Context, listingURL string) ([]string, error) {
	menus, err := d.links(ctx, listingURL, d.menu)
	if err != nil {
		return nil, err
	}
	d.logger.Info("found vote menus", zap.Int("count", len(menus)))
	seen := make(map[string]struct{})
	for _, menu := range menus {
		locators, err := d.links(ctx, menu, d.rollCall)
		if err != nil {
			return nil, err
		}
		for _, l := range locators {
			seen[l] = struct{}{}
		}
	}
	ret := make([]string, 0, len(seen))
	for l := range seen {
		ret = append(ret, l)
	}
	sort.Strings(ret)
	d.logger.Info("found roll call links", zap.Int("count", len(ret)))
	return ret, nil
}

func (d *Discoverer) links(ctx context.Context, pageURL string, pattern *regexp.Regexp) ([]string, error) {
	resp, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractLinks(pageURL, resp.Body, pattern)
}

// ExtractLinks returns the href of every anchor in body that matches
// pattern, resolved against pageURL. Duplicates are removed; order follows
// the document.
func ExtractLinks(pageURL string, body []byte, pattern *regexp.Regexp) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	var (
		ret  []string
		seen = make(map[string]struct{})
	)
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return ret, nil
			}
			return nil, fmt.Errorf("tokenize %s: %w", pageURL, z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href := strings.TrimSpace(string(val))
					if pattern.MatchString(href) {
						ref, err := url.Parse(href)
						if err == nil {
							abs := base.ResolveReference(ref).String()
							if _, ok := seen[abs]; !ok {
								seen[abs] = struct{}{}
								ret = append(ret, abs)
							}
						}
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
