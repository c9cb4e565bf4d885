package ingest

import (
	"sort"

	"senate-votes/scraper"
)

// Candidate is a roll call locator with its derived identity.
type Candidate struct {
	Locator  string
	Identity scraper.Identity
}

func (c Candidate) ID() string {
	return c.Identity.ID()
}

// DiffResult is the outcome of comparing listed locators with the store.
type DiffResult struct {
	// New holds the candidates to ingest, sorted by locator.
	New []Candidate
	// Malformed holds locators that carry no identity.
	Malformed []string
	// Known counts candidates already stored.
	Known int
}

// Diff de-duplicates locators, derives an identity for each and keeps
// those whose id is not in persisted. Two locators with the same id
// collapse to the first in sorted order.
func Diff(locators []string, persisted map[string]struct{}) DiffResult {
	unique := make(map[string]struct{}, len(locators))
	sorted := make([]string, 0, len(locators))
	for _, l := range locators {
		if _, ok := unique[l]; ok {
			continue
		}
		unique[l] = struct{}{}
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)

	var ret DiffResult
	seen := make(map[string]struct{}, len(sorted))
	for _, l := range sorted {
		ident, err := scraper.DeriveIdentity(l)
		if err != nil {
			ret.Malformed = append(ret.Malformed, l)
			continue
		}
		id := ident.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := persisted[id]; ok {
			ret.Known++
			continue
		}
		ret.New = append(ret.New, Candidate{Locator: l, Identity: ident})
	}
	return ret
}
