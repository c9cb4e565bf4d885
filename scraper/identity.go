package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"senate-votes/models"
)

// ErrMalformedLocator is returned when a locator does not carry a
// congress/session/vote triple.
var ErrMalformedLocator = errors.New("malformed roll call locator")

// DefaultDocumentURLTemplate renders the per-vote XML document for an
// Identity. Arguments are congress, session and vote number.
const DefaultDocumentURLTemplate = "https://www.senate.gov/legislative/LIS/roll_call_votes/vote%[1]d%[2]d/vote_%[1]d_%[2]d_%05[3]d.xml"

var locatorPattern = regexp.MustCompile(
	`roll_call_vote_cfm\.cfm\?congress=([0-9]+)&session=([0-9]+)&vote=([0-9]+)$`,
)

// Identity is the natural key of a roll call.
type Identity struct {
	Congress   int
	Session    int
	VoteNumber int
}

// ID renders the canonical identifier, e.g. "115-1-1".
func (i Identity) ID() string {
	return models.RollCallID(i.Congress, i.Session, i.VoteNumber)
}

// DocumentURL renders the XML document location for this roll call.
func (i Identity) DocumentURL(template string) string {
	if template == "" {
		template = DefaultDocumentURLTemplate
	}
	return fmt.Sprintf(template, i.Congress, i.Session, i.VoteNumber)
}

// DeriveIdentity extracts the identity triple from a roll call locator. It
// does no I/O.
func DeriveIdentity(locator string) (Identity, error) {
	m := locatorPattern.FindStringSubmatch(locator)
	if m == nil {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedLocator, locator)
	}
	var fields [3]int
	for idx, raw := range m[1:] {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %q: %v", ErrMalformedLocator, locator, err)
		}
		fields[idx] = n
	}
	return Identity{
		Congress:   fields[0],
		Session:    fields[1],
		VoteNumber: fields[2],
	}, nil
}

// DeriveID is DeriveIdentity rendered as the canonical identifier.
func DeriveID(locator string) (string, error) {
	ident, err := DeriveIdentity(locator)
	if err != nil {
		return "", err
	}
	return ident.ID(), nil
}
