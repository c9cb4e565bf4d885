package scraper

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"senate-votes/models"
)

var (
	// ErrMissingRequiredField is returned when a vote document lacks a
	// field that has no fallback.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrInvalidField is returned when a present field cannot be converted.
	ErrInvalidField = errors.New("invalid field")
	// ErrLocatorMismatch is returned when a document's identity differs
	// from the identity derived from the locator it was fetched for.
	ErrLocatorMismatch = errors.New("document does not match locator")
)

var voteDateLayouts = []string{
	"January 2, 2006, 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
}

// Vote times are published in Washington local time.
var voteDateLocation = loadLocation("America/New_York")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type voteDocument struct {
	XMLName             xml.Name        `xml:"roll_call_vote"`
	Congress            *string         `xml:"congress"`
	Session             *string         `xml:"session"`
	CongressYear        *string         `xml:"congress_year"`
	VoteNumber          *string         `xml:"vote_number"`
	VoteDate            *string         `xml:"vote_date"`
	VoteTitle           *string         `xml:"vote_title"`
	VoteDocumentText    *string         `xml:"vote_document_text"`
	MajorityRequirement *string         `xml:"majority_requirement"`
	VoteResult          *string         `xml:"vote_result"`
	Count               *countElement   `xml:"count"`
	TieBreaker          *tieBreakerElem `xml:"tie_breaker"`
	Members             *membersElement `xml:"members"`
}

type countElement struct {
	Yeas   *string `xml:"yeas"`
	Nays   *string `xml:"nays"`
	Absent *string `xml:"absent"`
}

type tieBreakerElem struct {
	ByWhom *string `xml:"by_whom"`
	Vote   *string `xml:"tie_breaker_vote"`
}

type membersElement struct {
	Member []memberElement `xml:"member"`
}

type memberElement struct {
	LastName    *string `xml:"last_name"`
	FirstName   *string `xml:"first_name"`
	Party       *string `xml:"party"`
	State       *string `xml:"state"`
	VoteCast    *string `xml:"vote_cast"`
	LisMemberID *string `xml:"lis_member_id"`
}

// optional returns the trimmed text of an element and whether it carried
// any. Absent and empty elements are both reported as not present.
func optional(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

func text(s *string) string {
	v, _ := optional(s)
	return v
}

func requiredInt(name string, s *string) (int, error) {
	v, ok := optional(s)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequiredField, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidField, name, v)
	}
	return n, nil
}

func optionalInt(name string, s *string) (*int, error) {
	v, ok := optional(s)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidField, name, v)
	}
	return &n, nil
}

// parseVoteDate returns the zero time when the document has no date.
func parseVoteDate(s *string) (time.Time, error) {
	v, ok := optional(s)
	if !ok {
		return time.Time{}, nil
	}
	v = strings.Join(strings.Fields(v), " ")
	for _, layout := range voteDateLayouts {
		if t, err := time.ParseInLocation(layout, v, voteDateLocation); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: vote_date=%q", ErrInvalidField, v)
}

// ParseRollCall converts one vote document into a RollCall and its votes.
// Optional header and nested fields fall back to absent values; only the
// identity fields, congress_year and the members list are required. A
// missing vote_date leaves VoteDate zero.
func ParseRollCall(locator string, body []byte) (models.RollCall, []models.Vote, error) {
	var doc voteDocument
	dec := xml.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&doc); err != nil {
		return models.RollCall{}, nil, fmt.Errorf("decode vote document: %w", err)
	}
	rc := models.RollCall{
		SourceLocator:       locator,
		Title:               text(doc.VoteTitle),
		DocumentText:        text(doc.VoteDocumentText),
		MajorityRequirement: text(doc.MajorityRequirement),
		Result:              text(doc.VoteResult),
	}
	var err error
	if rc.Congress, err = requiredInt("congress", doc.Congress); err != nil {
		return models.RollCall{}, nil, err
	}
	if rc.Session, err = requiredInt("session", doc.Session); err != nil {
		return models.RollCall{}, nil, err
	}
	if rc.VoteNumber, err = requiredInt("vote_number", doc.VoteNumber); err != nil {
		return models.RollCall{}, nil, err
	}
	if rc.CongressYear, err = requiredInt("congress_year", doc.CongressYear); err != nil {
		return models.RollCall{}, nil, err
	}
	if rc.VoteDate, err = parseVoteDate(doc.VoteDate); err != nil {
		return models.RollCall{}, nil, err
	}
	rc.ID = models.RollCallID(rc.Congress, rc.Session, rc.VoteNumber)

	if doc.Count != nil {
		if rc.Tally.Yeas, err = optionalInt("count/yeas", doc.Count.Yeas); err != nil {
			return models.RollCall{}, nil, err
		}
		if rc.Tally.Nays, err = optionalInt("count/nays", doc.Count.Nays); err != nil {
			return models.RollCall{}, nil, err
		}
		if rc.Tally.Abstain, err = optionalInt("count/absent", doc.Count.Absent); err != nil {
			return models.RollCall{}, nil, err
		}
	}
	if doc.TieBreaker != nil {
		byWhom, hasWhom := optional(doc.TieBreaker.ByWhom)
		vote, hasVote := optional(doc.TieBreaker.Vote)
		if hasWhom || hasVote {
			rc.TieBreaker = &models.TieBreaker{ByWhom: byWhom, Vote: vote}
		}
	}

	if doc.Members == nil {
		return models.RollCall{}, nil, fmt.Errorf("%w: members", ErrMissingRequiredField)
	}
	votes := make([]models.Vote, 0, len(doc.Members.Member))
	for _, m := range doc.Members.Member {
		votes = append(votes, models.Vote{
			FirstName:   text(m.FirstName),
			LastName:    text(m.LastName),
			Party:       text(m.Party),
			State:       text(m.State),
			Cast:        models.CastFromText(text(m.VoteCast)),
			LisMemberID: text(m.LisMemberID),
		})
	}
	return rc, votes, nil
}

// CheckIdentity verifies that a parsed roll call belongs to ident.
func CheckIdentity(ident Identity, rc models.RollCall) error {
	if rc.ID != ident.ID() {
		return fmt.Errorf("%w: locator %s, document %s", ErrLocatorMismatch, ident.ID(), rc.ID)
	}
	return nil
}
