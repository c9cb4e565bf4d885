package models

import (
	"fmt"
	"time"
)

// RollCall is one recorded Senate vote. ID is derived from Congress, Session
// and VoteNumber and is the primary key of the rollcall table.
type RollCall struct {
	ID                  string      `json:"id"`
	SourceLocator       string      `json:"source_locator"`
	Congress            int         `json:"congress"`
	Session             int         `json:"session"`
	CongressYear        int         `json:"congress_year"`
	VoteNumber          int         `json:"vote_number"`
	VoteDate            time.Time   `json:"vote_date"` // zero when unpublished
	Title               string      `json:"title"`
	DocumentText        string      `json:"document_text"`
	MajorityRequirement string      `json:"majority_requirement"`
	Result              string      `json:"result"`
	Tally               Tally       `json:"tally"`
	TieBreaker          *TieBreaker `json:"tie_breaker,omitempty"`
}

// Tally holds the counts reported by the document. A nil count means the
// document did not carry it.
type Tally struct {
	Yeas    *int `json:"yeas"`
	Nays    *int `json:"nays"`
	Abstain *int `json:"abstain"`
}

type TieBreaker struct {
	ByWhom string `json:"by_whom"`
	Vote   string `json:"vote"`
}

// RollCallID renders the canonical identifier, e.g. "115-1-1".
func RollCallID(congress, session, voteNumber int) string {
	return fmt.Sprintf("%d-%d-%d", congress, session, voteNumber)
}
