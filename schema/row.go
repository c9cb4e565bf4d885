package schema

import (
	"fmt"

	"senate-votes/models"
)

// Row is a roll call flattened onto the seat and aggregate columns.
type Row struct {
	RollCall models.RollCall
	Seats    map[string]models.Cast
	Totals   Aggregate
}

// Flatten maps every vote to its seat and folds the party counters in one
// pass. It returns an error, and no row, if any vote cannot be mapped.
// Seats without a vote are left out of Seats.
func Flatten(rc models.RollCall, votes []models.Vote, seats *SeatMap) (Row, error) {
	row := Row{
		RollCall: rc,
		Seats:    make(map[string]models.Cast, len(votes)),
	}
	for _, v := range votes {
		slot, err := seats.Slot(v.LastName, v.State)
		if err != nil {
			return Row{}, err
		}
		if _, ok := row.Seats[slot]; ok {
			if s, found := seats.holder(slot); found {
				return Row{}, fmt.Errorf("%w: %s held by %s %s", ErrDuplicateSeat, slot, s.FirstName, s.LastName)
			}
			return Row{}, fmt.Errorf("%w: %s", ErrDuplicateSeat, slot)
		}
		row.Seats[slot] = v.Cast
		row.Totals.Add(v)
	}
	return row, nil
}

// Values renders the row as column values for insertion. Absent optional
// values are omitted so the column default or NULL applies.
func (r Row) Values(m Manifest) (map[string]any, error) {
	rc := r.RollCall
	ret := map[string]any{
		ColID:                  rc.ID,
		ColURL:                 rc.SourceLocator,
		ColCongress:            rc.Congress,
		ColSession:             rc.Session,
		ColCongressYear:        rc.CongressYear,
		ColVoteNumber:          rc.VoteNumber,
		ColVoteTitle:           rc.Title,
		ColVoteDocumentText:    rc.DocumentText,
		ColMajorityRequirement: rc.MajorityRequirement,
		ColVoteResult:          rc.Result,
	}
	if !rc.VoteDate.IsZero() {
		// timestamp columns carry no zone; store the instant as UTC
		ret[ColVoteDate] = rc.VoteDate.UTC()
	}
	if rc.Tally.Yeas != nil {
		ret[ColCountYea] = *rc.Tally.Yeas
	}
	if rc.Tally.Nays != nil {
		ret[ColCountNay] = *rc.Tally.Nays
	}
	if rc.Tally.Abstain != nil {
		ret[ColCountAbstain] = *rc.Tally.Abstain
	}
	if rc.TieBreaker != nil {
		ret[ColTieBreakerWhom] = rc.TieBreaker.ByWhom
		ret[ColTieBreakerVote] = rc.TieBreaker.Vote
	}
	for slot, cast := range r.Seats {
		if !m.Has(slot) {
			return nil, fmt.Errorf("%w: no column for seat %s", ErrUnknownMember, slot)
		}
		ret[slot] = int(cast)
	}
	for name, n := range r.Totals.Columns() {
		ret[name] = n
	}
	return ret, nil
}
