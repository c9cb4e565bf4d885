package schema

import "senate-votes/models"

// Aggregate counts votes per party bucket and cast kind.
type Aggregate struct {
	counts [3][3]int
}

func partyIndex(p models.Party) int {
	switch p {
	case models.PartyDemocrat:
		return 0
	case models.PartyRepublican:
		return 1
	default:
		return 2
	}
}

func castIndex(c models.Cast) int {
	switch c {
	case models.CastYea:
		return 0
	case models.CastNay:
		return 1
	default:
		return 2
	}
}

func (a *Aggregate) Add(v models.Vote) {
	a.counts[partyIndex(v.Bucket())][castIndex(v.Cast)]++
}

func (a Aggregate) Count(p models.Party, c models.Cast) int {
	return a.counts[partyIndex(p)][castIndex(c)]
}

// Total is the sum of all nine counters.
func (a Aggregate) Total() int {
	total := 0
	for _, row := range a.counts {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Columns returns the counters keyed by aggregate column name.
func (a Aggregate) Columns() map[string]int {
	ret := make(map[string]int, 9)
	for _, p := range models.Parties {
		for _, c := range models.Casts {
			ret[AggregateName(p, c)] = a.Count(p, c)
		}
	}
	return ret
}

// AggregateVotes folds a vote list into per-party counters.
func AggregateVotes(votes []models.Vote) Aggregate {
	var a Aggregate
	for _, v := range votes {
		a.Add(v)
	}
	return a
}
