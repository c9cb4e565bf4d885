package models

// Party is the aggregation bucket a vote is counted under. Anything that is
// not a Democrat or Republican is folded into PartyOther on purpose.
type Party string

const (
	PartyDemocrat   Party = "D"
	PartyRepublican Party = "R"
	PartyOther      Party = "I"
)

// Parties lists the buckets in column order.
var Parties = []Party{PartyDemocrat, PartyRepublican, PartyOther}

// PartyBucket maps a party code from a vote document to its bucket.
func PartyBucket(code string) Party {
	switch Party(code) {
	case PartyDemocrat:
		return PartyDemocrat
	case PartyRepublican:
		return PartyRepublican
	default:
		return PartyOther
	}
}

// Cast is the stored vote code.
type Cast int

const (
	CastYea Cast = iota
	CastNay
	CastAbstain
)

// Casts lists the cast kinds in column order.
var Casts = []Cast{CastYea, CastNay, CastAbstain}

// CastFromText translates the vote_cast text. Only "Yea" and "Nay" are
// recognized; everything else ("Present", "Not Voting", "") is CastAbstain.
func CastFromText(text string) Cast {
	switch text {
	case "Yea":
		return CastYea
	case "Nay":
		return CastNay
	default:
		return CastAbstain
	}
}

func (c Cast) String() string {
	switch c {
	case CastYea:
		return "yea"
	case CastNay:
		return "nay"
	default:
		return "abstain"
	}
}

// Vote is one senator's cast within a roll call.
type Vote struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Party       string `json:"party"`
	State       string `json:"state"`
	Cast        Cast   `json:"cast"`
	LisMemberID string `json:"lis_member_id"`
}

func (v Vote) Bucket() Party {
	return PartyBucket(v.Party)
}
