package schema

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senate-votes/models"
)

func intPtr(n int) *int {
	return &n
}

func testRollCall() models.RollCall {
	return models.RollCall{
		ID:            "115-1-2",
		SourceLocator: "https://www.senate.gov/legislative/LIS/roll_call_lists/roll_call_vote_cfm.cfm?congress=115&session=1&vote=00002",
		Congress:      115,
		Session:       1,
		CongressYear:  2017,
		VoteNumber:    2,
		VoteDate:      time.Date(2017, time.January, 4, 22, 56, 0, 0, time.UTC),
		Title:         "Motion to Table",
		Result:        "Agreed to",
		Tally:         models.Tally{Yeas: intPtr(2), Nays: intPtr(1)},
	}
}

func testVotes() []models.Vote {
	return []models.Vote{
		{LastName: "Alpha", Party: "D", State: "CA", Cast: models.CastYea},
		{LastName: "Bravo", Party: "D", State: "CA", Cast: models.CastNay},
		{LastName: "Charlie", Party: "R", State: "NY", Cast: models.CastYea},
	}
}

func TestFlatten(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	row, err := Flatten(testRollCall(), testVotes(), seats)
	require.NoError(t, err)

	assert.Equal(t, map[string]models.Cast{
		"CA0": models.CastYea,
		"CA1": models.CastNay,
		"NY0": models.CastYea,
	}, row.Seats)
	assert.Equal(t, 1, row.Totals.Count(models.PartyDemocrat, models.CastYea))
	assert.Equal(t, 1, row.Totals.Count(models.PartyDemocrat, models.CastNay))
	assert.Equal(t, 1, row.Totals.Count(models.PartyRepublican, models.CastYea))
	assert.Equal(t, len(testVotes()), row.Totals.Total())
}

func TestFlattenPartialRollCall(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	row, err := Flatten(testRollCall(), testVotes()[:1], seats)
	require.NoError(t, err)
	assert.Len(t, row.Seats, 1)
	_, ok := row.Seats["NY0"]
	assert.False(t, ok)
}

func TestFlattenUnknownMember(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	votes := append(testVotes(), models.Vote{LastName: "Zulu", Party: "I", State: "VT"})
	row, err := Flatten(testRollCall(), votes, seats)
	assert.ErrorIs(t, err, ErrUnknownMember)
	assert.Nil(t, row.Seats)
}

func TestFlattenDuplicateSeat(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	votes := append(testVotes(), testVotes()[0])
	_, err := Flatten(testRollCall(), votes, seats)
	require.ErrorIs(t, err, ErrDuplicateSeat)
	assert.Contains(t, err.Error(), "CA0 held by Ann Alpha")
}

func TestRowValues(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	m := NewManifest(seats.Slots())
	row, err := Flatten(testRollCall(), testVotes(), seats)
	require.NoError(t, err)

	values, err := row.Values(m)
	require.NoError(t, err)
	assert.Equal(t, "115-1-2", values[ColID])
	assert.Equal(t, 2, values[ColCountYea])
	assert.NotContains(t, values, ColCountAbstain)
	assert.NotContains(t, values, ColTieBreakerWhom)
	assert.Equal(t, int(models.CastNay), values["CA1"])
	assert.Equal(t, 1, values["total_D_yea"])
	assert.Equal(t, 0, values["total_I_abstain"])

	for name := range values {
		assert.True(t, m.Has(name), name)
	}
}

func TestRowValuesVoteDate(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	m := NewManifest(seats.Slots())

	eastern, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	rc := testRollCall()
	rc.VoteDate = time.Date(2017, time.January, 4, 17, 56, 0, 0, eastern)
	row, err := Flatten(rc, testVotes(), seats)
	require.NoError(t, err)
	values, err := row.Values(m)
	require.NoError(t, err)
	stored, ok := values[ColVoteDate].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, stored.Location())
	assert.Equal(t, 22, stored.Hour())
	assert.True(t, rc.VoteDate.Equal(stored))

	rc.VoteDate = time.Time{}
	row, err = Flatten(rc, testVotes(), seats)
	require.NoError(t, err)
	values, err = row.Values(m)
	require.NoError(t, err)
	assert.NotContains(t, values, ColVoteDate)
}

func TestRowValuesSeatOutsideManifest(t *testing.T) {
	seats := mustSeatMap(t, testRoster())
	row, err := Flatten(testRollCall(), testVotes(), seats)
	require.NoError(t, err)
	_, err = row.Values(NewManifest([]string{"CA0", "CA1"}))
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestAggregateSumsToVotes(t *testing.T) {
	votes := []models.Vote{
		{Party: "D", Cast: models.CastYea},
		{Party: "R", Cast: models.CastAbstain},
		{Party: "I", Cast: models.CastNay},
		{Party: "ID", Cast: models.CastYea},
		{Party: "", Cast: models.CastAbstain},
	}
	a := AggregateVotes(votes)
	assert.Equal(t, len(votes), a.Total())
	assert.Equal(t, 1, a.Count(models.PartyOther, models.CastYea))
	assert.Equal(t, 1, a.Count(models.PartyOther, models.CastAbstain))

	sum := 0
	for _, n := range a.Columns() {
		sum += n
	}
	assert.Equal(t, len(votes), sum)
	assert.Len(t, a.Columns(), 9)
}

func quoteDouble(b *strings.Builder, name string) {
	b.WriteString(`"` + name + `"`)
}

func TestManifestCreateTableSQL(t *testing.T) {
	m := NewManifest([]string{"NY0", "CA1", "CA0"})
	assert.Equal(t, []string{"CA0", "CA1", "NY0"}, m.Seats())
	assert.Len(t, m.Columns(), 16+3+9)

	sql := m.CreateTableSQL(quoteDouble)
	assert.True(t, strings.HasPrefix(sql, `CREATE TABLE "rollcall" ("id" varchar(20) PRIMARY KEY, "url" text, `), sql)
	assert.Contains(t, sql, `"count_abstain" integer DEFAULT 0`)
	assert.Contains(t, sql, `"CA0" integer, "CA1" integer, "NY0" integer`)
	assert.Contains(t, sql, `"total_D_yea" integer NOT NULL DEFAULT 0`)
	assert.True(t, strings.HasSuffix(sql, `"total_I_abstain" integer NOT NULL DEFAULT 0)`), sql)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindFixed, Classify(ColVoteDate))
	assert.Equal(t, KindAggregate, Classify("total_R_nay"))
	assert.Equal(t, KindSeat, Classify("WY1"))
}
