package schema

import (
	"sort"
	"strconv"
	"strings"

	"senate-votes/models"
)

// TableName is the wide roll call table.
const TableName = "rollcall"

type ColumnKind int

const (
	KindFixed ColumnKind = iota
	KindSeat
	KindAggregate
)

// Column is one column of the roll call table.
type Column struct {
	Name       string
	Kind       ColumnKind
	Type       string
	PrimaryKey bool
	NotNull    bool
	// Default is rendered as DEFAULT when non-nil.
	Default *int
}

// Fixed roll call columns in table order.
const (
	ColID                  = "id"
	ColURL                 = "url"
	ColCongress            = "congress"
	ColSession             = "session"
	ColCongressYear        = "congress_year"
	ColVoteNumber          = "vote_number"
	ColVoteDate            = "vote_date"
	ColVoteTitle           = "vote_title"
	ColVoteDocumentText    = "vote_document_text"
	ColMajorityRequirement = "majority_requirement"
	ColVoteResult          = "vote_result"
	ColCountYea            = "count_yea"
	ColCountNay            = "count_nay"
	ColCountAbstain        = "count_abstain"
	ColTieBreakerWhom      = "tie_breaker_whom"
	ColTieBreakerVote      = "tie_breaker_vote"
)

var zero = 0

var fixedColumns = []Column{
	{Name: ColID, Type: "varchar(20)", PrimaryKey: true, NotNull: true},
	{Name: ColURL, Type: "text"},
	{Name: ColCongress, Type: "integer", NotNull: true},
	{Name: ColSession, Type: "integer", NotNull: true},
	{Name: ColCongressYear, Type: "integer"},
	{Name: ColVoteNumber, Type: "integer", NotNull: true},
	{Name: ColVoteDate, Type: "timestamp"},
	{Name: ColVoteTitle, Type: "text"},
	{Name: ColVoteDocumentText, Type: "text"},
	{Name: ColMajorityRequirement, Type: "varchar(10)"},
	{Name: ColVoteResult, Type: "text"},
	{Name: ColCountYea, Type: "integer"},
	{Name: ColCountNay, Type: "integer"},
	{Name: ColCountAbstain, Type: "integer", Default: &zero},
	{Name: ColTieBreakerWhom, Type: "text"},
	{Name: ColTieBreakerVote, Type: "text"},
}

// SlotName is the column name for a seat, e.g. "CA0".
func SlotName(state string, ordinal int) string {
	return state + strconv.Itoa(ordinal)
}

// AggregateName is the column name for a party/cast counter, e.g.
// "total_D_yea".
func AggregateName(party models.Party, cast models.Cast) string {
	return "total_" + string(party) + "_" + cast.String()
}

// Manifest is the full column set of the roll call table. The same value
// drives table creation and row insertion.
type Manifest struct {
	columns []Column
	index   map[string]int
}

// NewManifest builds the manifest for the given seat slots. Slots are
// emitted in sorted order so equal rosters yield equal manifests.
func NewManifest(slots []string) Manifest {
	sorted := append([]string(nil), slots...)
	sort.Strings(sorted)
	cols := make([]Column, 0, len(fixedColumns)+len(sorted)+len(models.Parties)*len(models.Casts))
	for _, c := range fixedColumns {
		c.Kind = KindFixed
		cols = append(cols, c)
	}
	for _, slot := range sorted {
		cols = append(cols, Column{Name: slot, Kind: KindSeat, Type: "integer"})
	}
	for _, p := range models.Parties {
		for _, c := range models.Casts {
			cols = append(cols, Column{
				Name:    AggregateName(p, c),
				Kind:    KindAggregate,
				Type:    "integer",
				NotNull: true,
				Default: &zero,
			})
		}
	}
	m := Manifest{columns: cols, index: make(map[string]int, len(cols))}
	for idx, c := range cols {
		m.index[c.Name] = idx
	}
	return m
}

func (m Manifest) Columns() []Column {
	return m.columns
}

func (m Manifest) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Seats returns the seat column names in table order.
func (m Manifest) Seats() []string {
	var ret []string
	for _, c := range m.columns {
		if c.Kind == KindSeat {
			ret = append(ret, c.Name)
		}
	}
	return ret
}

// Quoter writes a quoted identifier. gorm dialectors satisfy it through
// QuoteTo.
type Quoter func(b *strings.Builder, name string)

// CreateTableSQL renders the CREATE TABLE statement for the manifest.
func (m Manifest) CreateTableSQL(quote Quoter) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	quote(&b, TableName)
	b.WriteString(" (")
	for idx, c := range m.columns {
		if idx > 0 {
			b.WriteString(", ")
		}
		quote(&b, c.Name)
		b.WriteString(" ")
		b.WriteString(c.Type)
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		} else if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if c.Default != nil {
			b.WriteString(" DEFAULT ")
			b.WriteString(strconv.Itoa(*c.Default))
		}
	}
	b.WriteString(")")
	return b.String()
}

// Classify reports the kind of a column name read back from the table.
func Classify(name string) ColumnKind {
	for _, c := range fixedColumns {
		if c.Name == name {
			return KindFixed
		}
	}
	if strings.HasPrefix(name, "total_") {
		return KindAggregate
	}
	return KindSeat
}
