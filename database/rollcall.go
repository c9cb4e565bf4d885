package database

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"senate-votes/models"
	"senate-votes/schema"
)

// RollCallRecord is a persisted roll call read back from the wide table.
// Seats holds only the seats that have a stored cast.
type RollCallRecord struct {
	models.RollCall
	Seats  map[string]models.Cast `json:"seats"`
	Totals map[string]int         `json:"totals"`
}

// InsertRollCall writes one flattened row in its own transaction.
func (s *Store) InsertRollCall(row schema.Row, m schema.Manifest) error {
	values, err := row.Values(m)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Table(schema.TableName).Create(values).Error
	})
}

// RollCallIDs returns the identifiers already stored.
func (s *Store) RollCallIDs() (map[string]struct{}, error) {
	var ids []string
	if err := s.db.Table(schema.TableName).Pluck(schema.ColID, &ids).Error; err != nil {
		return nil, fmt.Errorf("list roll call ids: %w", err)
	}
	ret := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		ret[id] = struct{}{}
	}
	return ret, nil
}

func (s *Store) CountRollCalls() (int64, error) {
	var n int64
	err := s.db.Table(schema.TableName).Count(&n).Error
	return n, err
}

// RollCalls returns stored roll calls newest first.
func (s *Store) RollCalls(limit, offset int) ([]RollCallRecord, error) {
	query := s.db.Table(schema.TableName).
		Order(schema.ColVoteDate + " DESC").
		Order(schema.ColID + " DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []map[string]any
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	ret := make([]RollCallRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, rec)
	}
	return ret, nil
}

// RollCall returns gorm.ErrRecordNotFound when id is not stored.
func (s *Store) RollCall(id string) (*RollCallRecord, error) {
	var rows []map[string]any
	err := s.db.Table(schema.TableName).
		Where(schema.ColID+" = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	rec, err := decodeRow(rows[0])
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeRow(row map[string]any) (RollCallRecord, error) {
	rec := RollCallRecord{
		Seats:  make(map[string]models.Cast),
		Totals: make(map[string]int),
	}
	rc := &rec.RollCall
	rc.ID = asString(row[schema.ColID])
	rc.SourceLocator = asString(row[schema.ColURL])
	rc.Congress, _ = asInt(row[schema.ColCongress])
	rc.Session, _ = asInt(row[schema.ColSession])
	rc.CongressYear, _ = asInt(row[schema.ColCongressYear])
	rc.VoteNumber, _ = asInt(row[schema.ColVoteNumber])
	voteDate, err := asTime(row[schema.ColVoteDate])
	if err != nil {
		return rec, fmt.Errorf("roll call %s: %w", rc.ID, err)
	}
	rc.VoteDate = voteDate
	rc.Title = asString(row[schema.ColVoteTitle])
	rc.DocumentText = asString(row[schema.ColVoteDocumentText])
	rc.MajorityRequirement = asString(row[schema.ColMajorityRequirement])
	rc.Result = asString(row[schema.ColVoteResult])
	rc.Tally.Yeas = asIntPtr(row[schema.ColCountYea])
	rc.Tally.Nays = asIntPtr(row[schema.ColCountNay])
	rc.Tally.Abstain = asIntPtr(row[schema.ColCountAbstain])
	whom, hasWhom := row[schema.ColTieBreakerWhom]
	vote, hasVote := row[schema.ColTieBreakerVote]
	if (hasWhom && whom != nil) || (hasVote && vote != nil) {
		rc.TieBreaker = &models.TieBreaker{ByWhom: asString(whom), Vote: asString(vote)}
	}
	for name, v := range row {
		switch schema.Classify(name) {
		case schema.KindSeat:
			if n, ok := asInt(v); ok {
				rec.Seats[name] = models.Cast(n)
			}
		case schema.KindAggregate:
			n, _ := asInt(v)
			rec.Totals[name] = n
		}
	}
	return rec, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case int:
		return t, true
	case []byte:
		n, err := strconv.Atoi(string(t))
		return n, err == nil
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

func asIntPtr(v any) *int {
	n, ok := asInt(v)
	if !ok {
		return nil
	}
	return &n
}

var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string, []byte:
		s := asString(t)
		for _, layout := range storedTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}
