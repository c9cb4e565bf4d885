package schema

import (
	"errors"
	"fmt"
	"sort"

	"senate-votes/models"
)

var (
	// ErrUnknownMember is returned when a vote names a senator that is not
	// in the roster.
	ErrUnknownMember = errors.New("unknown member")
	// ErrAmbiguousMember is returned when more than one roster entry
	// shares the voter's last name and state. The lookup refuses to pick.
	ErrAmbiguousMember = errors.New("ambiguous member")
	// ErrRosterOverflow is returned when a state has more than two roster
	// entries.
	ErrRosterOverflow = errors.New("more than two senators for state")
	// ErrDuplicateSeat is returned when two votes in one roll call resolve
	// to the same seat.
	ErrDuplicateSeat = errors.New("duplicate seat in roll call")
)

const seatsPerState = 2

type memberKey struct {
	lastName string
	state    string
}

// AssignSlots gives each roster entry an ordinal within its state in
// first-seen order and sets its column slot.
func AssignSlots(roster []models.Senator) ([]models.Senator, error) {
	ret := make([]models.Senator, len(roster))
	perState := make(map[string]int)
	for idx, s := range roster {
		ordinal := perState[s.State]
		if ordinal >= seatsPerState {
			return nil, fmt.Errorf("%w: %s (%s)", ErrRosterOverflow, s.State, s.LastName)
		}
		perState[s.State] = ordinal + 1
		s.Ordinal = ordinal
		s.ColumnSlot = SlotName(s.State, ordinal)
		ret[idx] = s
	}
	return ret, nil
}

// SeatMap resolves (last name, state) to a column slot. It is built once
// before any roll call is processed and never modified afterwards.
type SeatMap struct {
	slots     map[memberKey]string
	ambiguous map[memberKey]struct{}
	senators  map[string]models.Senator
}

// NewSeatMap builds the lookup from persisted roster entries, which must
// already carry their column slots.
func NewSeatMap(roster []models.Senator) (*SeatMap, error) {
	m := &SeatMap{
		slots:     make(map[memberKey]string, len(roster)),
		ambiguous: make(map[memberKey]struct{}),
		senators:  make(map[string]models.Senator, len(roster)),
	}
	for _, s := range roster {
		if s.ColumnSlot == "" {
			return nil, fmt.Errorf("roster entry %s (%s) has no column slot", s.LastName, s.State)
		}
		if _, ok := m.senators[s.ColumnSlot]; ok {
			return nil, fmt.Errorf("column slot %s assigned twice", s.ColumnSlot)
		}
		m.senators[s.ColumnSlot] = s
		key := memberKey{lastName: s.LastName, state: s.State}
		if _, ok := m.slots[key]; ok {
			m.ambiguous[key] = struct{}{}
			continue
		}
		m.slots[key] = s.ColumnSlot
	}
	return m, nil
}

// Slot returns the column slot for a voter.
func (m *SeatMap) Slot(lastName, state string) (string, error) {
	key := memberKey{lastName: lastName, state: state}
	if _, ok := m.ambiguous[key]; ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrAmbiguousMember, lastName, state)
	}
	slot, ok := m.slots[key]
	if !ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnknownMember, lastName, state)
	}
	return slot, nil
}

// Slots returns every column slot, sorted.
func (m *SeatMap) Slots() []string {
	ret := make([]string, 0, len(m.senators))
	for slot := range m.senators {
		ret = append(ret, slot)
	}
	sort.Strings(ret)
	return ret
}

// holder returns the roster entry holding a slot.
func (m *SeatMap) holder(slot string) (models.Senator, bool) {
	s, ok := m.senators[slot]
	return s, ok
}
