package models

import "time"

// Senator is a roster entry. ColumnSlot is State followed by Ordinal and
// names the rollcall column holding this senator's casts.
type Senator struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name" gorm:"index:idx_senator_name_state"`
	Party      string `json:"party"`
	State      string `json:"state" gorm:"index:idx_senator_name_state"`
	Ordinal    int    `json:"ordinal"`
	ColumnSlot string `json:"column_slot" gorm:"uniqueIndex"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Website    string `json:"website"`
	BioguideID string `json:"bioguide_id"`
}

func (Senator) TableName() string {
	return "senator"
}

// UpdateLog is the single-row marker of the last successful run.
type UpdateLog struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	LastUpdated time.Time `json:"last_updated"`
	RunID       string    `json:"run_id"`
	NewCount    int       `json:"new_count"`
}

func (UpdateLog) TableName() string {
	return "update_log"
}
