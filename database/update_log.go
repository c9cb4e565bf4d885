package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"senate-votes/models"
)

const updateLogRowID = 1

// SetLastUpdated overwrites the single update log row.
func (s *Store) SetLastUpdated(entry models.UpdateLog) error {
	entry.ID = updateLogRowID
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_updated", "run_id", "new_count"}),
	}).Create(&entry).Error
}

// LastUpdated returns nil when no run has completed yet.
func (s *Store) LastUpdated() (*models.UpdateLog, error) {
	var entry models.UpdateLog
	if err := s.db.First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
