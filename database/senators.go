package database

import (
	"fmt"

	"gorm.io/gorm"

	"senate-votes/models"
)

// ReplaceRoster swaps the whole roster in one transaction.
func (s *Store) ReplaceRoster(senators []models.Senator) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Senator{}).Error; err != nil {
			return fmt.Errorf("clear roster: %w", err)
		}
		if len(senators) == 0 {
			return nil
		}
		if err := tx.Create(&senators).Error; err != nil {
			return fmt.Errorf("insert roster: %w", err)
		}
		return nil
	})
}

// Roster returns every roster entry in slot order.
func (s *Store) Roster() ([]models.Senator, error) {
	return s.Senators("")
}

// Senators returns the roster, optionally limited to one state.
func (s *Store) Senators(state string) ([]models.Senator, error) {
	query := s.db.Model(&models.Senator{})
	if state != "" {
		query = query.Where("state = ?", state)
	}
	var ret []models.Senator
	if err := query.Order("state ASC").Order("ordinal ASC").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}
