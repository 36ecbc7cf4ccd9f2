package model

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	RoleAdmin   uint32 = 1
	RoleDoctor  uint32 = 2
	RolePatient uint32 = 3
)

type Role struct {
	ID   uint32 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

// SeedRoles inserts the fixed role table. Existing rows are left untouched.
func SeedRoles(db *gorm.DB) error {
	roles := []Role{
		{ID: RoleAdmin, Name: "Admin"},
		{ID: RoleDoctor, Name: "Medico"},
		{ID: RolePatient, Name: "Paziente"},
	}

	for _, role := range roles {
		var existingRole Role
		err := db.Where("id = ?", role.ID).First(&existingRole).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}
