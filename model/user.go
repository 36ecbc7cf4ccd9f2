package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Email       string    `json:"email" gorm:"type:varchar(191);uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"type:varchar(255)"`
	DateOfBirth time.Time `json:"date_of_birth"`
	// Gender is "M" or "F".
	Gender string `json:"gender" gorm:"type:varchar(1)"`
	RoleID uint32 `json:"role_id" gorm:"index"`
	Role   Role   `json:"-" gorm:"foreignKey:RoleID"`
}

func (u User) IsPatient() bool {
	return u.RoleID == RolePatient
}
