package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityLog is the persisted audit trail: logins, authorization failures,
// endpoint calls and the device/measurement/prediction operations.
type SecurityLog struct {
	gorm.Model
	EventType string `json:"event_type" gorm:"type:varchar(64);index"`
	// RequestID matches the X-Request-ID header of the request that caused the event.
	RequestID string `json:"request_id" gorm:"type:varchar(64);index"`
	UserID    string `json:"user_id" gorm:"type:varchar(64);index"`
	Email     string `json:"email" gorm:"type:varchar(191);index"`
	IP        string `json:"ip" gorm:"type:varchar(45)"`
	// Location is "City/Country" when the GeoIP database resolves the address.
	Location  string         `json:"location" gorm:"type:varchar(255)"`
	UserAgent string         `json:"user_agent" gorm:"type:varchar(512)"`
	Message   string         `json:"message" gorm:"type:text"`
	Details   datatypes.JSON `json:"details" gorm:"type:json"`
}
