package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DeviceStatus string

const (
	DeviceRegistered DeviceStatus = "registered"
	DeviceActive     DeviceStatus = "active"
	DeviceRemoved    DeviceStatus = "removed"
)

// Device is a physical measuring instrument. It is bound to at most one
// patient at a time.
type Device struct {
	gorm.Model
	SerialNumber string         `json:"numeroSerie" gorm:"type:varchar(128);uniqueIndex;not null"`
	Category     string         `json:"categoria" gorm:"type:varchar(32);not null"`
	Description  datatypes.JSON `json:"descrizione"`
	PatientID    *uint          `json:"idPaziente" gorm:"index"`
	Status       DeviceStatus   `json:"stato" gorm:"type:varchar(16);not null;default:registered"`
}

// IsBound reports whether the device belongs to a patient and has not been removed.
func (d Device) IsBound() bool {
	return d.PatientID != nil && d.Status != DeviceRemoved
}

// OwnedBy reports whether the device is bound to the given patient.
func (d Device) OwnedBy(patientID uint) bool {
	return d.IsBound() && *d.PatientID == patientID
}
