package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Measurement categories. The category is the discriminator between variants.
const (
	CategoryBloodPressure    = "pressione"
	CategoryGlycemic         = "glicemica"
	CategoryOxygenSaturation = "saturazione"
)

var ErrMeasurementImmutable = errors.New("measurements are append-only")

// KnownCategory reports whether c names a measurement variant.
func KnownCategory(c string) bool {
	switch c {
	case CategoryBloodPressure, CategoryGlycemic, CategoryOxygenSaturation:
		return true
	}
	return false
}

// Measurement stores every variant in one table. Only the fields of the
// variant named by Category are meaningful, and only those are rendered as JSON.
type Measurement struct {
	gorm.Model
	PatientID  uint      `json:"patient_id" gorm:"index;not null"`
	DeviceID   uint      `json:"device_id" gorm:"index"`
	Category   string    `json:"category" gorm:"type:varchar(32);index;not null"`
	MeasuredAt time.Time `json:"measured_at"`

	Systolic        int     `json:"systolic"`
	Diastolic       int     `json:"diastolic"`
	AveragePressure float64 `json:"average_pressure"`
	BeatsPerMinute  int     `json:"beats_per_minute"`

	BloodSugar    float64 `json:"blood_sugar"`
	Cholesterol   float64 `json:"cholesterol"`
	Triglycerides float64 `json:"triglycerides"`

	OxygenSaturation float64 `json:"oxygen_saturation"`
}

// measurementJSON is the wire form of a Measurement. A nil field does not
// belong to the measurement's variant; a zero reading is still rendered.
type measurementJSON struct {
	gorm.Model
	PatientID  uint      `json:"patient_id"`
	DeviceID   uint      `json:"device_id"`
	Category   string    `json:"category"`
	MeasuredAt time.Time `json:"measured_at"`

	Systolic        *int     `json:"systolic,omitempty"`
	Diastolic       *int     `json:"diastolic,omitempty"`
	AveragePressure *float64 `json:"average_pressure,omitempty"`
	BeatsPerMinute  *int     `json:"beats_per_minute,omitempty"`

	BloodSugar    *float64 `json:"blood_sugar,omitempty"`
	Cholesterol   *float64 `json:"cholesterol,omitempty"`
	Triglycerides *float64 `json:"triglycerides,omitempty"`

	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	out := measurementJSON{
		Model:      m.Model,
		PatientID:  m.PatientID,
		DeviceID:   m.DeviceID,
		Category:   m.Category,
		MeasuredAt: m.MeasuredAt,
	}

	switch m.Category {
	case CategoryBloodPressure:
		out.Systolic, out.Diastolic = &m.Systolic, &m.Diastolic
		out.AveragePressure, out.BeatsPerMinute = &m.AveragePressure, &m.BeatsPerMinute
	case CategoryGlycemic:
		out.BloodSugar, out.Cholesterol, out.Triglycerides = &m.BloodSugar, &m.Cholesterol, &m.Triglycerides
	case CategoryOxygenSaturation:
		out.OxygenSaturation, out.BeatsPerMinute = &m.OxygenSaturation, &m.BeatsPerMinute
	default:
		out.Systolic, out.Diastolic = &m.Systolic, &m.Diastolic
		out.AveragePressure, out.BeatsPerMinute = &m.AveragePressure, &m.BeatsPerMinute
		out.BloodSugar, out.Cholesterol, out.Triglycerides = &m.BloodSugar, &m.Cholesterol, &m.Triglycerides
		out.OxygenSaturation = &m.OxygenSaturation
	}
	return json.Marshal(out)
}

type BloodPressure struct {
	Systolic        int
	Diastolic       int
	AveragePressure float64
	BeatsPerMinute  int
}

type Glycemic struct {
	BloodSugar    float64
	Cholesterol   float64
	Triglycerides float64
}

type OxygenSaturation struct {
	Saturation     float64
	BeatsPerMinute int
}

// MeasurementSummary is the display projection of a Measurement.
type MeasurementSummary struct {
	ID         uint      `json:"id"`
	Category   string    `json:"category"`
	MeasuredAt time.Time `json:"measured_at"`
	DeviceID   uint      `json:"device_id"`
	Value      string    `json:"value"`
	Unit       string    `json:"unit"`
}

func NewBloodPressure(patientID, deviceID uint, at time.Time, v BloodPressure) Measurement {
	return Measurement{
		PatientID:       patientID,
		DeviceID:        deviceID,
		Category:        CategoryBloodPressure,
		MeasuredAt:      at,
		Systolic:        v.Systolic,
		Diastolic:       v.Diastolic,
		AveragePressure: v.AveragePressure,
		BeatsPerMinute:  v.BeatsPerMinute,
	}
}

func NewGlycemic(patientID, deviceID uint, at time.Time, v Glycemic) Measurement {
	return Measurement{
		PatientID:     patientID,
		DeviceID:      deviceID,
		Category:      CategoryGlycemic,
		MeasuredAt:    at,
		BloodSugar:    v.BloodSugar,
		Cholesterol:   v.Cholesterol,
		Triglycerides: v.Triglycerides,
	}
}

func NewOxygenSaturation(patientID, deviceID uint, at time.Time, v OxygenSaturation) Measurement {
	return Measurement{
		PatientID:        patientID,
		DeviceID:         deviceID,
		Category:         CategoryOxygenSaturation,
		MeasuredAt:       at,
		OxygenSaturation: v.Saturation,
		BeatsPerMinute:   v.BeatsPerMinute,
	}
}

// BloodPressure returns the blood pressure view. ok is false for other variants.
func (m Measurement) BloodPressure() (BloodPressure, bool) {
	if m.Category != CategoryBloodPressure {
		return BloodPressure{}, false
	}
	return BloodPressure{
		Systolic:        m.Systolic,
		Diastolic:       m.Diastolic,
		AveragePressure: m.AveragePressure,
		BeatsPerMinute:  m.BeatsPerMinute,
	}, true
}

// Glycemic returns the glycemic view. ok is false for other variants.
func (m Measurement) Glycemic() (Glycemic, bool) {
	if m.Category != CategoryGlycemic {
		return Glycemic{}, false
	}
	return Glycemic{
		BloodSugar:    m.BloodSugar,
		Cholesterol:   m.Cholesterol,
		Triglycerides: m.Triglycerides,
	}, true
}

// OxygenSaturationView returns the saturation view. ok is false for other variants.
func (m Measurement) OxygenSaturationView() (OxygenSaturation, bool) {
	if m.Category != CategoryOxygenSaturation {
		return OxygenSaturation{}, false
	}
	return OxygenSaturation{Saturation: m.OxygenSaturation, BeatsPerMinute: m.BeatsPerMinute}, true
}

func (m Measurement) Summary() MeasurementSummary {
	s := MeasurementSummary{
		ID:         m.ID,
		Category:   m.Category,
		MeasuredAt: m.MeasuredAt,
		DeviceID:   m.DeviceID,
	}
	switch m.Category {
	case CategoryBloodPressure:
		s.Value = fmt.Sprintf("%d/%d", m.Systolic, m.Diastolic)
		s.Unit = "mmHg"
	case CategoryGlycemic:
		s.Value = fmt.Sprintf("%g", m.BloodSugar)
		s.Unit = "mg/dL"
	case CategoryOxygenSaturation:
		s.Value = fmt.Sprintf("%g", m.OxygenSaturation)
		s.Unit = "%"
	}
	return s
}

func (m *Measurement) BeforeUpdate(tx *gorm.DB) error {
	return ErrMeasurementImmutable
}

func (m *Measurement) BeforeDelete(tx *gorm.DB) error {
	return ErrMeasurementImmutable
}

// LastOfCategory returns the most recently added measurement of the given
// category. history must be in insertion order.
func LastOfCategory(history []Measurement, category string) (Measurement, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Category == category {
			return history[i], true
		}
	}
	return Measurement{}, false
}
