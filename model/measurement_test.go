package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var measuredAt = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func TestMeasurementViews(t *testing.T) {
	bp := NewBloodPressure(1, 2, measuredAt, BloodPressure{Systolic: 120, Diastolic: 80, AveragePressure: 93.3, BeatsPerMinute: 72})
	gl := NewGlycemic(1, 3, measuredAt, Glycemic{BloodSugar: 130, Cholesterol: 210, Triglycerides: 150})
	ox := NewOxygenSaturation(1, 4, measuredAt, OxygenSaturation{Saturation: 97, BeatsPerMinute: 70})

	v, ok := bp.BloodPressure()
	require.True(t, ok)
	assert.Equal(t, 93.3, v.AveragePressure)
	assert.Equal(t, 72, v.BeatsPerMinute)
	_, ok = bp.Glycemic()
	assert.False(t, ok)

	g, ok := gl.Glycemic()
	require.True(t, ok)
	assert.Equal(t, 210.0, g.Cholesterol)
	_, ok = gl.OxygenSaturationView()
	assert.False(t, ok)

	o, ok := ox.OxygenSaturationView()
	require.True(t, ok)
	assert.Equal(t, 97.0, o.Saturation)
	_, ok = ox.BloodPressure()
	assert.False(t, ok)
}

func TestMeasurementSummary(t *testing.T) {
	tests := []struct {
		name  string
		m     Measurement
		value string
		unit  string
	}{
		{"blood pressure", NewBloodPressure(1, 2, measuredAt, BloodPressure{Systolic: 135, Diastolic: 85}), "135/85", "mmHg"},
		{"glycemic", NewGlycemic(1, 2, measuredAt, Glycemic{BloodSugar: 98.5}), "98.5", "mg/dL"},
		{"saturation", NewOxygenSaturation(1, 2, measuredAt, OxygenSaturation{Saturation: 96}), "96", "%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.m.Summary()
			assert.Equal(t, tt.value, s.Value)
			assert.Equal(t, tt.unit, s.Unit)
			assert.Equal(t, tt.m.Category, s.Category)
			assert.Equal(t, uint(2), s.DeviceID)
		})
	}
}

func TestMeasurementIsImmutable(t *testing.T) {
	db := setupTestDB(t, "measurements", &Measurement{})

	m := NewGlycemic(1, 2, measuredAt, Glycemic{BloodSugar: 100, Cholesterol: 190})
	require.NoError(t, db.Create(&m).Error)

	err := db.Model(&m).Update("blood_sugar", 200).Error
	assert.ErrorIs(t, err, ErrMeasurementImmutable)

	err = db.Delete(&m).Error
	assert.ErrorIs(t, err, ErrMeasurementImmutable)

	var found Measurement
	require.NoError(t, db.First(&found, m.ID).Error)
	assert.Equal(t, 100.0, found.BloodSugar)
}

func TestLastOfCategory(t *testing.T) {
	history := []Measurement{
		NewBloodPressure(1, 2, measuredAt, BloodPressure{AveragePressure: 90}),
		NewGlycemic(1, 3, measuredAt, Glycemic{Cholesterol: 180}),
		NewBloodPressure(1, 2, measuredAt, BloodPressure{AveragePressure: 101}),
	}

	last, ok := LastOfCategory(history, CategoryBloodPressure)
	require.True(t, ok)
	assert.Equal(t, 101.0, last.AveragePressure)

	_, ok = LastOfCategory(history, CategoryOxygenSaturation)
	assert.False(t, ok)

	assert.True(t, KnownCategory(CategoryGlycemic))
	assert.False(t, KnownCategory("peso"))
}

func TestMeasurementJSONKeepsZeroReadings(t *testing.T) {
	at := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		m       Measurement
		present map[string]float64
		absent  []string
	}{
		{
			name:    "glycemic with zero triglycerides",
			m:       NewGlycemic(12, 2, at, Glycemic{BloodSugar: 95, Cholesterol: 180}),
			present: map[string]float64{"blood_sugar": 95, "cholesterol": 180, "triglycerides": 0},
			absent:  []string{"systolic", "beats_per_minute", "oxygen_saturation"},
		},
		{
			name:    "blood pressure with zero pulse",
			m:       NewBloodPressure(12, 1, at, BloodPressure{Systolic: 120, Diastolic: 80, AveragePressure: 93.33}),
			present: map[string]float64{"systolic": 120, "diastolic": 80, "average_pressure": 93.33, "beats_per_minute": 0},
			absent:  []string{"blood_sugar", "cholesterol", "oxygen_saturation"},
		},
		{
			name:    "saturation",
			m:       NewOxygenSaturation(12, 3, at, OxygenSaturation{Saturation: 0, BeatsPerMinute: 72}),
			present: map[string]float64{"oxygen_saturation": 0, "beats_per_minute": 72},
			absent:  []string{"systolic", "blood_sugar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.m)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, tt.m.Category, got["category"])
			assert.Equal(t, float64(12), got["patient_id"])
			assert.Contains(t, got, "ID")
			for key, want := range tt.present {
				assert.Contains(t, got, key)
				assert.Equal(t, want, got[key], key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, got, key)
			}
		})
	}
}
