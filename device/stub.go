package device

import (
	"context"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
)

// Stub returns fixed readings for every category.
type Stub struct {
	Now func() time.Time
}

func NewStub() *Stub {
	return &Stub{Now: time.Now}
}

func (s *Stub) StartMeasurement(_ context.Context, d model.Device) (model.Measurement, error) {
	if err := checkBound(d); err != nil {
		return model.Measurement{}, err
	}

	now := s.Now().UTC()
	switch d.Category {
	case model.CategoryBloodPressure:
		return model.NewBloodPressure(*d.PatientID, d.ID, now, model.BloodPressure{
			Systolic:        120,
			Diastolic:       80,
			AveragePressure: 93.33,
			BeatsPerMinute:  72,
		}), nil
	case model.CategoryGlycemic:
		return model.NewGlycemic(*d.PatientID, d.ID, now, model.Glycemic{
			BloodSugar:    95,
			Cholesterol:   180,
			Triglycerides: 140,
		}), nil
	case model.CategoryOxygenSaturation:
		return model.NewOxygenSaturation(*d.PatientID, d.ID, now, model.OxygenSaturation{
			Saturation:     98,
			BeatsPerMinute: 72,
		}), nil
	default:
		return model.Measurement{}, util.WrapError(util.ErrInvalidRequest, "device %d has unknown category %q", d.ID, d.Category)
	}
}
