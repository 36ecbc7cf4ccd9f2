package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariebrainware/measurement-gateway/events"
	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keys of a device description.
const (
	DescriptionSerial   = "numeroSerie"
	DescriptionCategory = "categoria"
)

type MeasurementService interface {
	// RegisterDevice binds the described device to patientID. It returns
	// false when the description is invalid or the device is bound already.
	RegisterDevice(ctx context.Context, description map[string]string, patientID uint) (bool, error)
	RemoveDevice(ctx context.Context, deviceID, patientID uint) error
	GetDeviceByID(ctx context.Context, id uint) (model.Device, error)
	Save(ctx context.Context, m *model.Measurement) error
	GetByPatient(ctx context.Context, patientID uint) ([]model.Measurement, error)
	GetByCategory(ctx context.Context, category string, patientID uint) ([]model.Measurement, error)
	GetAllSummaries(ctx context.Context, patientID uint) ([]model.MeasurementSummary, error)
	ListCategories(ctx context.Context, patientID uint) ([]string, error)
}

type GormMeasurementService struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *zap.SugaredLogger
}

func NewMeasurementService(db *gorm.DB, publisher events.Publisher, log *zap.SugaredLogger) *GormMeasurementService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &GormMeasurementService{db: db, publisher: publisher, log: log}
}

func (s *GormMeasurementService) RegisterDevice(ctx context.Context, description map[string]string, patientID uint) (bool, error) {
	serial := description[DescriptionSerial]
	category := description[DescriptionCategory]
	if serial == "" || !model.KnownCategory(category) {
		s.log.Infow("device description rejected", "serial", serial, "category", category)
		return false, nil
	}

	raw, err := json.Marshal(description)
	if err != nil {
		return false, fmt.Errorf("marshal device description: %w", err)
	}

	registered := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device model.Device
		err := tx.Where("serial_number = ?", serial).First(&device).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			device = model.Device{
				SerialNumber: serial,
				Category:     category,
				Description:  datatypes.JSON(raw),
				PatientID:    &patientID,
				Status:       model.DeviceRegistered,
			}
			if err := tx.Create(&device).Error; err != nil {
				return err
			}
			registered = true
			return nil
		}
		if err != nil {
			return err
		}

		if device.IsBound() {
			return nil
		}
		device.Category = category
		device.Description = datatypes.JSON(raw)
		device.PatientID = &patientID
		device.Status = model.DeviceRegistered
		if err := tx.Save(&device).Error; err != nil {
			return err
		}
		registered = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return registered, nil
}

func (s *GormMeasurementService) RemoveDevice(ctx context.Context, deviceID, patientID uint) error {
	device, err := s.GetDeviceByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if !device.OwnedBy(patientID) {
		return util.WrapError(util.ErrForbidden, "device %d is not bound to patient %d", deviceID, patientID)
	}

	return s.db.WithContext(ctx).Model(&device).Updates(map[string]interface{}{
		"patient_id": nil,
		"status":     model.DeviceRemoved,
	}).Error
}

func (s *GormMeasurementService) GetDeviceByID(ctx context.Context, id uint) (model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).First(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, util.WrapError(util.ErrNotFound, "device %d", id)
	}
	return device, err
}

// Save stores a new measurement and activates the device that produced it.
// The measurement.recorded event is published after commit; a publish
// failure is logged and does not undo the write.
func (s *GormMeasurementService) Save(ctx context.Context, m *model.Measurement) error {
	if m.ID != 0 {
		return model.ErrMeasurementImmutable
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The device may have been removed while the reading was taken.
		var device model.Device
		err := lockForUpdate(tx).
			Where("id = ? AND patient_id = ? AND status <> ?", m.DeviceID, m.PatientID, model.DeviceRemoved).
			First(&device).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.WrapError(util.ErrDeviceNotRegistered, "device %d is not bound to patient %d", m.DeviceID, m.PatientID)
		}
		if err != nil {
			return err
		}

		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if device.Status != model.DeviceRegistered {
			return nil
		}
		return tx.Model(&device).Update("status", model.DeviceActive).Error
	})
	if err != nil {
		return err
	}

	if err := s.publisher.PublishMeasurementRecorded(ctx, *m); err != nil {
		s.log.Warnw("failed to publish measurement event", "measurement_id", m.ID, "error", err)
	}
	return nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *GormMeasurementService) GetByPatient(ctx context.Context, patientID uint) ([]model.Measurement, error) {
	measurements := []model.Measurement{}
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("id ASC").
		Find(&measurements).Error
	return measurements, err
}

func (s *GormMeasurementService) GetByCategory(ctx context.Context, category string, patientID uint) ([]model.Measurement, error) {
	measurements := []model.Measurement{}
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND category = ?", patientID, category).
		Order("id ASC").
		Find(&measurements).Error
	return measurements, err
}

func (s *GormMeasurementService) GetAllSummaries(ctx context.Context, patientID uint) ([]model.MeasurementSummary, error) {
	measurements, err := s.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.MeasurementSummary, 0, len(measurements))
	for _, m := range measurements {
		summaries = append(summaries, m.Summary())
	}
	return summaries, nil
}

// ListCategories returns the distinct categories of a patient's history in
// the order they were first recorded.
func (s *GormMeasurementService) ListCategories(ctx context.Context, patientID uint) ([]string, error) {
	var all []string
	err := s.db.WithContext(ctx).
		Model(&model.Measurement{}).
		Where("patient_id = ?", patientID).
		Order("id ASC").
		Pluck("category", &all).Error
	if err != nil {
		return nil, err
	}

	categories := []string{}
	for _, c := range all {
		if !util.Contains(c, categories) {
			categories = append(categories, c)
		}
	}
	return categories, nil
}
