package endpoint

import (
	"context"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/prediction"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserService) FindByID(ctx context.Context, id uint) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserService) IsPatient(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockMeasurementService struct {
	mock.Mock
}

func (m *mockMeasurementService) RegisterDevice(ctx context.Context, description map[string]string, patientID uint) (bool, error) {
	args := m.Called(ctx, description, patientID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeasurementService) RemoveDevice(ctx context.Context, deviceID, patientID uint) error {
	return m.Called(ctx, deviceID, patientID).Error(0)
}

func (m *mockMeasurementService) GetDeviceByID(ctx context.Context, id uint) (model.Device, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Device), args.Error(1)
}

func (m *mockMeasurementService) Save(ctx context.Context, measurement *model.Measurement) error {
	return m.Called(ctx, measurement).Error(0)
}

func (m *mockMeasurementService) GetByPatient(ctx context.Context, patientID uint) ([]model.Measurement, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]model.Measurement), args.Error(1)
}

func (m *mockMeasurementService) GetByCategory(ctx context.Context, category string, patientID uint) ([]model.Measurement, error) {
	args := m.Called(ctx, category, patientID)
	return args.Get(0).([]model.Measurement), args.Error(1)
}

func (m *mockMeasurementService) GetAllSummaries(ctx context.Context, patientID uint) ([]model.MeasurementSummary, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]model.MeasurementSummary), args.Error(1)
}

func (m *mockMeasurementService) ListCategories(ctx context.Context, patientID uint) ([]string, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]string), args.Error(1)
}

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) StartMeasurement(ctx context.Context, d model.Device) (model.Measurement, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(model.Measurement), args.Error(1)
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Score(ctx context.Context, f prediction.Features) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}
