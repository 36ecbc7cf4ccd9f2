package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Role{}, &model.User{}, &model.Device{}, &model.Measurement{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, roleID uint32) model.User {
	t.Helper()
	user := model.User{
		Name:        email,
		Email:       email,
		DateOfBirth: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "M",
		RoleID:      roleID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

type recordingPublisher struct {
	mu       sync.Mutex
	recorded []model.Measurement
	err      error
}

func (p *recordingPublisher) PublishMeasurementRecorded(_ context.Context, m model.Measurement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.recorded = append(p.recorded, m)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newMeasurementService(db *gorm.DB, pub *recordingPublisher) *GormMeasurementService {
	return NewMeasurementService(db, pub, zap.NewNop().Sugar())
}

func registerDevice(t *testing.T, svc *GormMeasurementService, serial, category string, patientID uint) model.Device {
	t.Helper()
	ok, err := svc.RegisterDevice(context.Background(), description(serial, category), patientID)
	if err != nil || !ok {
		t.Fatalf("failed to register device %s: ok=%v err=%v", serial, ok, err)
	}
	var device model.Device
	if err := svc.db.Where("serial_number = ?", serial).First(&device).Error; err != nil {
		t.Fatalf("failed to load device %s: %v", serial, err)
	}
	return device
}
