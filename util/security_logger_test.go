package util

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestLogger creates a test logger that captures output and returns it for assertions
// along with a cleanup function to restore the original logger
func setupTestLogger() (*bytes.Buffer, func()) {
	buf := &bytes.Buffer{}
	originalLogger := securityLogger
	securityLogger = log.New(buf, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix)
	cleanup := func() {
		securityLogger = originalLogger
	}
	return buf, cleanup
}

// assertLogContains checks if the log output contains all expected substrings
func assertLogContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, expectedSubstr := range expected {
		if !strings.Contains(output, expectedSubstr) {
			t.Errorf("Log output missing expected substring %q\nGot: %s", expectedSubstr, output)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "removes newlines", input: "hello\nworld", expected: "hello world"},
		{name: "removes carriage returns", input: "hello\rworld", expected: "hello world"},
		{name: "removes tabs", input: "hello\tworld", expected: "hello world"},
		{name: "truncates long values", input: strings.Repeat("a", 250), expected: strings.Repeat("a", 200) + "..."},
		{name: "handles empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeLogValue(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestLogSecurityEventSanitization(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		UserID:    "456",
		Email:     "user@example.com",
		IP:        "192.168.1.2",
		UserAgent: "Chrome",
		Message:   "Failed\nlogin\rattempt",
	})

	assertLogContains(t, buf.String(), []string{
		"Event=LOGIN_FAILURE",
		"Message=Failed login attempt",
	})
}

func TestGatewayEventLogging(t *testing.T) {
	m := model.Measurement{Model: gorm.Model{ID: 7}, DeviceID: 3, Category: model.CategoryBloodPressure}

	tests := []struct {
		name     string
		logFunc  func()
		contains []string
	}{
		{
			name:     "LogDeviceRegistered",
			logFunc:  func() { LogDeviceRegistered(12, "p@example.com", "192.168.1.1", "SN-1") },
			contains: []string{"Event=DEVICE_REGISTERED", "UserID=12", "Message=Device SN-1 registered", "DetailsCount=1"},
		},
		{
			name:     "LogDeviceRemoved",
			logFunc:  func() { LogDeviceRemoved(12, "p@example.com", "192.168.1.1", 3) },
			contains: []string{"Event=DEVICE_REMOVED", "Message=Device 3 removed"},
		},
		{
			name:     "LogMeasurementRecorded",
			logFunc:  func() { LogMeasurementRecorded(12, "p@example.com", "192.168.1.1", m) },
			contains: []string{"Event=MEASUREMENT_RECORDED", "Measurement 7 (pressione) recorded from device 3", "DetailsCount=3"},
		},
		{
			name:     "LogPredictionRequested",
			logFunc:  func() { LogPredictionRequested(12, "p@example.com", "192.168.1.1", 1) },
			contains: []string{"Event=PREDICTION_REQUESTED", "Message=Risk prediction requested"},
		},
		{
			name:     "LogUnauthorizedAccess",
			logFunc:  func() { LogUnauthorizedAccess("101", "user@example.com", "192.168.1.4", "/avvioMisurazione", "caller is not a patient") },
			contains: []string{"Event=UNAUTHORIZED_ACCESS", "Message=Unauthorized access to /avvioMisurazione: caller is not a patient"},
		},
		{
			name:     "LogRateLimitExceeded",
			logFunc:  func() { LogRateLimitExceeded("", "192.168.1.5", "/login") },
			contains: []string{"Event=RATE_LIMIT_EXCEEDED", "Message=Rate limit exceeded for endpoint: /login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, cleanup := setupTestLogger()
			defer cleanup()

			tt.logFunc()
			assertLogContains(t, buf.String(), tt.contains)
		})
	}
}

func TestLogSecurityEventPersists(t *testing.T) {
	_, cleanup := setupTestLogger()
	defer cleanup()

	dsn := fmt.Sprintf("file:security_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.SecurityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	SetSecurityLoggerDB(db)
	defer SetSecurityLoggerDB(nil)

	LogDeviceRemoved(5, "p@example.com", "10.0.0.9", 42)

	var entries []model.SecurityLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(entries))
	}
	if entries[0].EventType != string(EventDeviceRemoved) || entries[0].UserID != "5" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if !strings.Contains(string(entries[0].Details), `"device_id":42`) {
		t.Errorf("expected details to carry device id, got %s", entries[0].Details)
	}
}
