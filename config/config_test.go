package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain pins APPENV=test before the LoadConfig singleton is first built.
func TestMain(m *testing.M) {
	os.Setenv("APPENV", "test")
	os.Exit(m.Run())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PREDICTION_URL", "")
	os.Unsetenv("PREDICTION_URL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "http://localhost:8083/", cfg.PredictionURL)
	assert.Equal(t, 5*time.Second, cfg.PredictionTimeout)
	assert.Equal(t, "stub", cfg.DeviceAdapter)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.RedisEnabled)
	assert.True(t, cfg.IsTest())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APPPORT", "9090")
	t.Setenv("PREDICTION_TIMEOUT", "750ms")
	t.Setenv("DEVICE_ADAPTER", "driver")
	t.Setenv("DEVICE_DRIVER_URL", "http://bridge:9000")
	t.Setenv("REDIS_DB", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.AppPort)
	assert.Equal(t, 750*time.Millisecond, cfg.PredictionTimeout)
	assert.Equal(t, "driver", cfg.DeviceAdapter)
	assert.Equal(t, "http://bridge:9000", cfg.DeviceDriverURL)
	assert.Equal(t, 5, cfg.RedisDB)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("APPPORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

// Test that LoadConfig returns a non-nil config and ConnectDatabase uses sqlite under APPENV=test
func TestLoadConfigAndConnectDatabase_TestEnv(t *testing.T) {
	cfg := LoadConfig()
	require.NotNil(t, cfg)

	db, err := ConnectDatabase()
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{driver: "", name: "mysql"},
		{driver: "mysql", name: "mysql"},
		{driver: "postgres", name: "postgres"},
		{driver: "sqlite", name: "sqlite"},
		{driver: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := dialectorFor(&Config{DBDriver: tt.driver, DBName: "gateway"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}
