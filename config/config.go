package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `envconfig:"APPNAME" default:"measurement-gateway" json:"appname"`
	AppEnv  string `envconfig:"APPENV" default:"development" json:"appenv"`
	AppPort uint16 `envconfig:"APPPORT" default:"8080" json:"appport"`
	GinMode string `envconfig:"GINMODE" default:"debug" json:"ginmode"`

	DBDriver string `envconfig:"DBDRIVER" default:"mysql" json:"dbdriver"`
	DBHost   string `envconfig:"DBHOST" default:"localhost" json:"dbhost"`
	DBPort   uint16 `envconfig:"DBPORT" default:"3306" json:"dbport"`
	DBName   string `envconfig:"DBNAME" json:"dbname"`
	DBUSER   string `envconfig:"DBUSER" json:"dbuser"`
	DBPass   string `envconfig:"DBPASS" json:"-"`

	JWTSecret string        `envconfig:"JWTSECRET" json:"-"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h" json:"token_ttl"`

	PredictionURL     string        `envconfig:"PREDICTION_URL" default:"http://localhost:8083/" json:"prediction_url"`
	PredictionTimeout time.Duration `envconfig:"PREDICTION_TIMEOUT" default:"5s" json:"prediction_timeout"`

	// DeviceAdapter selects how readings are produced: "stub" or "driver".
	DeviceAdapter       string        `envconfig:"DEVICE_ADAPTER" default:"stub" json:"device_adapter"`
	DeviceDriverURL     string        `envconfig:"DEVICE_DRIVER_URL" json:"device_driver_url"`
	DeviceDriverTimeout time.Duration `envconfig:"DEVICE_DRIVER_TIMEOUT" default:"10s" json:"device_driver_timeout"`

	RedisEnabled bool   `envconfig:"REDIS_ENABLED" default:"false" json:"redis_enabled"`
	RedisAddr    string `envconfig:"REDIS_ADDR" default:"localhost:6379" json:"redis_addr"`
	RedisPass    string `envconfig:"REDIS_PASS" json:"-"`
	RedisDB      int    `envconfig:"REDIS_DB" default:"0" json:"redis_db"`

	AMQPURL   string `envconfig:"AMQP_URL" json:"-"`
	AMQPQueue string `envconfig:"AMQP_QUEUE" default:"measurements" json:"amqp_queue"`

	GeoIPDBPath       string `envconfig:"GEOIP_DB_PATH" json:"geoip_db_path"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info" json:"log_level"`
	UserRoleCacheSize int    `envconfig:"USER_ROLE_CACHE_SIZE" default:"1000" json:"user_role_cache_size"`
}

// IsTest reports whether the application runs under the test environment.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

var config *Config
var once sync.Once

// Load reads the optional .env file and decodes the environment into a new Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		config = cfg
	})
	return config
}

// ConnectDatabase opens a gorm connection for the configured driver.
// Under APPENV=test an isolated in-memory SQLite database is used instead.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()
	if cfg.IsTest() {
		dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", cfg.DBHost, cfg.DBPort, cfg.DBUSER, cfg.DBPass, cfg.DBName)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported DBDRIVER %q", cfg.DBDriver)
	}
}
