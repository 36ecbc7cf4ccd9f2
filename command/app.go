package command

import (
	"fmt"

	"github.com/ariebrainware/measurement-gateway/config"
	"github.com/ariebrainware/measurement-gateway/logger"
	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every command needs: configuration, a logger and the database.
type app struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *gorm.DB
}

func newApp() (*app, error) {
	cfg := config.LoadConfig()

	zl, err := logger.NewProductionLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log := logger.Sugar(zl)

	if cfg.JWTSecret != "" {
		util.SetJWTSecret(cfg.JWTSecret)
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// migrate creates or updates the schema and seeds the role table.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Device{},
		&model.Measurement{},
		&model.SecurityLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return model.SeedRoles(db)
}
