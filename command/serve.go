package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/measurement-gateway/config"
	"github.com/ariebrainware/measurement-gateway/device"
	"github.com/ariebrainware/measurement-gateway/endpoint"
	"github.com/ariebrainware/measurement-gateway/events"
	"github.com/ariebrainware/measurement-gateway/prediction"
	"github.com/ariebrainware/measurement-gateway/service"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	if err := migrate(a.db); err != nil {
		return err
	}
	util.SetSecurityLoggerDB(a.db)
	util.InitUserRoleCache(cfg.UserRoleCacheSize)

	if _, err := config.ConnectRedis(); err != nil {
		log.Warnw("redis unavailable, rate limiting disabled", "error", err)
	}

	if cfg.GeoIPDBPath != "" {
		if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
			log.Warnw("geoip database not loaded", "path", cfg.GeoIPDBPath, "error", err)
		}
		defer util.CloseGeoIP()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer publisher.Close()

	adapter, err := device.NewAdapter(cfg.DeviceAdapter, cfg.DeviceDriverURL, cfg.DeviceDriverTimeout, log)
	if err != nil {
		return err
	}

	users := service.NewUserService(a.db)
	gin.SetMode(cfg.GinMode)
	router := endpoint.NewRouter(endpoint.RouterConfig{
		DB:  a.db,
		Log: log,
		Measurements: &endpoint.MeasurementHandler{
			Users:        users,
			Measurements: service.NewMeasurementService(a.db, publisher, log),
			Adapter:      adapter,
			Scorer:       prediction.NewClient(cfg.PredictionURL, cfg.PredictionTimeout, log),
			Log:          log,
			Now:          time.Now,
		},
		Auth:            &endpoint.AuthHandler{Users: users, TokenTTL: cfg.TokenTTL},
		PredictionLimit: endpoint.DefaultPredictionLimit,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting server", "app", cfg.AppName, "addr", srv.Addr, "env", cfg.AppEnv)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
