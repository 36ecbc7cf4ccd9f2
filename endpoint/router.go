package endpoint

import (
	"time"

	_ "github.com/ariebrainware/measurement-gateway/docs"
	"github.com/ariebrainware/measurement-gateway/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouterConfig holds what NewRouter needs to wire the HTTP surface.
type RouterConfig struct {
	DB           *gorm.DB
	Log          *zap.SugaredLogger
	Measurements *MeasurementHandler
	Auth         *AuthHandler
	// LoginLimit and PredictionLimit bound requests per client IP. Zero values use the limiter defaults.
	LoginLimit      middleware.RateLimitConfig
	PredictionLimit middleware.RateLimitConfig
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Log),
		middleware.CORSMiddleware(),
		middleware.DatabaseMiddleware(cfg.DB),
		middleware.EndpointCallLogger(),
	)

	router.GET("/health", Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.POST("/login", middleware.RateLimiter(cfg.LoginLimit), cfg.Auth.Login)

	h := cfg.Measurements
	api := router.Group("/", middleware.Authenticate())
	{
		api.POST("/dispositivo/registra", h.RegisterDevice)
		api.POST("/rimuoviDispositivo", h.RemoveDevice)
		api.POST("/FascicoloSanitarioElettronico", h.FullRecord)
		api.POST("/avvioMisurazione", h.StartMeasurement)
		api.POST("/getMisurazioneCategoria", h.MeasurementsByCategory)
		api.POST("/getAllMisurazioniByPaziente", h.MeasurementSummaries)
		api.POST("/getCategorie", h.Categories)
		api.POST("/avvioPredizione", middleware.RateLimiter(cfg.PredictionLimit), h.Predict)
	}

	return router
}

// DefaultPredictionLimit allows a patient a handful of scoring calls per minute.
var DefaultPredictionLimit = middleware.RateLimitConfig{Limit: 10, Window: time.Minute}
