package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/sightline-labs/sightline/internal/audio"
	"github.com/sightline-labs/sightline/internal/gateway"
	"github.com/sightline-labs/sightline/internal/health"
	"github.com/sightline-labs/sightline/internal/navigation"
	"github.com/sightline-labs/sightline/internal/synthesis"
	"github.com/sightline-labs/sightline/internal/vision"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	qdrantClient *qdrant.Client,
	tts *synthesis.Client,
	detector *vision.DetectorClient,
	scheduler *audio.Scheduler,
	nav *navigation.Engine,
	hub *gateway.Hub,
) *health.Handler {
	return health.NewHandler(db, redisClient, qdrantClient, tts, detector, scheduler, nav, hub, version)
}

func RegisterHealthRoutes(e *echo.Echo, handler *health.Handler) {
	handler.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
