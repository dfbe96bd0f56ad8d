package bootstrap

import (
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/sightline-labs/sightline/internal/gateway"
	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/items"
	"github.com/sightline-labs/sightline/internal/memory"
	"github.com/sightline-labs/sightline/internal/navigation"
	"github.com/sightline-labs/sightline/internal/pipeline"
	"github.com/sightline-labs/sightline/internal/vision"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideItemHandler(store *items.Store, logger *slog.Logger) *items.Handler {
	return items.NewHandler(store, logger.With("handler", "items"))
}

func ProvideMemoryHandler(service *memory.Service, store *memory.Store, frames *vision.FrameStore, logger *slog.Logger) *memory.Handler {
	return memory.NewHandler(service, store, frames, logger.With("handler", "memory"))
}

func ProvideNavigationHandler(engine *navigation.Engine, planner navigation.Planner, source gps.Source, logger *slog.Logger) *navigation.Handler {
	return navigation.NewHandler(engine, planner, source, logger.With("handler", "navigation"))
}

func ProvidePipelineHandler(processor *pipeline.Processor, frames *vision.FrameStore, logger *slog.Logger) *pipeline.Handler {
	return pipeline.NewHandler(processor, frames, logger.With("handler", "pipeline"))
}

func ProvideGatewayHandler(hub *gateway.Hub, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(hub, logger.With("handler", "gateway"))
}

type HandlerParams struct {
	fx.In

	ItemHandler       *items.Handler
	MemoryHandler     *memory.Handler
	NavigationHandler *navigation.Handler
	PipelineHandler   *pipeline.Handler
	GatewayHandler    *gateway.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	params.ItemHandler.RegisterRoutes(api)
	params.MemoryHandler.RegisterRoutes(api)
	params.NavigationHandler.RegisterRoutes(api)
	params.PipelineHandler.RegisterRoutes(api)
	params.GatewayHandler.RegisterRoutes(api)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideItemHandler,
		ProvideMemoryHandler,
		ProvideNavigationHandler,
		ProvidePipelineHandler,
		ProvideGatewayHandler,
	),
	fx.Invoke(RegisterRoutes),
)
