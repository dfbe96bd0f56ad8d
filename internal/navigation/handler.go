package navigation

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/shared"
)

type Handler struct {
	engine  *Engine
	planner Planner
	source  gps.Source
	logger  *slog.Logger
}

func NewHandler(engine *Engine, planner Planner, source gps.Source, logger *slog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		planner: planner,
		source:  source,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/navigation/start", h.Start)
	g.POST("/navigation/stop", h.Stop)
	g.GET("/navigation", h.Status)
}

type startRequest struct {
	Destination string     `json:"destination"`
	Mode        TravelMode `json:"mode,omitempty"`
}

func (h *Handler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	if req.Destination == "" {
		return shared.BadRequest("missing_destination", "destination is required")
	}

	origin, ok := h.source.Position()
	if !ok {
		return shared.UnprocessableEntity("no_fix", "no GPS fix available")
	}

	route, err := h.planner.Directions(c.Request().Context(), origin, req.Destination, req.Mode)
	if err != nil {
		if errors.Is(err, shared.ErrNoRoute) {
			return shared.UnprocessableEntity("no_route", "no route found to "+req.Destination)
		}
		h.logger.Error("directions lookup failed", "error", err, "destination", req.Destination)
		return shared.InternalError("planner_failed", "failed to plan route")
	}

	if err := h.engine.Start(route); err != nil {
		if errors.Is(err, shared.ErrNoRoute) {
			return shared.UnprocessableEntity("no_route", "planner returned an empty route")
		}
		h.logger.Error("failed to start navigation", "error", err)
		return shared.InternalError("start_failed", "failed to start navigation")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"destination":     route.Destination,
		"steps":           len(route.Steps),
		"distance_meters": route.DistanceMeters,
		"duration_sec":    route.Duration.Seconds(),
	})
}

func (h *Handler) Stop(c echo.Context) error {
	h.engine.Stop()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Status())
}
