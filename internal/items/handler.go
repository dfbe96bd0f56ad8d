package items

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sightline-labs/sightline/internal/shared"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/items", h.List)
	g.GET("/items/:class", h.Get)
}

func (h *Handler) List(c echo.Context) error {
	locs, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list item locations", "error", err)
		return shared.InternalError("list_failed", "failed to list item locations")
	}
	return c.JSON(http.StatusOK, locs)
}

func (h *Handler) Get(c echo.Context) error {
	class := c.Param("class")
	loc, err := h.store.Get(c.Request().Context(), class)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("item_not_found", "no known location for "+class)
		}
		h.logger.Error("failed to get item location", "error", err, "item", class)
		return shared.InternalError("get_failed", "failed to get item location")
	}
	return c.JSON(http.StatusOK, loc)
}
