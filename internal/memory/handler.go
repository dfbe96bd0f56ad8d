package memory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sightline-labs/sightline/internal/shared"
	"github.com/sightline-labs/sightline/internal/vision"
)

type Handler struct {
	service *Service
	store   *Store
	frames  *vision.FrameStore
	logger  *slog.Logger
}

func NewHandler(service *Service, store *Store, frames *vision.FrameStore, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		frames:  frames,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/memory/enrollment", h.StartEnrollment)
	g.POST("/memory/enrollment/frames", h.AddFrame)
	g.POST("/memory/enrollment/finish", h.FinishEnrollment)
	g.DELETE("/memory/enrollment", h.CancelEnrollment)
	g.GET("/memory/objects", h.ListObjects)
	g.DELETE("/memory/objects/:name", h.DeleteObject)
	g.GET("/memory/objects/:name/sighting", h.GetSighting)
}

type startEnrollmentRequest struct {
	Name        string `json:"name"`
	SourceClass string `json:"source_class"`
}

func (h *Handler) StartEnrollment(c echo.Context) error {
	var req startEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	if req.Name == "" || req.SourceClass == "" {
		return shared.BadRequest("missing_fields", "name and source_class are required")
	}

	if err := h.service.StartEnrollment(c.Request().Context(), req.Name, req.SourceClass); err != nil {
		if errors.Is(err, shared.ErrDuplicateName) {
			return shared.Conflict("duplicate_name", "an object named "+req.Name+" already exists")
		}
		h.logger.Error("failed to start enrollment", "error", err, "name", req.Name)
		return shared.InternalError("enrollment_failed", "failed to start enrollment")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"name":         req.Name,
		"frame_target": h.service.FrameTarget(),
	})
}

type addFrameRequest struct {
	Box shared.BoundingBox `json:"box"`
}

// AddFrame buffers the latest captured frame into the open session.
func (h *Handler) AddFrame(c echo.Context) error {
	var req addFrameRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}

	frame, err := h.frames.Latest(c.Request().Context())
	if err != nil {
		h.logger.Error("no frame available for enrollment", "error", err)
		return shared.UnprocessableEntity("no_frame", "no recent camera frame available")
	}

	count, err := h.service.AddEnrollmentFrame(c.Request().Context(), frame.Data, req.Box)
	if err != nil {
		if errors.Is(err, shared.ErrEnrollmentInactive) {
			return shared.Conflict("no_session", "no enrollment session in progress")
		}
		h.logger.Error("failed to add enrollment frame", "error", err)
		return shared.InternalError("frame_failed", "failed to process enrollment frame")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"frame_count":  count,
		"frame_target": h.service.FrameTarget(),
	})
}

func (h *Handler) FinishEnrollment(c echo.Context) error {
	obj, err := h.service.FinishEnrollment(c.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrEnrollmentInactive):
			return shared.Conflict("no_session", "no enrollment session in progress")
		case errors.Is(err, shared.ErrInsufficientFeatures):
			return shared.UnprocessableEntity("insufficient_features", "enrollment frames yielded no usable features")
		case errors.Is(err, shared.ErrDuplicateName):
			return shared.Conflict("duplicate_name", "object name already exists")
		}
		h.logger.Error("failed to finish enrollment", "error", err)
		return shared.InternalError("enrollment_failed", "failed to finish enrollment")
	}
	return c.JSON(http.StatusCreated, obj)
}

func (h *Handler) CancelEnrollment(c echo.Context) error {
	h.service.CancelEnrollment()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListObjects(c echo.Context) error {
	objs, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list remembered objects", "error", err)
		return shared.InternalError("list_failed", "failed to list remembered objects")
	}
	return c.JSON(http.StatusOK, objs)
}

func (h *Handler) DeleteObject(c echo.Context) error {
	name := c.Param("name")
	if err := h.store.Delete(c.Request().Context(), name); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("object_not_found", "no remembered object named "+name)
		}
		h.logger.Error("failed to delete remembered object", "error", err, "name", name)
		return shared.InternalError("delete_failed", "failed to delete remembered object")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSighting(c echo.Context) error {
	name := c.Param("name")
	obj, err := h.store.GetByName(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("object_not_found", "no remembered object named "+name)
		}
		h.logger.Error("failed to look up object", "error", err, "name", name)
		return shared.InternalError("lookup_failed", "failed to look up object")
	}

	sighting, err := h.store.GetSighting(c.Request().Context(), obj.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("sighting_not_found", name+" has not been seen yet")
		}
		h.logger.Error("failed to get sighting", "error", err, "name", name)
		return shared.InternalError("sighting_failed", "failed to get sighting")
	}
	return c.JSON(http.StatusOK, sighting)
}
