package pipeline

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sightline-labs/sightline/internal/shared"
	"github.com/sightline-labs/sightline/internal/vision"
)

// maxFrameBytes bounds an uploaded camera frame.
const maxFrameBytes = 8 * 1024 * 1024

type Handler struct {
	processor *Processor
	frames    *vision.FrameStore
	logger    *slog.Logger
}

func NewHandler(processor *Processor, frames *vision.FrameStore, logger *slog.Logger) *Handler {
	return &Handler{
		processor: processor,
		frames:    frames,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/frames", h.IngestFrame)
}

// IngestFrame accepts one encoded camera frame, validates it, stores
// it in the frame window and runs the evaluation pipeline on it.
func (h *Handler) IngestFrame(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxFrameBytes+1))
	if err != nil {
		return shared.BadRequest("read_failed", "failed to read frame body")
	}
	if len(data) == 0 {
		return shared.BadRequest("empty_frame", "frame body is empty")
	}
	if len(data) > maxFrameBytes {
		return shared.BadRequest("frame_too_large", "frame exceeds size limit")
	}

	if _, _, err := vision.Decode(data); err != nil {
		return shared.UnprocessableEntity("invalid_frame", "frame is not a decodable image")
	}

	ctx := c.Request().Context()
	if err := h.frames.Put(ctx, &vision.Frame{Timestamp: time.Now().UnixMilli(), Data: data}); err != nil {
		h.logger.Warn("failed to store frame", "error", err)
	}

	result, err := h.processor.ProcessFrame(ctx, data)
	if err != nil {
		h.logger.Error("frame processing failed", "error", err)
		return shared.InternalError("processing_failed", "failed to process frame")
	}
	return c.JSON(http.StatusOK, result)
}
