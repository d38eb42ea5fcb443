package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randomtoy/arcana/internal/app"
	"github.com/randomtoy/arcana/internal/domain"
)

type Handler struct {
	svc       *app.ReadingService
	logger    *slog.Logger
	writeIdle time.Duration
}

// NewHandler wires the reading service to echo. writeIdle bounds how long a
// single fragment write to a slow client may take; zero disables it.
func NewHandler(svc *app.ReadingService, logger *slog.Logger, writeIdle time.Duration) *Handler {
	return &Handler{svc: svc, logger: logger, writeIdle: writeIdle}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.POST("/reading", h.Reading)
	e.POST("/v1/reading", h.Reading)
	e.POST("/api/tarot", h.Reading)
	e.GET("/v1/cards", h.Cards)
	e.GET("/v1/cards/:id", h.Card)
	e.GET("/v1/draw", h.Draw)
}

// RegisterMetrics exposes the gatherer's metrics at /metrics.
func RegisterMetrics(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Reading draws three cards and streams the interpretation as plain text.
func (h *Handler) Reading(c echo.Context) error {
	var req ReadingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	reading, err := h.svc.Open(ctx, req.Question)
	if err != nil {
		return h.mapError(c, err)
	}

	sink := newStreamSink(c, reading.Hand, h.writeIdle)
	res, err := h.svc.Relay(ctx, reading, sink)
	if err != nil {
		if !sink.committed {
			return h.mapError(c, err)
		}
		// Headers are gone; the only signal left is closing the stream early.
		h.logger.WarnContext(ctx, "stream terminated early", "fragments", res.Fragments, "error", err)
		return nil
	}

	sink.commit()
	return nil
}

func (h *Handler) Cards(c echo.Context) error {
	deck := h.svc.Deck()
	return c.JSON(http.StatusOK, DeckResponse{ID: deck.ID, Name: deck.Name, Cards: deck.Cards})
}

func (h *Handler) Card(c echo.Context) error {
	card, ok := h.svc.Card(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "card not found"})
	}
	return c.JSON(http.StatusOK, card)
}

// Draw returns a fresh spread without an interpretation.
func (h *Handler) Draw(c echo.Context) error {
	hand, err := h.svc.Draw()
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toHandResponse(hand))
}

func (h *Handler) mapError(c echo.Context, err error) error {
	ctx := c.Request().Context()

	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		h.logger.InfoContext(ctx, "client went away before the stream started")
		return nil
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrStreamInterrupted):
		h.logger.ErrorContext(ctx, "upstream LLM failure", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upstream LLM failure"})
	default:
		h.logger.ErrorContext(ctx, "internal error", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
