package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/hub"
	"github.com/lexcouncil/lexcouncil/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	hub     *hub.Hub
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, h *hub.Hub) *Handler {
	return &Handler{
		service: service,
		hub:     h,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/research", h.StartResearch)
	e.GET("/v1/runs", h.ListRuns)
	e.GET("/v1/runs/:run_id", h.GetRun)
	e.GET("/v1/runs/:run_id/messages", h.GetRunMessages)
	e.GET("/v1/runs/:run_id/report", h.GetRunReport)
	e.POST("/v1/runs/:run_id/cancel", h.CancelRun)
	e.GET("/v1/runs/:run_id/ws", h.WatchRun)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"version":     "0.1.0",
		"active_runs": h.service.ActiveRuns(),
	})
}

// StartResearch starts a research run for a query.
// POST /v1/research
func (h *Handler) StartResearch(c echo.Context) error {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	runID, err := h.service.StartResearch(req.Query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(domain.RunStatusRunning),
	})
}

// ListRuns lists recent runs.
// GET /v1/runs
func (h *Handler) ListRuns(c echo.Context) error {
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	runs, err := h.service.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun retrieves a run by ID.
// GET /v1/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	runID := c.Param("run_id")

	run, err := h.service.GetRun(c.Request().Context(), runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	return c.JSON(http.StatusOK, run)
}

// GetRunMessages retrieves a run's transcript.
// GET /v1/runs/:run_id/messages
func (h *Handler) GetRunMessages(c echo.Context) error {
	runID := c.Param("run_id")
	phase := domain.Phase(c.QueryParam("phase"))
	if phase != "" && phase != domain.PhaseResearch && phase != domain.PhaseSynthesis {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid phase"})
	}

	ctx := c.Request().Context()
	run, err := h.service.GetRun(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	messages, err := h.service.GetMessages(ctx, runID, phase)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"messages": messages,
	})
}

// GetRunReport retrieves the final report of a completed run.
// GET /v1/runs/:run_id/report
func (h *Handler) GetRunReport(c echo.Context) error {
	runID := c.Param("run_id")

	ctx := c.Request().Context()
	run, err := h.service.GetRun(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	if run.Status != domain.RunStatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{
			"error":  "run not completed",
			"status": string(run.Status),
		})
	}

	report, err := h.service.Report(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"run_id": runID,
		"report": report,
	})
}

// CancelRun requests cooperative stop of an active run.
// POST /v1/runs/:run_id/cancel
func (h *Handler) CancelRun(c echo.Context) error {
	runID := c.Param("run_id")
	if !h.service.Cancel(runID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not active"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"run_id": runID,
		"status": string(domain.RunStatusStopped),
	})
}
