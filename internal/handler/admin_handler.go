package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/pkg/response"
)

type recomputeScheduler interface {
	ScheduleRecompute(year int) error
	ActiveYear() int
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	matches recomputeScheduler
	metrics metricsSnapshotter
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(matches recomputeScheduler, metrics metricsSnapshotter) *AdminHandler {
	return &AdminHandler{matches: matches, metrics: metrics}
}

// Recompute godoc
// @Summary Schedule a match recomputation
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param year query int false "ROC year, defaults to the active year"
// @Success 202 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /admin/matches/recompute [post]
func (h *AdminHandler) Recompute(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	target := int(year)
	if target == 0 {
		target = h.matches.ActiveYear()
	}
	if err := h.matches.ScheduleRecompute(target); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"year": target, "status": "scheduled"})
}

// Metrics godoc
// @Summary Process metrics snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *AdminHandler) Metrics(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"generated_at": snapshot.GeneratedAt})
}
