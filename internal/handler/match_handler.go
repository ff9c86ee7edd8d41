package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/internal/service"
	"github.com/noah-isme/circlematch-api/pkg/response"
)

type matchLister interface {
	List(ctx context.Context, query models.MatchQuery) (*service.MatchListing, error)
}

type matchExporter interface {
	ExportMatches(ctx context.Context, actor models.Actor, year int, format string) (*service.ExportFile, error)
}

// MatchHandler serves computed transfer cycles.
type MatchHandler struct {
	matches matchLister
	exports matchExporter
}

// NewMatchHandler constructs a MatchHandler.
func NewMatchHandler(matches matchLister, exports matchExporter) *MatchHandler {
	return &MatchHandler{matches: matches, exports: exports}
}

// List godoc
// @Summary List transfer cycles
// @Description Every feasible transfer cycle of a year, shortest first.
// @Tags Matches
// @Produce json
// @Param year query int false "ROC year, defaults to the active year"
// @Param teacher_id query int false "Only cycles involving this teacher"
// @Success 200 {array} models.MatchResult
// @Failure 400 {object} response.Envelope
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	teacherID, err := queryInt(c, "teacher_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	listing, err := h.matches.List(c.Request.Context(), models.MatchQuery{Year: int(year), TeacherID: teacherID})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Cache", listing.Source)
	c.Header("X-Registry-Version", strconv.FormatInt(listing.Version, 10))
	c.Header("X-Match-Truncated", strconv.FormatBool(listing.Truncated))
	if listing.Truncated {
		c.Header("X-Match-Truncated-Reason", listing.TruncatedReason)
	}
	response.Data(c, http.StatusOK, listing.Results)
}

// Export godoc
// @Summary Export my transfer cycles
// @Tags Matches
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param year query int false "ROC year"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /matches/export [get]
func (h *MatchHandler) Export(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.ExportMatches(c.Request.Context(), actor, int(year), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
