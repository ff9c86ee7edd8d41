package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/circlematch-api/internal/models"
)

type referenceSource interface {
	Counties() []models.County
	Subjects() []string
}

// ReferenceHandler serves static lookup lists.
type ReferenceHandler struct {
	source referenceSource
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(source referenceSource) *ReferenceHandler {
	return &ReferenceHandler{source: source}
}

// Districts godoc
// @Summary List counties and their districts
// @Tags Reference
// @Produce json
// @Success 200 {array} models.County
// @Router /districts [get]
func (h *ReferenceHandler) Districts(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.JSON(http.StatusOK, h.source.Counties())
}

// Subjects godoc
// @Summary List teaching subjects
// @Tags Reference
// @Produce json
// @Success 200 {array} string
// @Router /subjects [get]
func (h *ReferenceHandler) Subjects(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.JSON(http.StatusOK, h.source.Subjects())
}

