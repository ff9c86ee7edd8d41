package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/internal/service"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
	"github.com/noah-isme/circlematch-api/pkg/response"
)

type teacherManager interface {
	ListByOwner(ctx context.Context, actor models.Actor, googleID string) ([]models.Teacher, error)
	Create(ctx context.Context, actor models.Actor, req service.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, actor models.Actor, id int64, req service.TeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	Contact(ctx context.Context, actor models.Actor, id int64) (*models.TeacherContact, error)
}

// TeacherHandler wires the teacher registry to HTTP routes.
type TeacherHandler struct {
	teachers teacherManager
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers teacherManager) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// List godoc
// @Summary List my teacher registrations
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param google_id query string false "Owner Google ID, must be the caller"
// @Success 200 {array} models.Teacher
// @Failure 403 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.teachers.ListByOwner(c.Request.Context(), actor, c.Query("google_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, teachers)
}

// Create godoc
// @Summary Register a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 201 {object} models.Teacher
// @Failure 400 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update a teacher registration
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 200 {object} models.Teacher
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, teacher)
}

// Delete godoc
// @Summary Delete a teacher registration
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{"success": true})
}

// Contact godoc
// @Summary Reveal a cycle partner's email
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Success 200 {object} models.TeacherContact
// @Failure 403 {object} response.Envelope
// @Router /teachers/{id}/contact [get]
func (h *TeacherHandler) Contact(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	contact, err := h.teachers.Contact(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, contact)
}
