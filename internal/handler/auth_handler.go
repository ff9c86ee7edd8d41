package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
	"github.com/noah-isme/circlematch-api/pkg/response"
)

type googleAuthenticator interface {
	GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*models.GoogleLoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service googleAuthenticator
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc googleAuthenticator) *AuthHandler {
	return &AuthHandler{service: svc}
}

// GoogleLogin godoc
// @Summary Sign in with Google
// @Description Exchange a Google ID token for an access token and the caller's registrations
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.GoogleLoginRequest true "Google ID token"
// @Success 200 {object} models.GoogleLoginResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /google-login [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req models.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Data(c, http.StatusOK, res)
}
