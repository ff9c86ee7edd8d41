package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/circlematch-api/internal/models"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
	"github.com/noah-isme/circlematch-api/pkg/googleauth"
)

type identityVerifier interface {
	Verify(token string) (*googleauth.Identity, error)
}

type ownerLister interface {
	ListByOwner(ctx context.Context, googleID string) ([]models.Teacher, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AdminEmails       []string
	ActiveYear        int
}

// AuthService exchanges Google identities for session tokens.
type AuthService struct {
	verifier  identityVerifier
	teachers  ownerLister
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	admins    map[string]struct{}
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(verifier identityVerifier, teachers ownerLister, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	admins := make(map[string]struct{}, len(config.AdminEmails))
	for _, email := range config.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &AuthService{verifier: verifier, teachers: teachers, validator: validate, logger: logger, config: config, admins: admins}
}

// GoogleLogin verifies the Google ID token, loads the owner's teachers and
// issues an access token.
func (s *AuthService) GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*models.GoogleLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "token is required")
	}

	identity, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.logger.Warn("google token rejected", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	teachers, err := s.teachers.ListByOwner(ctx, identity.Subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}

	role := s.roleFor(identity)
	token, expiresAt, err := s.generateAccessToken(identity, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	resp := &models.GoogleLoginResponse{
		Name:        identity.Name,
		Email:       identity.Email,
		Picture:     identity.Picture,
		GoogleID:    identity.Subject,
		Teachers:    teachers,
		AccessToken: token,
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}
	for i := range teachers {
		if teachers[i].Year == s.config.ActiveYear {
			resp.Teacher = &teachers[i]
			break
		}
	}

	s.logger.Sugar().Infow("google login", "google_id", identity.Subject, "role", role, "teachers", len(teachers))
	return resp, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.GoogleID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// roleFor grants ADMIN only to listed addresses Google has verified.
func (s *AuthService) roleFor(identity *googleauth.Identity) models.UserRole {
	if !identity.EmailVerified || identity.Email == "" {
		return models.RoleTeacher
	}
	if _, ok := s.admins[strings.ToLower(identity.Email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleTeacher
}

func (s *AuthService) generateAccessToken(identity *googleauth.Identity, role models.UserRole) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		GoogleID: identity.Subject,
		Email:    identity.Email,
		Name:     identity.Name,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   identity.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
