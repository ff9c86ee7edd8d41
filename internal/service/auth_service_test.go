package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/pkg/googleauth"
)

type stubVerifier struct {
	identity *googleauth.Identity
	err      error
	tokens   []string
}

func (s *stubVerifier) Verify(token string) (*googleauth.Identity, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newTestAuthService(verifier *stubVerifier, repo *fakeRegistry) *AuthService {
	return NewAuthService(verifier, repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "circlematch",
		AdminEmails:       []string{" Ops@Example.com "},
		ActiveYear:        testYear,
	})
}

func TestAuthServiceGoogleLogin(t *testing.T) {
	repo := newFakeRegistry()
	repo.add("sub-1", testYear-1, "臺北市", "大安區")
	current := repo.add("sub-1", testYear, "新北市", "板橋區")
	verifier := &stubVerifier{identity: &googleauth.Identity{Subject: "sub-1", Email: "t@example.com", Name: "T", Picture: "https://pic"}}
	svc := newTestAuthService(verifier, repo)

	resp, err := svc.GoogleLogin(context.Background(), models.GoogleLoginRequest{Token: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-token"}, verifier.tokens)
	assert.Equal(t, "sub-1", resp.GoogleID)
	assert.Len(t, resp.Teachers, 2)
	require.NotNil(t, resp.Teacher)
	assert.Equal(t, current.ID, resp.Teacher.ID)
	assert.InDelta(t, 3600, resp.ExpiresIn, 5)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.GoogleID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceGoogleLoginWithoutTeachers(t *testing.T) {
	verifier := &stubVerifier{identity: &googleauth.Identity{Subject: "sub-new", Email: "ops@example.com", EmailVerified: true}}
	svc := newTestAuthService(verifier, newFakeRegistry())

	resp, err := svc.GoogleLogin(context.Background(), models.GoogleLoginRequest{Token: "id-token"})
	require.NoError(t, err)
	assert.Nil(t, resp.Teacher)
	assert.NotNil(t, resp.Teachers)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceAdminRequiresVerifiedEmail(t *testing.T) {
	verifier := &stubVerifier{identity: &googleauth.Identity{Subject: "sub-spoof", Email: "ops@example.com"}}
	svc := newTestAuthService(verifier, newFakeRegistry())

	resp, err := svc.GoogleLogin(context.Background(), models.GoogleLoginRequest{Token: "id-token"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceGoogleLoginRejectsBadToken(t *testing.T) {
	svc := newTestAuthService(&stubVerifier{err: errors.New("token expired")}, newFakeRegistry())

	_, err := svc.GoogleLogin(context.Background(), models.GoogleLoginRequest{Token: "stale"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = svc.GoogleLogin(context.Background(), models.GoogleLoginRequest{})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestAuthServiceValidateTokenRejectsForeignSignatures(t *testing.T) {
	svc := newTestAuthService(&stubVerifier{}, newFakeRegistry())

	claims := &models.JWTClaims{
		GoogleID: "sub-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "circlematch",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	expired := &models.JWTClaims{
		GoogleID: "sub-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "circlematch",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}
