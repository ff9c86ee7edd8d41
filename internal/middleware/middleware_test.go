package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/internal/service"
	appErrors "github.com/noah-isme/circlematch-api/pkg/errors"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(validator), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.GoogleID)
	})
	r.GET("/admin", JWT(validator), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	r := newRouter(staticValidator{
		"teacher": {GoogleID: "g-1", Role: models.RoleTeacher},
		"admin":   {GoogleID: "g-2", Role: models.RoleAdmin},
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "Bearer nope").Code)

	rec := serve(r, "/me", "Bearer teacher")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "g-1", rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(staticValidator{
		"teacher": {GoogleID: "g-1", Role: models.RoleTeacher},
		"admin":   {GoogleID: "g-2", Role: models.RoleAdmin},
	})

	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", "Bearer teacher").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "/admin", "Bearer admin").Code)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/api/teachers/:id", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusOK)
	})

	serve(r, "/api/teachers/7", "")
	serve(r, "/api/teachers/8", "")

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.Greater(t, snap.AverageRequestDurationMs, 0.0)
}

func TestMetricsMiddlewareFoldsUnmatchedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/api/matches", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/api/matches", "")
	for i := 0; i < 20; i++ {
		serve(r, fmt.Sprintf("/scan/%d", i), "")
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]struct{}{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = struct{}{}
				}
			}
		}
	}
	assert.Equal(t, map[string]struct{}{"/api/matches": {}, unmatchedRoute: {}}, paths)
	assert.Equal(t, "OTHER", methodLabel("PROPFIND"))
}
