package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

type verifierStub struct {
	claims *models.Claims
}

func (v verifierStub) Validate(token string) (*models.Claims, error) {
	if token != "good" || v.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func hostClaims() *models.Claims {
	return &models.Claims{Roles: []string{"HOST"}, RegisteredClaims: jwt.RegisteredClaims{Subject: "3"}}
}

func serve(router *gin.Engine, header string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(verifierStub{claims: hostClaims()}))
	router.GET("/", func(c *gin.Context) {
		if c.GetString(ContextTokenKey) != "good" {
			t.Errorf("bearer token not stored on context")
		}
		c.Status(http.StatusNoContent)
	})

	if rec := serve(router, "Bearer good"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := serve(router, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rec.Code)
	}
	if rec := serve(router, "Basic good"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
	if rec := serve(router, "Bearer bad"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(OptionalJWT(verifierStub{claims: hostClaims()}))
	router.GET("/", func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})

	if rec := serve(router, "Bearer bad"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected anonymous pass-through, got %d", rec.Code)
	}
	if rec := serve(router, "Bearer good"); rec.Code != http.StatusOK {
		t.Fatalf("expected claims to be attached, got %d", rec.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guest := &models.Claims{Roles: []string{"USER"}, RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}

	cases := []struct {
		name   string
		claims *models.Claims
		want   int
	}{
		{"host", hostClaims(), http.StatusNoContent},
		{"guest", guest, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tc.claims != nil {
					c.Set(ContextUserKey, tc.claims)
				}
			})
			router.Use(RequireRoles(models.RoleHost))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			if rec := serve(router, ""); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(60, 2, nil)
	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		if rec := serve(router, ""); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
		}
	}
	rec := serve(router, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("unexpected Retry-After: %q", rec.Header().Get("Retry-After"))
	}

	if removed := limiter.Cleanup(time.Now().Add(time.Hour)); removed != 1 {
		t.Fatalf("expected idle limiter to be removed, got %d", removed)
	}
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	WithResponseMeta()(c)
	SetCacheHit(c, true)
	SetWarning(c, "")
	SetWarning(c, "calendar may not reflect all occupied dates")

	meta := ExtractMeta(c)
	if meta[cacheHitKey] != true {
		t.Fatalf("expected cache_hit to be recorded, got %v", meta[cacheHitKey])
	}
	if meta[warningKey] != "calendar may not reflect all occupied dates" {
		t.Fatalf("unexpected warning: %v", meta[warningKey])
	}
	if _, ok := meta["processing_time_ms"]; !ok {
		t.Fatalf("expected processing_time_ms")
	}
}
