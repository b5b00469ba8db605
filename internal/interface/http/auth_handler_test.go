package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/infrastructure/memory"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/validation"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	jwt := helpers.NewJWTManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	svc := application.NewAuthService(memory.NewStore(), jwt, nil, nil)
	h := NewAuthHandler(svc, testLogger(), "", false)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	return r
}

func doJSONWithCookies(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRefreshEndpoint(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/register", `{"username":"alice@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	issued := w.Result().Cookies()
	refresh := cookieByName(issued, "refresh_token")
	access := cookieByName(issued, "access_token")
	if refresh == nil || access == nil {
		t.Fatalf("register cookies = %v, want access and refresh tokens", issued)
	}

	w = doJSONWithCookies(r, http.MethodPost, "/api/refresh", "", []*http.Cookie{refresh})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
	rotated := w.Result().Cookies()
	if cookieByName(rotated, "access_token") == nil || cookieByName(rotated, "refresh_token") == nil {
		t.Errorf("refresh cookies = %v, want a new pair", rotated)
	}
}

func TestRefreshEndpointRejectsBadTokens(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/register", `{"username":"alice@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	access := cookieByName(w.Result().Cookies(), "access_token")

	// No refresh cookie at all.
	w = doJSONWithCookies(r, http.MethodPost, "/api/refresh", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing cookie: status = %d, want 401", w.Code)
	}

	// An access token signed with the access secret must not pass.
	w = doJSONWithCookies(r, http.MethodPost, "/api/refresh", "", []*http.Cookie{
		{Name: "refresh_token", Value: access.Value},
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("access token as refresh: status = %d, want 401", w.Code)
	}

	w = doJSONWithCookies(r, http.MethodPost, "/api/refresh", "", []*http.Cookie{
		{Name: "refresh_token", Value: "not-a-token"},
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}
