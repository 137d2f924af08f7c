package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"opschecklist/internal/domain"
	"opschecklist/internal/service"

	"github.com/gin-gonic/gin"
)

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/whoami", JWT(), func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		role, _ := c.Get("role")
		c.JSON(200, gin.H{"user_id": uid, "role": role})
	})
	r.GET("/admin", JWT(), RequireAdmin(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	r := authRouter(t)

	// no header
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status = %d; want 401", w.Code)
	}

	// garbage token
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d; want 401", w.Code)
	}

	// valid token
	token, err := service.GenerateJWT(42, domain.RoleEmployee)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d; want 200, body %s", w.Code, w.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	r := authRouter(t)

	employeeToken, err := service.GenerateJWT(1, domain.RoleEmployee)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	adminToken, err := service.GenerateJWT(2, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+employeeToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee: status = %d; want 403", w.Code)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d; want 200", w.Code)
	}
}
