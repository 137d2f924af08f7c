package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"opschecklist/internal/service"

	"github.com/gin-gonic/gin"
)

func doProvision(t *testing.T, callerID int64, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{Provision: service.NewProvisionService(nil)}
	r := gin.New()
	r.POST("/functions/admin-users", func(c *gin.Context) {
		c.Set("user_id", callerID)
		c.Set("role", "admin")
	}, h.ProvisionUser)

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", "/functions/admin-users", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestProvisionRejectsSelfDelete(t *testing.T) {
	w, resp := doProvision(t, 7, ProvisionRequest{Action: "delete", UserID: 7})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Cannot delete your own account" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestProvisionDeleteRequiresUserID(t *testing.T) {
	w, resp := doProvision(t, 7, ProvisionRequest{Action: "delete"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Missing required fields" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestProvisionInvalidAction(t *testing.T) {
	w, resp := doProvision(t, 7, ProvisionRequest{Action: "promote"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Invalid action" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestProvisionCreateValidation(t *testing.T) {
	valid := ProvisionRequest{
		Action:   "create",
		Email:    "new@example.com",
		Password: "password123",
		FullName: "New Person",
		Role:     "employee",
	}

	cases := []struct {
		name    string
		mutate  func(r *ProvisionRequest)
		wantErr string
	}{
		{"bad email", func(r *ProvisionRequest) { r.Email = "nope" }, "Invalid email address"},
		{"short password", func(r *ProvisionRequest) { r.Password = "short" }, "Password must be at least 8 characters"},
		{"missing name", func(r *ProvisionRequest) { r.FullName = "" }, "Full name is required"},
		{"bad role", func(r *ProvisionRequest) { r.Role = "owner" }, "Invalid role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			w, resp := doProvision(t, 7, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
			if resp["error"] != tc.wantErr {
				t.Fatalf("error = %q; want %q", resp["error"], tc.wantErr)
			}
		})
	}
}
