package handlers

import (
	"errors"
	"net/http"
	"net/mail"

	"opschecklist/internal/domain"
	"opschecklist/internal/logger"
	"opschecklist/internal/repository"
	"opschecklist/internal/service"

	"github.com/gin-gonic/gin"
)

type ProvisionRequest struct {
	Action string `json:"action" binding:"required"`

	// create
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`

	// delete
	UserID int64 `json:"userId"`
}

// ProvisionUser is the admin user-management function: create builds the
// account (identity, profile, role) as one atomic write; delete cascades
// assignments, completions, notifications and the profile, and refuses
// self-deletion.
func (h *Handler) ProvisionUser(c *gin.Context) {
	var req ProvisionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action required"})
		return
	}

	callerID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	switch req.Action {
	case "create":
		h.provisionCreate(c, &req)
	case "delete":
		h.provisionDelete(c, callerID, req.UserID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (h *Handler) provisionCreate(c *gin.Context, req *ProvisionRequest) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}
	if req.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name is required"})
		return
	}
	if req.Role != domain.RoleAdmin && req.Role != domain.RoleEmployee {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	user, err := h.Provision.CreateUser(c.Request.Context(), req.Email, req.Password, req.FullName, req.Role, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		logger.Error("user create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) provisionDelete(c *gin.Context, callerID, userID int64) {
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	err := h.Provision.DeleteUser(c.Request.Context(), callerID, userID)
	if err != nil {
		if errors.Is(err, service.ErrSelfDelete) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("user delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListUsers returns all accounts; admin only.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		logger.Error("user list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
