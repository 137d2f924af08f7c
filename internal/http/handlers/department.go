package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"opschecklist/internal/domain"
	"opschecklist/internal/logger"
	"opschecklist/internal/repository"

	"github.com/gin-gonic/gin"
)

type DepartmentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	d := &domain.Department{Name: req.Name}
	if err := h.Departments.Create(c.Request.Context(), d); err != nil {
		logger.Error("department create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": d})
}

func (h *Handler) ListDepartments(c *gin.Context) {
	list, err := h.Departments.List(c.Request.Context())
	if err != nil {
		logger.Error("department list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": list})
}

// MyDepartments returns the departments the caller is assigned to.
func (h *Handler) MyDepartments(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.Departments.ListUserDepartments(c.Request.Context(), userID)
	if err != nil {
		logger.Error("my departments failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": list})
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req DepartmentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	d := &domain.Department{ID: id, Name: req.Name}
	if err := h.Departments.Update(c.Request.Context(), d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
			return
		}
		logger.Error("department update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": d})
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.Departments.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
			return
		}
		logger.Error("department delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type AssignmentRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *Handler) AssignUser(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req AssignmentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	if err := h.Departments.Assign(c.Request.Context(), req.UserID, departmentID); err != nil {
		logger.Error("assign failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": true})
}

func (h *Handler) UnassignUser(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	if err := h.Departments.Unassign(c.Request.Context(), userID, departmentID); err != nil {
		logger.Error("unassign failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unassigned": true})
}

// DepartmentUsers returns the employees assigned to a department.
func (h *Handler) DepartmentUsers(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	users, err := h.Departments.ListAssignedUsers(c.Request.Context(), departmentID)
	if err != nil {
		logger.Error("department users failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
