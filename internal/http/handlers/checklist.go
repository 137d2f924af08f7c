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

type CreateChecklistRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	DepartmentID int64  `json:"department_id" binding:"required"`
}

// CreateChecklist creates a checklist for a department and notifies the
// department's employees. The checklist creation is the primary action:
// notification failure is logged and never fails the request.
func (h *Handler) CreateChecklist(c *gin.Context) {
	var req CreateChecklistRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and department_id required"})
		return
	}

	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	dept, err := h.Departments.GetByID(ctx, req.DepartmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department not found"})
			return
		}
		logger.Error("department lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	cl := &domain.Checklist{
		Title:        req.Title,
		Description:  req.Description,
		DepartmentID: dept.ID,
		CreatedBy:    userID,
	}
	if err := h.Checklists.Create(ctx, cl); err != nil {
		logger.Error("checklist create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// assignment notification is additive and best-effort
	if err := h.Notifier.NotifyAssigned(ctx, cl, dept); err != nil {
		logger.Error("assignment notify failed", "checklist", cl.ID, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{"checklist": cl})
}

func (h *Handler) ListChecklists(c *gin.Context) {
	ctx := c.Request.Context()

	if v := c.Query("department_id"); v != "" {
		departmentID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
			return
		}
		list, err := h.Checklists.ListByDepartment(ctx, departmentID)
		if err != nil {
			logger.Error("checklist list failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"checklists": list})
		return
	}

	list, err := h.Checklists.List(ctx)
	if err != nil {
		logger.Error("checklist list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checklists": list})
}

// GetChecklist returns the checklist with its tasks in display order and
// the caller's progress.
func (h *Handler) GetChecklist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, _ := getUserID(c)

	ctx := c.Request.Context()
	cl, err := h.Checklists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		logger.Error("checklist get failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	tasks, err := h.Tasks.ListByChecklist(ctx, id)
	if err != nil {
		logger.Error("task list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	progress, err := h.Completions.Progress(ctx, id, userID)
	if err != nil {
		logger.Error("progress failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklist": cl, "tasks": tasks, "progress": progress})
}

// GetProgress returns the caller's completion progress for a checklist;
// drives the dashboard percentage indicators.
func (h *Handler) GetProgress(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.Completions.Progress(c.Request.Context(), id, userID)
	if err != nil {
		logger.Error("progress failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

type UpdateChecklistRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	DepartmentID int64  `json:"department_id" binding:"required"`
}

func (h *Handler) UpdateChecklist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateChecklistRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and department_id required"})
		return
	}

	cl := &domain.Checklist{
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
	}
	if err := h.Checklists.Update(c.Request.Context(), cl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		logger.Error("checklist update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checklist": cl})
}

func (h *Handler) DeleteChecklist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.Checklists.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		logger.Error("checklist delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
