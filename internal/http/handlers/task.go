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

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   int    `json:"sort_order"`
}

func (h *Handler) CreateTask(c *gin.Context) {
	checklistID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checklist id"})
		return
	}

	var req CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Checklists.GetByID(ctx, checklistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		logger.Error("checklist lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	t := &domain.ChecklistTask{
		ChecklistID: checklistID,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := h.Tasks.Create(ctx, t); err != nil {
		logger.Error("task create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// the new task reverts fullness for everyone on this checklist
	h.Notifier.ResetChecklist(checklistID)

	c.JSON(http.StatusCreated, gin.H{"task": t})
}

func (h *Handler) ListTasks(c *gin.Context) {
	checklistID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checklist id"})
		return
	}

	tasks, err := h.Tasks.ListByChecklist(c.Request.Context(), checklistID)
	if err != nil {
		logger.Error("task list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type UpdateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   int    `json:"sort_order"`
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	t := &domain.ChecklistTask{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := h.Tasks.Update(c.Request.Context(), t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		logger.Error("task update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	ctx := c.Request.Context()
	task, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		logger.Error("task lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if err := h.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		logger.Error("task delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// removing a task changes fullness for everyone on this checklist
	h.Notifier.ResetChecklist(task.ChecklistID)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleTask flips the caller's completion record for the task, then
// recomputes fullness and feeds the transition to the notifier. The steps
// run strictly in order: the completion write is durable before fullness
// is evaluated, and fullness is known before any notification goes out.
func (h *Handler) ToggleTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	task, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		logger.Error("task lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	completed, err := h.Completions.Toggle(ctx, task, userID)
	if err != nil {
		logger.Error("toggle failed", "task", taskID, "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	progress, err := h.Completions.Progress(ctx, task.ChecklistID, userID)
	if err != nil {
		// the toggle itself is already durable; report it
		logger.Error("fullness evaluation failed", "checklist", task.ChecklistID, "error", err)
		c.JSON(http.StatusOK, gin.H{"completed": completed})
		return
	}

	h.notifyCompletion(c, task.ChecklistID, userID, progress.Complete)

	c.JSON(http.StatusOK, gin.H{
		"completed":          completed,
		"checklist_complete": progress.Complete,
		"progress":           progress,
	})
}

// notifyCompletion drives the all-complete notifier. Always additive:
// failures here are logged, never surfaced to the toggling user.
func (h *Handler) notifyCompletion(c *gin.Context, checklistID, userID int64, full bool) {
	ctx := c.Request.Context()

	cl, err := h.Checklists.GetByID(ctx, checklistID)
	if err != nil {
		logger.Error("checklist lookup for notify failed", "checklist", checklistID, "error", err)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		logger.Error("user lookup for notify failed", "user", userID, "error", err)
		return
	}

	if err := h.Notifier.OnCompletionChange(ctx, cl, user, full); err != nil {
		logger.Error("all-complete notify failed", "checklist", checklistID, "error", err)
	}
}
