package handlers

import (
	"opschecklist/internal/notify"
	"opschecklist/internal/repository"
	"opschecklist/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB *pgxpool.Pool

	Users         *repository.UserRepository
	Departments   *repository.DepartmentRepository
	Checklists    *repository.ChecklistRepository
	Tasks         *repository.TaskRepository
	Notifications *repository.NotificationRepository

	Completions *service.CompletionService
	Notifier    *service.Notifier
	Provision   *service.ProvisionService

	Email notify.EmailSender
	Text  notify.TextSender
}

func NewHandler(db *pgxpool.Pool, dispatcher service.Dispatcher, email notify.EmailSender, text notify.TextSender) *Handler {
	users := repository.NewUserRepository(db)
	departments := repository.NewDepartmentRepository(db)
	notifications := repository.NewNotificationRepository(db)

	return &Handler{
		DB:            db,
		Users:         users,
		Departments:   departments,
		Checklists:    repository.NewChecklistRepository(db),
		Tasks:         repository.NewTaskRepository(db),
		Notifications: notifications,
		Completions:   service.NewCompletionService(db),
		Notifier:      service.NewNotifier(users, departments, notifications, dispatcher),
		Provision:     service.NewProvisionService(db),
		Email:         email,
		Text:          text,
	}
}

// getUserID extracts the authenticated user id from the gin context.
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
