package service

import (
	"context"
	"fmt"
	"sync"

	"opschecklist/internal/domain"
	"opschecklist/internal/logger"
	"opschecklist/internal/notify"

	"github.com/prometheus/client_golang/prometheus"
)

var notificationsCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "In-app notification records created, by type",
	},
	[]string{"type"},
)

func init() {
	prometheus.MustRegister(notificationsCreated)
}

// AdminLister resolves the recipient set for all-complete notifications.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]*domain.User, error)
}

// AssignedLister resolves the recipient set for assignment notifications.
type AssignedLister interface {
	ListAssignedUsers(ctx context.Context, departmentID int64) ([]*domain.User, error)
}

// NotificationStore persists in-app notification records as a batch.
type NotificationStore interface {
	CreateBatch(ctx context.Context, ns []*domain.Notification) error
}

// Dispatcher is the external side channel (SMS/email). Best-effort only.
type Dispatcher interface {
	Dispatch(ctx context.Context, r notify.Request) error
}

type guardKey struct {
	checklistID int64
	userID      int64
}

// Notifier fans out in-app and external notifications for the two
// transition events: a checklist becoming fully complete for a user, and a
// checklist being assigned to a department.
//
// In-app persistence always precedes external dispatch, and the two are
// separate non-atomic steps: a notify failure never rolls back the
// completion or assignment that triggered it.
type Notifier struct {
	users         AdminLister
	assignments   AssignedLister
	notifications NotificationStore
	dispatcher    Dispatcher

	mu       sync.Mutex
	notified map[guardKey]bool
}

func NewNotifier(users AdminLister, assignments AssignedLister, notifications NotificationStore, dispatcher Dispatcher) *Notifier {
	return &Notifier{
		users:         users,
		assignments:   assignments,
		notifications: notifications,
		dispatcher:    dispatcher,
		notified:      make(map[guardKey]bool),
	}
}

// OnCompletionChange observes the derived fullness for (checklist, user)
// after a toggle. The INCOMPLETE -> COMPLETE transition fires the
// all-complete fan-out exactly once; the guard re-arms whenever fullness
// reverts, so re-entering COMPLETE without leaving it never double-fires.
func (n *Notifier) OnCompletionChange(ctx context.Context, cl *domain.Checklist, user *domain.User, full bool) error {
	key := guardKey{checklistID: cl.ID, userID: user.ID}

	n.mu.Lock()
	if !full {
		delete(n.notified, key)
		n.mu.Unlock()
		return nil
	}
	if n.notified[key] {
		n.mu.Unlock()
		return nil
	}
	n.notified[key] = true
	n.mu.Unlock()

	if err := n.NotifyAllComplete(ctx, cl, user); err != nil {
		// the transition was not consumed; let a later toggle retry
		n.mu.Lock()
		delete(n.notified, key)
		n.mu.Unlock()
		return err
	}
	return nil
}

// ResetChecklist re-arms the transition guard for every user on the
// checklist. Adding or removing a task changes fullness without any toggle
// being observed, so the next time a user reaches COMPLETE it is a fresh
// transition and must fire again.
func (n *Notifier) ResetChecklist(checklistID int64) {
	n.mu.Lock()
	for k := range n.notified {
		if k.checklistID == checklistID {
			delete(n.notified, k)
		}
	}
	n.mu.Unlock()
}

// NotifyAllComplete tells every admin that the user finished the checklist.
// The in-app batch either fully lands or the whole pass fails; external
// dispatch then runs per recipient with a phone number, isolated so one
// failing delivery never blocks the rest.
func (n *Notifier) NotifyAllComplete(ctx context.Context, cl *domain.Checklist, completedBy *domain.User) error {
	admins, err := n.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("resolve admins: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}

	title := "Checklist completed"
	message := fmt.Sprintf("%s has completed all tasks in %q.", completedBy.FullName, cl.Title)

	records := make([]*domain.Notification, 0, len(admins))
	for _, a := range admins {
		records = append(records, &domain.Notification{
			RecipientUserID:    a.ID,
			Title:              title,
			Message:            message,
			Type:               domain.NotificationAllTasksComplete,
			RelatedChecklistID: &cl.ID,
		})
	}
	if err := n.notifications.CreateBatch(ctx, records); err != nil {
		return fmt.Errorf("persist notifications: %w", err)
	}
	notificationsCreated.WithLabelValues(domain.NotificationAllTasksComplete).Add(float64(len(records)))

	n.dispatchEach(ctx, admins, func(recipient *domain.User) notify.Request {
		return notify.Request{
			UserID:           recipient.ID,
			UserEmail:        recipient.Email,
			UserPhone:        recipient.Phone,
			EmployeeName:     completedBy.FullName,
			ChecklistTitle:   cl.Title,
			NotificationType: notify.TypeChecklistCompleted,
			SendSMS:          true,
		}
	})
	return nil
}

// NotifyAssigned tells every employee of the department that a checklist
// was assigned to it. Same persistence-then-dispatch ordering and
// per-recipient isolation as NotifyAllComplete.
func (n *Notifier) NotifyAssigned(ctx context.Context, cl *domain.Checklist, dept *domain.Department) error {
	employees, err := n.assignments.ListAssignedUsers(ctx, dept.ID)
	if err != nil {
		return fmt.Errorf("resolve department users: %w", err)
	}
	if len(employees) == 0 {
		return nil
	}

	title := "New checklist assigned"
	message := fmt.Sprintf("Checklist %q was assigned to %s.", cl.Title, dept.Name)

	records := make([]*domain.Notification, 0, len(employees))
	for _, u := range employees {
		records = append(records, &domain.Notification{
			RecipientUserID:    u.ID,
			Title:              title,
			Message:            message,
			Type:               domain.NotificationChecklistAssigned,
			RelatedChecklistID: &cl.ID,
		})
	}
	if err := n.notifications.CreateBatch(ctx, records); err != nil {
		return fmt.Errorf("persist notifications: %w", err)
	}
	notificationsCreated.WithLabelValues(domain.NotificationChecklistAssigned).Add(float64(len(records)))

	n.dispatchEach(ctx, employees, func(recipient *domain.User) notify.Request {
		return notify.Request{
			UserID:           recipient.ID,
			UserEmail:        recipient.Email,
			UserPhone:        recipient.Phone,
			EmployeeName:     recipient.FullName,
			DepartmentName:   dept.Name,
			ChecklistTitle:   cl.Title,
			NotificationType: notify.TypeChecklistAssigned,
			SendSMS:          true,
		}
	})
	return nil
}

// dispatchEach attempts external delivery once per recipient with a phone
// number. Errors are captured per iteration and logged; partial delivery
// failure is an operational concern, not a caller-visible one.
func (n *Notifier) dispatchEach(ctx context.Context, recipients []*domain.User, build func(*domain.User) notify.Request) {
	if n.dispatcher == nil {
		return
	}

	attempted, failed := 0, 0
	for _, r := range recipients {
		if r.Phone == "" {
			continue
		}
		attempted++
		if err := n.dispatcher.Dispatch(ctx, build(r)); err != nil {
			failed++
			logger.Error("external dispatch failed", "recipient", r.ID, "error", err)
		}
	}
	if failed > 0 {
		logger.Warn("external dispatch partially failed", "attempted", attempted, "failed", failed)
	}
}
