package service

import (
	"context"
	"errors"
	"testing"

	"opschecklist/internal/domain"
	"opschecklist/internal/notify"
)

type fakeAdmins struct {
	admins []*domain.User
	err    error
}

func (f *fakeAdmins) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	return f.admins, f.err
}

type fakeAssigned struct {
	users []*domain.User
}

func (f *fakeAssigned) ListAssignedUsers(ctx context.Context, departmentID int64) ([]*domain.User, error) {
	return f.users, nil
}

type fakeNotificationStore struct {
	batches  [][]*domain.Notification
	failNext bool
}

func (f *fakeNotificationStore) CreateBatch(ctx context.Context, ns []*domain.Notification) error {
	if f.failNext {
		f.failNext = false
		return errors.New("insert failed")
	}
	f.batches = append(f.batches, ns)
	return nil
}

type fakeDispatcher struct {
	requests []notify.Request
	failFor  map[int64]bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, r notify.Request) error {
	f.requests = append(f.requests, r)
	if f.failFor[r.UserID] {
		return errors.New("provider down")
	}
	return nil
}

func admin(id int64, phone string) *domain.User {
	return &domain.User{ID: id, Email: "a@example.com", FullName: "Admin", Phone: phone, Role: domain.RoleAdmin}
}

func testChecklist() *domain.Checklist {
	return &domain.Checklist{ID: 1, Title: "Opening duties", DepartmentID: 2}
}

func TestOnCompletionChangeFiresOnce(t *testing.T) {
	store := &fakeNotificationStore{}
	disp := &fakeDispatcher{}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "+15550001")}}, &fakeAssigned{}, store, disp)

	cl := testChecklist()
	user := &domain.User{ID: 5, FullName: "Dana"}
	ctx := context.Background()

	if err := n.OnCompletionChange(ctx, cl, user, true); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	// still complete, e.g. another checklist task toggled elsewhere
	if err := n.OnCompletionChange(ctx, cl, user, true); err != nil {
		t.Fatalf("repeat observation: %v", err)
	}

	if len(store.batches) != 1 {
		t.Fatalf("batches = %d; want 1", len(store.batches))
	}
	if len(disp.requests) != 1 {
		t.Fatalf("dispatches = %d; want 1", len(disp.requests))
	}
}

func TestOnCompletionChangeRearmsAfterRevert(t *testing.T) {
	store := &fakeNotificationStore{}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "")}}, &fakeAssigned{}, store, &fakeDispatcher{})

	cl := testChecklist()
	user := &domain.User{ID: 5, FullName: "Dana"}
	ctx := context.Background()

	if err := n.OnCompletionChange(ctx, cl, user, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := n.OnCompletionChange(ctx, cl, user, false); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if err := n.OnCompletionChange(ctx, cl, user, true); err != nil {
		t.Fatalf("re-complete: %v", err)
	}

	if len(store.batches) != 2 {
		t.Fatalf("batches = %d; want 2 (one per transition)", len(store.batches))
	}
}

func TestOnCompletionChangeRearmsAfterFailure(t *testing.T) {
	store := &fakeNotificationStore{failNext: true}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "")}}, &fakeAssigned{}, store, &fakeDispatcher{})

	cl := testChecklist()
	user := &domain.User{ID: 5, FullName: "Dana"}
	ctx := context.Background()

	if err := n.OnCompletionChange(ctx, cl, user, true); err == nil {
		t.Fatal("expected error from failed batch insert")
	}
	// the failed pass must not consume the transition
	if err := n.OnCompletionChange(ctx, cl, user, true); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("batches = %d; want 1", len(store.batches))
	}
}

func TestNotifierRefiresAfterTaskAdded(t *testing.T) {
	tasks := &fakeTasks{count: 1}
	completions := newFakeCompletions()
	svc := NewCompletionServiceWith(tasks, completions)

	store := &fakeNotificationStore{}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "")}}, &fakeAssigned{}, store, &fakeDispatcher{})

	cl := testChecklist()
	user := &domain.User{ID: 5, FullName: "Dana"}
	ctx := context.Background()

	toggle := func(taskID int64) {
		t.Helper()
		if _, err := svc.Toggle(ctx, &domain.ChecklistTask{ID: taskID, ChecklistID: cl.ID}, user.ID); err != nil {
			t.Fatalf("toggle task %d: %v", taskID, err)
		}
		full, err := svc.Fullness(ctx, cl.ID, user.ID)
		if err != nil {
			t.Fatalf("fullness: %v", err)
		}
		if err := n.OnCompletionChange(ctx, cl, user, full); err != nil {
			t.Fatalf("completion change: %v", err)
		}
	}

	// completing the only task fires the fan-out
	toggle(10)
	if len(store.batches) != 1 {
		t.Fatalf("batches = %d; want 1", len(store.batches))
	}

	// an admin adds a task: fullness reverts with no toggle observed
	tasks.count = 2
	n.ResetChecklist(cl.ID)

	// completing the new task is a fresh transition and must fire again
	toggle(11)
	if len(store.batches) != 2 {
		t.Fatalf("batches after new task completed = %d; want 2", len(store.batches))
	}
}

func TestResetChecklistScopedToChecklist(t *testing.T) {
	store := &fakeNotificationStore{}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "")}}, &fakeAssigned{}, store, &fakeDispatcher{})

	ctx := context.Background()
	user := &domain.User{ID: 5, FullName: "Dana"}
	other := &domain.Checklist{ID: 9, Title: "Closing duties"}

	if err := n.OnCompletionChange(ctx, testChecklist(), user, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := n.OnCompletionChange(ctx, other, user, true); err != nil {
		t.Fatalf("complete other: %v", err)
	}

	n.ResetChecklist(testChecklist().ID)

	// the untouched checklist's guard must still hold
	if err := n.OnCompletionChange(ctx, other, user, true); err != nil {
		t.Fatalf("re-observe other: %v", err)
	}
	if len(store.batches) != 2 {
		t.Fatalf("batches = %d; want 2", len(store.batches))
	}
}

func TestGuardIsPerChecklistAndUser(t *testing.T) {
	store := &fakeNotificationStore{}
	n := NewNotifier(&fakeAdmins{admins: []*domain.User{admin(1, "")}}, &fakeAssigned{}, store, &fakeDispatcher{})

	ctx := context.Background()
	userA := &domain.User{ID: 5, FullName: "Dana"}
	userB := &domain.User{ID: 6, FullName: "Sam"}
	other := &domain.Checklist{ID: 9, Title: "Closing duties"}

	if err := n.OnCompletionChange(ctx, testChecklist(), userA, true); err != nil {
		t.Fatalf("userA: %v", err)
	}
	if err := n.OnCompletionChange(ctx, testChecklist(), userB, true); err != nil {
		t.Fatalf("userB: %v", err)
	}
	if err := n.OnCompletionChange(ctx, other, userA, true); err != nil {
		t.Fatalf("other checklist: %v", err)
	}

	if len(store.batches) != 3 {
		t.Fatalf("batches = %d; want 3", len(store.batches))
	}
}

func TestNotifyAllCompleteFansOutToAdmins(t *testing.T) {
	admins := []*domain.User{admin(1, "+15550001"), admin(2, ""), admin(3, "+15550003")}
	store := &fakeNotificationStore{}
	disp := &fakeDispatcher{}
	n := NewNotifier(&fakeAdmins{admins: admins}, &fakeAssigned{}, store, disp)

	cl := testChecklist()
	if err := n.NotifyAllComplete(context.Background(), cl, &domain.User{ID: 5, FullName: "Dana"}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(store.batches) != 1 || len(store.batches[0]) != 3 {
		t.Fatalf("expected one batch of 3 records, got %+v", store.batches)
	}
	for _, rec := range store.batches[0] {
		if rec.Type != domain.NotificationAllTasksComplete {
			t.Fatalf("record type = %s", rec.Type)
		}
		if rec.RelatedChecklistID == nil || *rec.RelatedChecklistID != cl.ID {
			t.Fatalf("record checklist id = %v", rec.RelatedChecklistID)
		}
	}

	// external dispatch only for recipients with a phone number
	if len(disp.requests) != 2 {
		t.Fatalf("dispatches = %d; want 2", len(disp.requests))
	}
	for _, r := range disp.requests {
		if r.UserID == 2 {
			t.Fatal("dispatched to recipient without a phone")
		}
		if r.NotificationType != notify.TypeChecklistCompleted {
			t.Fatalf("dispatch type = %s", r.NotificationType)
		}
	}
}

func TestNotifyAllCompleteIsolatesDispatchFailures(t *testing.T) {
	admins := []*domain.User{admin(1, "+15550001"), admin(2, "+15550002"), admin(3, "+15550003")}
	store := &fakeNotificationStore{}
	disp := &fakeDispatcher{failFor: map[int64]bool{2: true}}
	n := NewNotifier(&fakeAdmins{admins: admins}, &fakeAssigned{}, store, disp)

	// a failing delivery must not surface or stop the remaining recipients
	if err := n.NotifyAllComplete(context.Background(), testChecklist(), &domain.User{ID: 5, FullName: "Dana"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(disp.requests) != 3 {
		t.Fatalf("dispatches = %d; want 3", len(disp.requests))
	}
}

func TestNotifyAllCompleteNoAdmins(t *testing.T) {
	store := &fakeNotificationStore{}
	n := NewNotifier(&fakeAdmins{}, &fakeAssigned{}, store, &fakeDispatcher{})

	if err := n.NotifyAllComplete(context.Background(), testChecklist(), &domain.User{ID: 5}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(store.batches) != 0 {
		t.Fatal("no recipients should mean no batch insert")
	}
}

func TestNotifyAssigned(t *testing.T) {
	employees := []*domain.User{
		{ID: 10, Email: "e1@example.com", FullName: "E1", Phone: "+15550010"},
		{ID: 11, Email: "e2@example.com", FullName: "E2"},
	}
	store := &fakeNotificationStore{}
	disp := &fakeDispatcher{}
	n := NewNotifier(&fakeAdmins{}, &fakeAssigned{users: employees}, store, disp)

	cl := testChecklist()
	dept := &domain.Department{ID: 2, Name: "Kitchen"}
	if err := n.NotifyAssigned(context.Background(), cl, dept); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(store.batches) != 1 || len(store.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 records, got %+v", store.batches)
	}
	for _, rec := range store.batches[0] {
		if rec.Type != domain.NotificationChecklistAssigned {
			t.Fatalf("record type = %s", rec.Type)
		}
	}
	if len(disp.requests) != 1 || disp.requests[0].UserID != 10 {
		t.Fatalf("dispatches = %+v; want one to user 10", disp.requests)
	}
}
