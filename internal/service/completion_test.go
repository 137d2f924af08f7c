package service

import (
	"context"
	"testing"

	"opschecklist/internal/domain"
)

type fakeTasks struct {
	count int
}

func (f *fakeTasks) CountByChecklist(ctx context.Context, checklistID int64) (int, error) {
	return f.count, nil
}

type completionKey struct {
	taskID int64
	userID int64
}

type fakeCompletions struct {
	records map[completionKey]int64 // value is the checklist id
}

func newFakeCompletions() *fakeCompletions {
	return &fakeCompletions{records: make(map[completionKey]int64)}
}

func (f *fakeCompletions) Insert(ctx context.Context, taskID, userID, checklistID int64) (bool, error) {
	k := completionKey{taskID, userID}
	if _, ok := f.records[k]; ok {
		return false, nil
	}
	f.records[k] = checklistID
	return true, nil
}

func (f *fakeCompletions) Delete(ctx context.Context, taskID, userID int64) (bool, error) {
	k := completionKey{taskID, userID}
	if _, ok := f.records[k]; !ok {
		return false, nil
	}
	delete(f.records, k)
	return true, nil
}

func (f *fakeCompletions) CountByChecklistUser(ctx context.Context, checklistID, userID int64) (int, error) {
	n := 0
	for k, cl := range f.records {
		if cl == checklistID && k.userID == userID {
			n++
		}
	}
	return n, nil
}

func TestToggleRoundTrip(t *testing.T) {
	svc := NewCompletionServiceWith(&fakeTasks{count: 1}, newFakeCompletions())
	task := &domain.ChecklistTask{ID: 10, ChecklistID: 1}
	ctx := context.Background()

	completed, err := svc.Toggle(ctx, task, 5)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !completed {
		t.Fatal("first toggle should complete the task")
	}

	completed, err = svc.Toggle(ctx, task, 5)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if completed {
		t.Fatal("second toggle should uncomplete the task")
	}

	completed, err = svc.Toggle(ctx, task, 5)
	if err != nil {
		t.Fatalf("third toggle: %v", err)
	}
	if !completed {
		t.Fatal("third toggle should complete the task again")
	}
}

func TestTogglePerUser(t *testing.T) {
	store := newFakeCompletions()
	svc := NewCompletionServiceWith(&fakeTasks{count: 1}, store)
	task := &domain.ChecklistTask{ID: 10, ChecklistID: 1}
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, task, 5); err != nil {
		t.Fatalf("toggle user 5: %v", err)
	}

	full, err := svc.Fullness(ctx, 1, 6)
	if err != nil {
		t.Fatalf("fullness: %v", err)
	}
	if full {
		t.Fatal("user 6 must not inherit user 5's completion")
	}
}

func TestZeroTaskChecklistNeverComplete(t *testing.T) {
	svc := NewCompletionServiceWith(&fakeTasks{count: 0}, newFakeCompletions())

	p, err := svc.Progress(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Complete {
		t.Fatal("empty checklist must not be complete")
	}
	if p.Percent != 0 {
		t.Fatalf("percent = %d; want 0", p.Percent)
	}
}

func TestFullnessRecomputedFromLiveTasks(t *testing.T) {
	tasks := &fakeTasks{count: 2}
	store := newFakeCompletions()
	svc := NewCompletionServiceWith(tasks, store)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, &domain.ChecklistTask{ID: 10, ChecklistID: 1}, 5); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := svc.Toggle(ctx, &domain.ChecklistTask{ID: 11, ChecklistID: 1}, 5); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	full, err := svc.Fullness(ctx, 1, 5)
	if err != nil {
		t.Fatalf("fullness: %v", err)
	}
	if !full {
		t.Fatal("all tasks done should report complete")
	}

	// a task added later reverts fullness with no record change
	tasks.count = 3
	full, err = svc.Fullness(ctx, 1, 5)
	if err != nil {
		t.Fatalf("fullness: %v", err)
	}
	if full {
		t.Fatal("new task must revert the checklist to incomplete")
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		total, done int
		wantPercent int
		wantFull    bool
	}{
		{4, 0, 0, false},
		{4, 1, 25, false},
		{4, 3, 75, false},
		{4, 4, 100, true},
		{3, 2, 66, false},
	}

	for _, tc := range cases {
		store := newFakeCompletions()
		for i := 0; i < tc.done; i++ {
			store.records[completionKey{int64(100 + i), 5}] = 1
		}
		svc := NewCompletionServiceWith(&fakeTasks{count: tc.total}, store)

		p, err := svc.Progress(context.Background(), 1, 5)
		if err != nil {
			t.Fatalf("progress: %v", err)
		}
		if p.Percent != tc.wantPercent || p.Complete != tc.wantFull {
			t.Fatalf("%d/%d: percent=%d complete=%v; want %d, %v",
				tc.done, tc.total, p.Percent, p.Complete, tc.wantPercent, tc.wantFull)
		}
	}
}
