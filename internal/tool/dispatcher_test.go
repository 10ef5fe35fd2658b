package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/intent"
	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/task"
)

func newDispatcher(t *testing.T) (*Dispatcher, *task.Memory) {
	t.Helper()
	store := task.NewMemory()
	return New(store, time.Second, log.NewNop()), store
}

func TestDispatch_AddAndList(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(t)
	ctx := context.Background()
	userID := uuid.New()

	res := d.Dispatch(ctx, userID, intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionAdd, Title: "buy milk",
	})
	if !res.OK() {
		t.Fatalf("add dispatch = %+v", res)
	}
	if res.Task == nil || res.Task.Title != "buy milk" {
		t.Fatalf("add result task = %+v", res.Task)
	}

	res = d.Dispatch(ctx, userID, intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionList,
	})
	if !res.OK() || res.Count != 1 {
		t.Fatalf("list dispatch = %+v", res)
	}
	if res.Tasks[0].Title != "buy milk" || res.Tasks[0].Status != task.StatusPending {
		t.Errorf("round-trip task = %+v", res.Tasks[0])
	}
}

func TestDispatch_AddWithoutTitle(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(t)
	res := d.Dispatch(context.Background(), uuid.New(), intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionAdd,
	})
	if res.Status != StatusClarificationNeeded {
		t.Fatalf("status = %q, want clarification", res.Status)
	}
	if res.MissingField != "title" {
		t.Errorf("missing field = %q, want title", res.MissingField)
	}
}

func TestDispatch_CrossUserDenied(t *testing.T) {
	t.Parallel()

	d, store := newDispatcher(t)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()

	created, err := store.Create(ctx, owner, "secret plan", "")
	if err != nil {
		t.Fatalf("seeding task: %v", err)
	}

	for _, action := range []intent.Action{intent.ActionComplete, intent.ActionDelete, intent.ActionUpdate} {
		in := intent.Intent{Label: intent.LabelTaskQuery, Action: action, TaskRef: created.ID.String()}
		if action == intent.ActionUpdate {
			in.Title = "hijacked"
		}

		res := d.Dispatch(ctx, intruder, in)
		if res.Status != StatusAuthorizationDenied {
			t.Errorf("%s status = %q, want authorization denied", action, res.Status)
		}
	}

	// The task must be unchanged after the denied attempts.
	got, err := store.Get(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got.Title != "secret plan" || got.Status != task.StatusPending {
		t.Errorf("task mutated by denied dispatch: %+v", got)
	}
}

func TestDispatch_OrdinalResolution(t *testing.T) {
	t.Parallel()

	d, store := newDispatcher(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, userID, title, ""); err != nil {
			t.Fatalf("seeding %q: %v", title, err)
		}
	}

	res := d.Dispatch(ctx, userID, intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionComplete, TaskRef: "2",
	})
	if !res.OK() {
		t.Fatalf("complete dispatch = %+v", res)
	}
	if res.Task.Title != "second" || res.Task.Status != task.StatusCompleted {
		t.Errorf("completed task = %+v", res.Task)
	}
}

func TestDispatch_TitleResolution(t *testing.T) {
	t.Parallel()

	d, store := newDispatcher(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := store.Create(ctx, userID, "buy milk", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, userID, "walk the dog", ""); err != nil {
		t.Fatal(err)
	}

	res := d.Dispatch(ctx, userID, intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionDelete, TaskRef: "buy milk",
	})
	if !res.OK() {
		t.Fatalf("delete dispatch = %+v", res)
	}

	remaining, err := store.List(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].Title != "walk the dog" {
		t.Errorf("remaining tasks = %+v", remaining)
	}
}

func TestDispatch_UnresolvableRef(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(t)
	res := d.Dispatch(context.Background(), uuid.New(), intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionDelete, TaskRef: "nonexistent",
	})
	if res.Status != StatusClarificationNeeded || res.MissingField != "task" {
		t.Fatalf("result = %+v, want clarification on task", res)
	}
}

// erroringStore fails every operation, simulating an unavailable store.
type erroringStore struct {
	task.Store
	err error
}

func (s erroringStore) Create(context.Context, uuid.UUID, string, string) (*task.Task, error) {
	return nil, s.err
}

func (s erroringStore) List(context.Context, uuid.UUID) ([]*task.Task, error) {
	return nil, s.err
}

func TestDispatch_StoreFailure(t *testing.T) {
	t.Parallel()

	d := New(erroringStore{err: errors.New("connection refused")}, time.Second, log.NewNop())
	res := d.Dispatch(context.Background(), uuid.New(), intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionList,
	})
	if res.Status != StatusFailure {
		t.Fatalf("status = %q, want failure", res.Status)
	}
	if res.Err == nil {
		t.Error("expected underlying error preserved")
	}
}

func TestDispatch_Timeout(t *testing.T) {
	t.Parallel()

	d := New(erroringStore{err: context.DeadlineExceeded}, time.Millisecond, log.NewNop())
	res := d.Dispatch(context.Background(), uuid.New(), intent.Intent{
		Label: intent.LabelTaskQuery, Action: intent.ActionAdd, Title: "slow",
	})
	if res.Status != StatusTimeout {
		t.Fatalf("status = %q, want timeout", res.Status)
	}
}
