package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/domain"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTaskRepo(t *testing.T) (*taskRepository, *flakyStore, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	adapter, store := newFlakyAdapter(t, WithClock(clock.Now))
	repo := NewTaskRepository(adapter, zap.NewNop()).(*taskRepository)
	return repo, store, clock
}

var ana = domain.Owner{UserID: "u-ana", Email: "ana@x.com"}

func TestTaskRepository_CreateFillsDefaults(t *testing.T) {
	repo, _, _ := newTaskRepo(t)

	created, err := repo.Create(context.Background(), domain.Task{Title: "Write report", UserID: ana.UserID, UserEmail: ana.Email})
	require.NoError(t, err)

	assert.Equal(t, "1", created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Nil(t, created.CompletedAt)
	assert.Equal(t, []string{}, created.Tags)
	assert.Zero(t, created.EstimatedHours)
	assert.Zero(t, created.ActualHours)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	second, err := repo.Create(context.Background(), domain.Task{Title: "Second", UserID: ana.UserID})
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)
}

func TestTaskRepository_ListByOwnerMatchesIDOrEmail(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTaskRepo(t)

	fixtures := []domain.Task{
		{Title: "by id", UserID: ana.UserID},
		{Title: "someone else", UserID: "u-bob", UserEmail: "bob@x.com"},
		{Title: "by email", UserID: "legacy", UserEmail: ana.Email},
		{Title: "both", UserID: ana.UserID, UserEmail: ana.Email},
	}
	for _, f := range fixtures {
		_, err := repo.Create(ctx, f)
		require.NoError(t, err)
	}

	tasks, err := repo.ListByOwner(ctx, ana)
	require.NoError(t, err)

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"by id", "by email", "both"}, titles)
}

func TestTaskRepository_UpdateCompletedAt(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newTaskRepo(t)
	done := domain.StatusDone
	pending := domain.StatusPending

	created, err := repo.Create(ctx, domain.Task{Title: "Ship", UserID: ana.UserID})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	finished, err := repo.Update(ctx, created.ID, domain.TaskPatch{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, finished.CompletedAt)
	assert.False(t, finished.CompletedAt.Before(created.CreatedAt))
	assert.Equal(t, clock.now, finished.UpdatedAt)
	firstCompletion := *finished.CompletedAt

	clock.Advance(time.Hour)
	again, err := repo.Update(ctx, created.ID, domain.TaskPatch{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, firstCompletion, *again.CompletedAt)
	assert.Equal(t, clock.now, again.UpdatedAt)

	reopened, err := repo.Update(ctx, created.ID, domain.TaskPatch{Status: &pending})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
}

func TestTaskRepository_UpdateMergesOnlyPatchedFields(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTaskRepo(t)

	created, err := repo.Create(ctx, domain.Task{
		Title:       "Plan",
		Description: "quarterly",
		Tags:        []string{"work"},
		UserID:      ana.UserID,
	})
	require.NoError(t, err)

	title := "Plan Q3"
	updated, err := repo.Update(ctx, created.ID, domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Plan Q3", updated.Title)
	assert.Equal(t, "quarterly", updated.Description)
	assert.Equal(t, []string{"work"}, updated.Tags)
}

func TestTaskRepository_UpdateUnknownID(t *testing.T) {
	repo, _, _ := newTaskRepo(t)
	_, err := repo.Update(context.Background(), "404", domain.TaskPatch{})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTaskRepo(t)

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		created, err := repo.Create(ctx, domain.Task{Title: title, UserID: ana.UserID})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err := repo.GetByID(ctx, ids[1])
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ids[1]), domain.ErrTaskNotFound)

	last, err := repo.GetByID(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, "c", last.Title)
}

func TestTaskRepository_BulkUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTaskRepo(t)
	high := domain.PriorityHigh

	first, err := repo.Create(ctx, domain.Task{Title: "a", UserID: ana.UserID})
	require.NoError(t, err)
	second, err := repo.Create(ctx, domain.Task{Title: "b", UserID: ana.UserID})
	require.NoError(t, err)

	count, err := repo.BulkUpdate(ctx, []string{first.ID, second.ID, "missing", first.ID}, domain.TaskPatch{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, got.Priority)

	_, err = repo.BulkUpdate(ctx, []string{"missing"}, domain.TaskPatch{Priority: &high})
	assert.ErrorIs(t, err, domain.ErrNoTasksMatched)
}

func TestTaskRepository_ImportAssignsFreshIdentity(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newTaskRepo(t)

	existing, err := repo.Create(ctx, domain.Task{Title: "existing", UserID: ana.UserID})
	require.NoError(t, err)

	records := []domain.Task{
		{ID: existing.ID, Title: "existing", UserID: "u-bob", CreatedAt: time.Unix(0, 0)},
		{ID: "99", Title: "done import", Status: domain.StatusDone},
	}
	count, err := repo.Import(ctx, ana, records)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tasks, err := repo.ListByOwner(ctx, ana)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	ids := map[string]bool{}
	for _, task := range tasks {
		ids[task.ID] = true
	}
	assert.Len(t, ids, 3)
	for _, imported := range tasks[1:] {
		assert.Equal(t, ana.UserID, imported.UserID)
		assert.Equal(t, ana.Email, imported.UserEmail)
	}
	assert.Equal(t, clock.now, tasks[1].CreatedAt)
	assert.NotNil(t, tasks[2].CompletedAt)
}

func TestTaskRepository_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newTaskRepo(t)

	_, err := repo.Create(ctx, domain.Task{Title: "durable", UserID: ana.UserID})
	require.NoError(t, err)

	fresh := NewTaskRepository(NewAdapter(store, nil), nil)
	tasks, err := fresh.ListByOwner(ctx, ana)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "durable", tasks[0].Title)
}

func TestTaskRepository_WriteFailureDropsCache(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newTaskRepo(t)

	_, err := repo.Create(ctx, domain.Task{Title: "kept", UserID: ana.UserID})
	require.NoError(t, err)

	store.failPut = true
	_, err = repo.Create(ctx, domain.Task{Title: "lost", UserID: ana.UserID})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))

	store.failPut = false
	tasks, err := repo.ListByOwner(ctx, ana)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "kept", tasks[0].Title)
}

func TestTaskRepository_ReadFailureDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	_, store, _ := newTaskRepo(t)
	require.NoError(t, store.Put(ctx, KeyTasks, []byte(`[{"id":"1","title":"old","userId":"u-ana"}]`)))

	store.failGet = true
	repo := NewTaskRepository(NewAdapter(store, nil), nil)
	_, err := repo.Create(ctx, domain.Task{Title: "new", UserID: ana.UserID})
	require.Error(t, err)

	store.failGet = false
	raw, err := store.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "old")
}
