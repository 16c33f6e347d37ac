package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTaskPatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := created.Add(48 * time.Hour)
	earlier := created.Add(time.Hour)
	due := Date{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name  string
		task  Task
		patch TaskPatch
		check func(t *testing.T, got Task)
	}{
		{
			name:  "entering done stamps completedAt",
			task:  Task{Status: StatusInProgress, CreatedAt: created},
			patch: TaskPatch{Status: ptr(StatusDone)},
			check: func(t *testing.T, got Task) {
				require.NotNil(t, got.CompletedAt)
				assert.Equal(t, now, *got.CompletedAt)
			},
		},
		{
			name:  "done to done keeps completedAt",
			task:  Task{Status: StatusDone, CompletedAt: &earlier},
			patch: TaskPatch{Status: ptr(StatusDone), Notes: ptr("again")},
			check: func(t *testing.T, got Task) {
				require.NotNil(t, got.CompletedAt)
				assert.Equal(t, earlier, *got.CompletedAt)
				assert.Equal(t, "again", got.Notes)
			},
		},
		{
			name:  "leaving done clears completedAt",
			task:  Task{Status: StatusDone, CompletedAt: &earlier},
			patch: TaskPatch{Status: ptr(StatusCancelled)},
			check: func(t *testing.T, got Task) {
				assert.Nil(t, got.CompletedAt)
			},
		},
		{
			name:  "absent fields keep stored values",
			task:  Task{Title: "keep", Description: "desc", Tags: []string{"a"}, DueDate: &due},
			patch: TaskPatch{Priority: ptr(PriorityUrgent)},
			check: func(t *testing.T, got Task) {
				assert.Equal(t, "keep", got.Title)
				assert.Equal(t, "desc", got.Description)
				assert.Equal(t, []string{"a"}, got.Tags)
				assert.Equal(t, PriorityUrgent, got.Priority)
				require.NotNil(t, got.DueDate)
			},
		},
		{
			name:  "clear due date wins over a new one",
			task:  Task{DueDate: &due},
			patch: TaskPatch{ClearDueDate: true, DueDate: &due},
			check: func(t *testing.T, got Task) {
				assert.Nil(t, got.DueDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			tt.patch.Apply(&task, now)
			assert.Equal(t, now, task.UpdatedAt)
			tt.check(t, task)
		})
	}
}

func TestTaskPatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   TaskPatch
		wantErr bool
	}{
		{name: "empty patch", patch: TaskPatch{}},
		{name: "blank title", patch: TaskPatch{Title: ptr("  ")}, wantErr: true},
		{name: "unknown status", patch: TaskPatch{Status: ptr(TaskStatus("archived"))}, wantErr: true},
		{name: "unknown priority", patch: TaskPatch{Priority: ptr(TaskPriority("p0"))}, wantErr: true},
		{name: "negative hours", patch: TaskPatch{ActualHours: ptr(-1.0)}, wantErr: true},
		{name: "valid", patch: TaskPatch{Status: ptr(StatusInProgress), EstimatedHours: ptr(2.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				assert.True(t, IsDomainError(err, ErrCodeInvalid))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTaskInput_Validate(t *testing.T) {
	assert.Error(t, TaskInput{}.Validate())
	assert.Error(t, TaskInput{Title: "x", Status: "nope"}.Validate())
	assert.Error(t, TaskInput{Title: "x", EstimatedHours: -2}.Validate())
	assert.NoError(t, TaskInput{Title: "x", Priority: PriorityLow}.Validate())
}

func TestComputeStatistics(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := Date{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, TaskStatistics{}, ComputeStatistics(nil, now))

	stats := ComputeStatistics([]Task{
		{Status: StatusPending},
		{Status: StatusDone},
		{Status: StatusDone},
	}, now)
	assert.Equal(t, TaskStatistics{Total: 3, Completed: 2, Pending: 1, CompletionRate: 67}, stats)

	stats = ComputeStatistics([]Task{
		{Status: StatusInProgress, DueDate: &past},
		{Status: StatusDone, DueDate: &past},
		{Status: StatusCancelled, DueDate: &past},
	}, now)
	assert.Equal(t, 2, stats.Overdue)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 33, stats.CompletionRate)
}

func TestTask_Matches(t *testing.T) {
	task := Task{Title: "Quarterly Report", Description: "finance numbers", Tags: []string{"Urgent-Review"}}

	assert.True(t, task.Matches("report"))
	assert.True(t, task.Matches("FINANCE"))
	assert.True(t, task.Matches("review"))
	assert.True(t, task.Matches(""))
	assert.False(t, task.Matches("holiday"))
}

func TestOwner_Owns(t *testing.T) {
	owner := Owner{UserID: "u1", Email: "ana@x.com"}

	assert.True(t, owner.Owns(Task{UserID: "u1", UserEmail: "other@x.com"}))
	assert.True(t, owner.Owns(Task{UserID: "u9", UserEmail: "ana@x.com"}))
	assert.False(t, owner.Owns(Task{UserID: "u9", UserEmail: "bob@x.com"}))
	assert.False(t, Owner{}.Owns(Task{}))
}

func TestDate_JSON(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2024-05-01"}`), &task))
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2024-05-01", task.DueDate.String())

	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2024-05-01T22:30:00+02:00"}`), &task))
	assert.Equal(t, "2024-05-01", task.DueDate.String())

	task = Task{}
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":""}`), &task))
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"dueDate":"tomorrow"}`), &task))

	out, err := json.Marshal(Task{DueDate: &Date{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"dueDate":"2024-05-01"`)
}
