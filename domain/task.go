package domain

import (
	"math"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// TaskPriority ranks tasks from low to urgent.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a user-owned work item. JSON keys follow the persisted collection layout.
type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	UserID         string       `json:"userId"`
	UserEmail      string       `json:"userEmail"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	DueDate        *Date        `json:"dueDate,omitempty"`
	Tags           []string     `json:"tags"`
	EstimatedHours float64      `json:"estimatedHours"`
	ActualHours    float64      `json:"actualHours"`
	CompletedAt    *time.Time   `json:"completedAt"`
	Notes          string       `json:"notes"`
}

// ApplyDefaults fills the fields a freshly stored task must carry.
func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.DueDate != nil && t.DueDate.IsZero() {
		t.DueDate = nil
	}
	if t.Status != StatusDone {
		t.CompletedAt = nil
	}
}

// IsOverdue reports whether the due date has passed on an unfinished task.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.DueDate.IsZero() && t.DueDate.Before(now) && t.Status != StatusDone
}

// Matches is a case-insensitive substring match over title, description and tags.
func (t Task) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

// Owner is the (userId, userEmail) pair that scopes task queries.
type Owner struct {
	UserID string `json:"userId"`
	Email  string `json:"userEmail"`
}

// OwnerOf builds the owner scope for a user.
func OwnerOf(u User) Owner {
	return Owner{UserID: u.ID, Email: u.Email}
}

// Owns matches on id or email. Either match is enough.
func (o Owner) Owns(t Task) bool {
	if o.UserID != "" && t.UserID == o.UserID {
		return true
	}
	return o.Email != "" && t.UserEmail == o.Email
}

// TaskInput carries the caller-supplied fields of a new task.
type TaskInput struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *Date        `json:"dueDate"`
	Tags           []string     `json:"tags"`
	EstimatedHours float64      `json:"estimatedHours"`
	ActualHours    float64      `json:"actualHours"`
	Notes          string       `json:"notes"`
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return Validation("title is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return Validation("unknown status %q", in.Status)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return Validation("unknown priority %q", in.Priority)
	}
	if in.EstimatedHours < 0 || in.ActualHours < 0 {
		return Validation("hours must not be negative")
	}
	return nil
}

// Task converts the input into an unsaved task owned by owner.
func (in TaskInput) Task(owner Owner) Task {
	return Task{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		UserID:         owner.UserID,
		UserEmail:      owner.Email,
		DueDate:        in.DueDate,
		Tags:           in.Tags,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		Notes:          in.Notes,
	}
}

// TaskPatch lists the fields an update may change. Nil fields keep the stored value.
type TaskPatch struct {
	Title          *string       `json:"title,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Status         *TaskStatus   `json:"status,omitempty"`
	Priority       *TaskPriority `json:"priority,omitempty"`
	DueDate        *Date         `json:"dueDate,omitempty"`
	ClearDueDate   bool          `json:"clearDueDate,omitempty"`
	Tags           *[]string     `json:"tags,omitempty"`
	EstimatedHours *float64      `json:"estimatedHours,omitempty"`
	ActualHours    *float64      `json:"actualHours,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Validation("title must not be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return Validation("unknown status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return Validation("unknown priority %q", *p.Priority)
	}
	if (p.EstimatedHours != nil && *p.EstimatedHours < 0) || (p.ActualHours != nil && *p.ActualHours < 0) {
		return Validation("hours must not be negative")
	}
	return nil
}

// Apply merges the patch onto t and refreshes UpdatedAt.
// CompletedAt is stamped on entering done, kept on done to done, cleared on leaving done.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	wasDone := t.Status == StatusDone

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate, p.DueDate != nil && p.DueDate.IsZero():
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.EstimatedHours != nil {
		t.EstimatedHours = *p.EstimatedHours
	}
	if p.ActualHours != nil {
		t.ActualHours = *p.ActualHours
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}

	switch {
	case t.Status == StatusDone && !wasDone:
		completed := now
		t.CompletedAt = &completed
	case t.Status != StatusDone:
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

// TaskQuery narrows an owner's task list. Zero fields do not filter.
type TaskQuery struct {
	Status   TaskStatus
	Priority TaskPriority
	Overdue  bool
	Term     string
}

// TaskStatistics aggregates an owner's tasks.
type TaskStatistics struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Cancelled      int `json:"cancelled"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// ComputeStatistics counts tasks per status. CompletionRate is a rounded percentage, 0 for no tasks.
func ComputeStatistics(tasks []Task, now time.Time) TaskStatistics {
	stats := TaskStatistics{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusDone:
			stats.Completed++
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCancelled:
			stats.Cancelled++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(100 * float64(stats.Completed) / float64(stats.Total)))
	}
	return stats
}

// ExportBundle is a snapshot of one owner's tasks.
type ExportBundle struct {
	Tasks      []Task    `json:"data"`
	ExportedAt time.Time `json:"exportDate"`
	UserID     string    `json:"userId"`
	UserEmail  string    `json:"userEmail"`
	TotalTasks int       `json:"totalTasks"`
}
