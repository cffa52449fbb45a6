package domain

import (
	"encoding/json"
	"math"
	"slices"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities from low (1) to urgent (4); unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// DueDateLayout is the calendar date format of Task.DueDate.
const DueDateLayout = "2006-01-02"

// Task is bound to exactly one workflow and occupies one of its stages.
// Stage is the single source of truth; the JSON form also carries the legacy
// "status" alias, always equal to "stage".
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority" validate:"oneof=low medium high urgent"`
	DueDate     string    `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProjectID   string    `json:"projectId,omitempty"`
	WorkflowID  string    `json:"workflowId"`
	Stage       string    `json:"stage"`
	Subtasks    []Subtask `json:"subtasks" validate:"dive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subtask is a checklist item of a task. It has no stage of its own.
type Subtask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"required"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type taskJSON Task

type taskWire struct {
	taskJSON
	Status string `json:"status"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskWire{taskJSON: taskJSON(t), Status: t.Stage})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Task(w.taskJSON)
	if t.Stage == "" {
		t.Stage = w.Status
	}
	return nil
}

// Clone returns a copy that shares no subtask storage with t.
func (t Task) Clone() Task {
	t.Subtasks = slices.Clone(t.Subtasks)
	return t
}

// Progress is the rounded percentage of completed subtasks, 0 without subtasks.
func (t *Task) Progress() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(t.Subtasks))))
}

// Overdue reports whether the due date lies before the calendar day of now.
func (t *Task) Overdue(now time.Time) bool {
	due, ok := t.Due()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// Due parses DueDate; ok is false when unset or malformed.
func (t *Task) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DueDateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
