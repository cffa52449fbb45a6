package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_JSONCarriesStatusAlias(t *testing.T) {
	task := Task{ID: "t1", Title: "Write", Priority: PriorityHigh, WorkflowID: "default", Stage: "in-progress"}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "in-progress", raw["stage"])
	assert.Equal(t, "in-progress", raw["status"])
	assert.NotContains(t, raw, "dueDate")
}

func TestTask_UnmarshalLegacyStatus(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","title":"Old","status":"completed"}`), &task))
	assert.Equal(t, "completed", task.Stage)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"t2","title":"New","stage":"todo","status":"completed"}`), &task))
	assert.Equal(t, "todo", task.Stage)
}

func TestTask_Due(t *testing.T) {
	task := Task{DueDate: "2024-04-01"}
	d, ok := task.Due()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), d)

	task.DueDate = "soon"
	_, ok = task.Due()
	assert.False(t, ok)
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	assert.Zero(t, Priority("whenever").Rank())
}

func TestWorkflow_NilSafeQueries(t *testing.T) {
	var wf *Workflow
	assert.False(t, wf.HasStage("todo"))
	_, ok := wf.FirstStage()
	assert.False(t, ok)
	assert.Empty(t, wf.TargetsFrom("todo"))

	wf = &Workflow{
		Stages:      []Stage{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Transitions: Transitions{"a": {"b"}},
	}
	first, ok := wf.FirstStage()
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)
	assert.True(t, wf.Transitions.Contains("a", "b"))
	assert.False(t, wf.Transitions.Contains("b", "a"))

	clone := wf.Clone()
	clone.Transitions["a"][0] = "x"
	assert.Equal(t, "b", wf.Transitions["a"][0])
}

func TestTask_Progress(t *testing.T) {
	task := Task{}
	assert.Equal(t, 0, task.Progress())

	task.Subtasks = []Subtask{{ID: "a", Completed: true}, {ID: "b"}, {ID: "c", Completed: true}}
	assert.Equal(t, 67, task.Progress())

	clone := task.Clone()
	clone.Subtasks[0].Completed = false
	assert.True(t, task.Subtasks[0].Completed)
}

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	assert.True(t, (&Task{DueDate: "2024-03-09"}).Overdue(now))
	assert.False(t, (&Task{DueDate: "2024-03-10"}).Overdue(now))
	assert.False(t, (&Task{DueDate: "2024-03-11"}).Overdue(now))
	assert.False(t, (&Task{}).Overdue(now))
}
