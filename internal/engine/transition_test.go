package engine

import (
	"errors"
	"testing"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_IdentityAlwaysLegal(t *testing.T) {
	for _, wf := range Seeds(testStart) {
		for _, st := range wf.Stages {
			assert.True(t, CanTransition(&wf, st.ID, st.ID), "%s/%s", wf.ID, st.ID)
		}
	}
	assert.True(t, CanTransition(nil, "todo", "todo"))
}

func TestCanTransition_MatchesAuthoredEdges(t *testing.T) {
	for _, wf := range Seeds(testStart) {
		for _, from := range wf.Stages {
			for _, to := range wf.Stages {
				if from.ID == to.ID {
					continue
				}
				want := false
				for _, target := range wf.Transitions[from.ID] {
					if target == to.ID {
						want = true
					}
				}
				assert.Equal(t, want, CanTransition(&wf, from.ID, to.ID), "%s: %s -> %s", wf.ID, from.ID, to.ID)
			}
		}
	}
}

func TestCanTransition_KanbanBacklogLeadsToTodo(t *testing.T) {
	kanban := Seeds(testStart)[1]
	require.Equal(t, "backlog", kanban.Stages[0].ID)

	assert.True(t, CanTransition(&kanban, "backlog", "todo"))
	assert.True(t, CanTransition(&kanban, "todo", "backlog"))
	assert.False(t, CanTransition(&kanban, "backlog", "in-progress"))
}

func TestCanTransition_EmptyEdgeSets(t *testing.T) {
	wf := &domain.Workflow{
		ID:     "terminal",
		Stages: []domain.Stage{{ID: "open", Name: "Open"}, {ID: "closed", Name: "Closed"}},
		Transitions: domain.Transitions{
			"open": {"closed"},
		},
	}
	assert.True(t, CanTransition(wf, "open", "closed"))
	assert.False(t, CanTransition(wf, "closed", "open"))
	assert.False(t, CanTransition(nil, "open", "closed"))
}

func TestValidateTransition_NamesBothStages(t *testing.T) {
	basic := Seeds(testStart)[0]

	err := ValidateTransition(&basic, "todo", "completed")
	require.Error(t, err)

	var rejected *TransitionRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "To Do", rejected.FromName)
	assert.Equal(t, "Completed", rejected.ToName)
	assert.Equal(t, BasicWorkflowID, rejected.WorkflowID)
	assert.Contains(t, err.Error(), `"To Do"`)
	assert.Contains(t, err.Error(), `"Completed"`)
	assert.Equal(t, KindTransitionRejected, KindOf(err))

	assert.NoError(t, ValidateTransition(&basic, "in-progress", "completed"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(&ValidationError{Field: "name", Message: "is required"}))
	assert.Equal(t, KindConflict, KindOf(&ConflictError{Message: "no"}))
	assert.Equal(t, KindOrphanWorkflow, KindOf(&OrphanWorkflowReference{TaskID: "t", WorkflowID: "w"}))
	assert.Equal(t, KindNotFound, KindOf(ErrTaskNotFound))
	assert.Equal(t, KindNotFound, KindOf(ErrSubtaskNotFound))
	assert.Equal(t, "", KindOf(errDiskFull))
	assert.Equal(t, "", KindOf(nil))
}
