package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinder_BindOnCreate(t *testing.T) {
	f := newFixture(t)

	task := &domain.Task{ID: "t1"}
	require.NoError(t, f.binder.BindOnCreate(task, KanbanWorkflowID))
	assert.Equal(t, KanbanWorkflowID, task.WorkflowID)
	assert.Equal(t, "backlog", task.Stage)

	preset := &domain.Task{ID: "t2", Stage: "review"}
	require.NoError(t, f.binder.BindOnCreate(preset, KanbanWorkflowID))
	assert.Equal(t, "review", preset.Stage)

	bad := &domain.Task{ID: "t3", Stage: "deployed"}
	assert.True(t, IsValidation(f.binder.BindOnCreate(bad, KanbanWorkflowID)))
	assert.Empty(t, bad.WorkflowID)

	assert.True(t, IsValidation(f.binder.BindOnCreate(&domain.Task{}, "missing")))
}

// Scenario A: no direct edge todo -> completed in Basic.
func TestBinder_RequestTransition_RejectsMissingEdge(t *testing.T) {
	f := newFixture(t)
	task := &domain.Task{ID: "t", WorkflowID: BasicWorkflowID, Stage: "todo", UpdatedAt: testStart}

	err := f.binder.RequestTransition(context.Background(), task, "completed")

	require.Error(t, err)
	var rejected *TransitionRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "t", rejected.TaskID)
	assert.Equal(t, "To Do", rejected.FromName)
	assert.Equal(t, "Completed", rejected.ToName)
	assert.Equal(t, "todo", task.Stage)
	assert.Equal(t, testStart, task.UpdatedAt)
}

// Scenario B: in-progress -> completed is an authored edge in Basic.
func TestBinder_RequestTransition_FollowsEdge(t *testing.T) {
	f := newFixture(t)
	f.clock.Add(time.Hour)
	task := &domain.Task{ID: "t", WorkflowID: BasicWorkflowID, Stage: "in-progress", UpdatedAt: testStart}

	require.NoError(t, f.binder.RequestTransition(context.Background(), task, "completed"))

	assert.Equal(t, "completed", task.Stage)
	assert.Equal(t, testStart.Add(time.Hour), task.UpdatedAt)
}

func TestBinder_RequestTransition_IdentityIsNoop(t *testing.T) {
	f := newFixture(t)
	f.clock.Add(time.Hour)
	task := &domain.Task{ID: "t", WorkflowID: BasicWorkflowID, Stage: "todo", UpdatedAt: testStart}

	require.NoError(t, f.binder.RequestTransition(context.Background(), task, "todo"))
	assert.Equal(t, testStart, task.UpdatedAt)
}

func TestBinder_RequestTransition_OrphanFailsClosed(t *testing.T) {
	f := newFixture(t)
	task := &domain.Task{ID: "t", WorkflowID: "deleted", Stage: "todo"}

	for _, target := range []string{"in-progress", "todo"} {
		err := f.binder.RequestTransition(context.Background(), task, target)
		require.Error(t, err)
		assert.True(t, IsTransitionRejected(err))
		var orphan *OrphanWorkflowReference
		assert.True(t, errors.As(err, &orphan))
		assert.Equal(t, "todo", task.Stage)
	}
}

// Scenario C: first listed edge out of review in Kanban.
func TestBinder_SuggestNextStage(t *testing.T) {
	f := newFixture(t)

	next, ok := f.binder.SuggestNextStage(&domain.Task{WorkflowID: KanbanWorkflowID, Stage: "review"})
	assert.True(t, ok)
	assert.Equal(t, "completed", next)

	_, ok = f.binder.SuggestNextStage(&domain.Task{WorkflowID: "deleted", Stage: "todo"})
	assert.False(t, ok)

	_, ok = f.binder.SuggestNextStage(&domain.Task{WorkflowID: KanbanWorkflowID, Stage: "nowhere"})
	assert.False(t, ok)
}

// Scenario E: an orphaned task renders with the fallback vocabulary.
func TestBinder_DescribeStage_Fallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view := f.binder.DescribeStage(ctx, &domain.Task{WorkflowID: KanbanWorkflowID, Stage: "review"})
	assert.Equal(t, "Review", view.Label)
	assert.False(t, view.Orphaned)

	view = f.binder.DescribeStage(ctx, &domain.Task{WorkflowID: "deleted", Stage: "in-progress"})
	assert.True(t, view.Orphaned)
	assert.Equal(t, "In Progress", view.Label)

	view = f.binder.DescribeStage(ctx, &domain.Task{WorkflowID: "deleted", Stage: "review"})
	assert.True(t, view.Orphaned)
	assert.Contains(t, []string{"todo", "in-progress", "completed"}, view.StageID)
}

func TestBinder_Reconcile(t *testing.T) {
	f := newFixture(t)

	stranded := &domain.Task{WorkflowID: KanbanWorkflowID, Stage: "gone"}
	assert.True(t, f.binder.Reconcile(context.Background(), stranded))
	assert.Equal(t, "backlog", stranded.Stage)

	fine := &domain.Task{WorkflowID: KanbanWorkflowID, Stage: "review"}
	assert.False(t, f.binder.Reconcile(context.Background(), fine))
}
