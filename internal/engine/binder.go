package engine

import (
	"context"
	"log/slog"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

// StageView is what a caller needs to render a task's stage.
type StageView struct {
	StageID    string `json:"stageId"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	WorkflowID string `json:"workflowId"`
	Orphaned   bool   `json:"orphaned"`
}

// Binder ties tasks to workflows and stages. It is the only code path that
// sets a task's workflow binding or stage.
type Binder struct {
	workflows *WorkflowStore
	clock     core.Clock
}

func NewBinder(workflows *WorkflowStore, clock core.Clock) *Binder {
	if clock == nil {
		clock = core.NewRealClock()
	}
	return &Binder{workflows: workflows, clock: clock}
}

// BindOnCreate binds a new task to activeWorkflowID. A stage already set on
// the task is kept when it belongs to the workflow; an empty stage becomes the
// workflow's first stage.
func (b *Binder) BindOnCreate(task *domain.Task, activeWorkflowID string) error {
	wf, ok := b.workflows.Get(activeWorkflowID)
	if !ok {
		return &ValidationError{Field: "workflowId", Message: "unknown workflow " + activeWorkflowID}
	}
	first, ok := wf.FirstStage()
	if !ok {
		return &ValidationError{Field: "workflowId", Message: "workflow " + wf.ID + " has no stages"}
	}
	if task.Stage == "" {
		task.Stage = first.ID
	} else if !wf.HasStage(task.Stage) {
		return &ValidationError{Field: "stage", Message: "stage " + task.Stage + " is not part of workflow " + wf.ID}
	}
	task.WorkflowID = wf.ID
	return nil
}

// RequestTransition moves task to target when its bound workflow allows it.
// On failure the task is left untouched and a *TransitionRejected is returned.
// Tasks whose workflow no longer exists are always rejected.
func (b *Binder) RequestTransition(ctx context.Context, task *domain.Task, target string) error {
	wf, err := b.resolve(ctx, task)
	if err != nil {
		return &TransitionRejected{
			TaskID:     task.ID,
			WorkflowID: task.WorkflowID,
			From:       task.Stage,
			To:         target,
			FromName:   stageName(nil, task.Stage),
			ToName:     stageName(nil, target),
			Err:        err,
		}
	}
	if err := ValidateTransition(wf, task.Stage, target); err != nil {
		if rejected, ok := err.(*TransitionRejected); ok {
			rejected.TaskID = task.ID
		}
		slog.InfoContext(ctx, "Transition rejected", "task_id", task.ID, "workflow_id", wf.ID, "from", task.Stage, "to", target)
		return err
	}
	if task.Stage == target {
		return nil
	}
	slog.InfoContext(ctx, "Task stage changed", "task_id", task.ID, "workflow_id", wf.ID, "from", task.Stage, "to", target)
	task.Stage = target
	task.UpdatedAt = b.clock.Now()
	return nil
}

// SuggestNextStage returns the first listed outgoing edge of the task's stage.
func (b *Binder) SuggestNextStage(task *domain.Task) (string, bool) {
	wf, ok := b.workflows.Get(task.WorkflowID)
	if !ok {
		return "", false
	}
	targets := wf.Transitions[task.Stage]
	if len(targets) == 0 {
		return "", false
	}
	return targets[0], true
}

// DescribeStage returns display data for the task's stage. Tasks whose
// workflow or stage cannot be resolved fall back to the built-in vocabulary.
func (b *Binder) DescribeStage(ctx context.Context, task *domain.Task) StageView {
	wf, err := b.resolve(ctx, task)
	if err == nil {
		if st, ok := wf.Stage(task.Stage); ok {
			return StageView{StageID: st.ID, Label: st.Name, Icon: st.Icon, Color: st.Color, WorkflowID: wf.ID}
		}
		slog.WarnContext(ctx, "Task stage not found in its workflow", "task_id", task.ID, "workflow_id", wf.ID, "stage", task.Stage)
	}
	st, ok := fallbackStage(task.Stage)
	if !ok {
		st = FallbackStages[0]
	}
	return StageView{StageID: st.ID, Label: st.Name, Icon: st.Icon, Color: st.Color, WorkflowID: task.WorkflowID, Orphaned: true}
}

// Reconcile moves a task whose stage was removed from its workflow back to
// the workflow's first stage. It reports whether the task changed.
func (b *Binder) Reconcile(ctx context.Context, task *domain.Task) bool {
	wf, ok := b.workflows.Get(task.WorkflowID)
	if !ok || wf.HasStage(task.Stage) {
		return false
	}
	first, ok := wf.FirstStage()
	if !ok {
		return false
	}
	slog.WarnContext(ctx, "Resetting task from removed stage", "task_id", task.ID, "workflow_id", wf.ID, "stage", task.Stage, "reset_to", first.ID)
	task.Stage = first.ID
	task.UpdatedAt = b.clock.Now()
	return true
}

func (b *Binder) resolve(ctx context.Context, task *domain.Task) (*domain.Workflow, error) {
	wf, ok := b.workflows.Get(task.WorkflowID)
	if !ok {
		orphan := &OrphanWorkflowReference{TaskID: task.ID, WorkflowID: task.WorkflowID}
		slog.WarnContext(ctx, "Task references unknown workflow", "task_id", task.ID, "workflow_id", task.WorkflowID)
		return nil, orphan
	}
	return wf, nil
}
