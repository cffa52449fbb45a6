package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_InitializeCreatesDefaultProject(t *testing.T) {
	f := newFixture(t)

	projects := f.tasks.ListProjects()
	require.Len(t, projects, 1)
	assert.Equal(t, domain.DefaultProjectID, projects[0].ID)
	assert.Equal(t, "Personal", projects[0].Name)

	again := NewTaskService(f.kv, f.store, f.binder, f.clock)
	require.NoError(t, again.Initialize(context.Background()))
	assert.Len(t, again.ListProjects(), 1)
	assert.Equal(t, 1, f.kv.Puts(KeyProjects))
}

func TestTaskService_CreateTaskBindsActiveWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: " Write report "})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, BasicWorkflowID, task.WorkflowID)
	assert.Equal(t, "todo", task.Stage)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.DefaultProjectID, task.ProjectID)

	require.NoError(t, f.store.SetActive(ctx, DevelopmentWorkflowID))
	dev, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Ship it", Priority: domain.PriorityUrgent})
	require.NoError(t, err)
	assert.Equal(t, DevelopmentWorkflowID, dev.WorkflowID)
	assert.Equal(t, "planning", dev.Stage)

	list := f.tasks.ListTasks(TaskFilter{})
	require.Len(t, list, 2)
	assert.Equal(t, dev.ID, list[0].ID, "newest first")
}

func TestTaskService_CreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := map[string]TaskDraft{
		"blank title":   {Title: "   "},
		"bad priority":  {Title: "x", Priority: "whenever"},
		"bad due date":  {Title: "x", DueDate: "tomorrow"},
		"stage missing": {Title: "x", Stage: "review"},
		"no project":    {Title: "x", ProjectID: "nope"},
	}
	for name, draft := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tasks.CreateTask(ctx, draft)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Empty(t, f.tasks.ListTasks(TaskFilter{}))
}

func TestTaskService_MoveAndAdvance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Task"})
	require.NoError(t, err)

	_, err = f.tasks.MoveTask(ctx, task.ID, "completed")
	assert.True(t, IsTransitionRejected(err))
	stored, _ := f.tasks.GetTask(task.ID)
	assert.Equal(t, "todo", stored.Stage)

	moved, err := f.tasks.AdvanceTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "in-progress", moved.Stage)

	next, ok, err := f.tasks.SuggestNext(task.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "completed", next)

	done, err := f.tasks.MoveTask(ctx, task.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Stage)

	var persisted []domain.Task
	require.NoError(t, json.Unmarshal([]byte(f.kv.Raw(KeyTasks)), &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, "completed", persisted[0].Stage)

	_, err = f.tasks.MoveTask(ctx, "missing", "todo")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_AdvanceWithoutEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	wf, err := f.store.Create(ctx, WorkflowDraft{Name: "Single", Stages: []domain.Stage{{ID: "only", Name: "Only"}}})
	require.NoError(t, err)
	require.NoError(t, f.store.SetActive(ctx, wf.ID))
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Stuck"})
	require.NoError(t, err)

	_, err = f.tasks.AdvanceTask(ctx, task.ID)
	assert.True(t, IsTransitionRejected(err))
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Task"})
	require.NoError(t, err)

	f.clock.Add(time.Minute)
	updated, err := f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: ptr("Renamed"), Stage: ptr("in-progress")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "in-progress", updated.Stage)
	assert.Equal(t, testStart.Add(time.Minute), updated.UpdatedAt)

	_, err = f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: ptr("Again"), Stage: ptr("nowhere")})
	assert.True(t, IsTransitionRejected(err))
	stored, _ := f.tasks.GetTask(task.ID)
	assert.Equal(t, "Renamed", stored.Title)

	_, err = f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: ptr(" ")})
	assert.True(t, IsValidation(err))
}

// Scenario E: a task whose workflow was deleted still renders.
func TestTaskService_OrphanedTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetActive(ctx, KanbanWorkflowID))
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Review me", Stage: "review"})
	require.NoError(t, err)
	require.NoError(t, f.store.SetActive(ctx, BasicWorkflowID))
	assert.Equal(t, 1, f.tasks.CountBound(KanbanWorkflowID))

	require.NoError(t, f.store.Delete(ctx, KanbanWorkflowID))

	var view StageView
	require.NotPanics(t, func() {
		view, err = f.tasks.DescribeTask(ctx, task.ID)
	})
	require.NoError(t, err)
	assert.True(t, view.Orphaned)
	assert.Contains(t, []string{"todo", "in-progress", "completed"}, view.StageID)

	_, err = f.tasks.MoveTask(ctx, task.ID, "completed")
	assert.True(t, IsTransitionRejected(err))
}

func TestTaskService_ReconcileWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Task", Stage: "completed"})
	require.NoError(t, err)

	g := StageGraphFromWorkflow(mustGet(t, f.store, BasicWorkflowID))
	g.RemoveStage("completed")
	draft := g.Build("Basic", "")
	_, err = f.store.Update(ctx, BasicWorkflowID, WorkflowPatch{Stages: draft.Stages, Transitions: draft.Transitions})
	require.NoError(t, err)

	changed, err := f.tasks.ReconcileWorkflow(ctx, BasicWorkflowID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	stored, _ := f.tasks.GetTask(task.ID)
	assert.Equal(t, "todo", stored.Stage)
}

func TestTaskService_ListTasksFilterAndSort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mk := func(title string, p domain.Priority, due string) *domain.Task {
		f.clock.Add(time.Minute)
		task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: title, Priority: p, DueDate: due})
		require.NoError(t, err)
		return task
	}
	a := mk("a", domain.PriorityLow, "2024-05-01")
	b := mk("b", domain.PriorityUrgent, "")
	c := mk("c", domain.PriorityHigh, "2024-04-01")
	_, err := f.tasks.MoveTask(ctx, c.ID, "in-progress")
	require.NoError(t, err)

	ids := func(tasks []domain.Task) []string {
		out := []string{}
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids(f.tasks.ListTasks(TaskFilter{SortBy: SortByDueDate})))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, ids(f.tasks.ListTasks(TaskFilter{SortBy: SortByPriority})))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(f.tasks.ListTasks(TaskFilter{SortBy: SortByCreated})))
	assert.Equal(t, []string{c.ID}, ids(f.tasks.ListTasks(TaskFilter{Stage: "in-progress"})))
	assert.Empty(t, f.tasks.ListTasks(TaskFilter{WorkflowID: KanbanWorkflowID}))
}

func TestTaskService_Projects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.CreateProject(ctx, ProjectDraft{Name: "  "})
	assert.True(t, IsValidation(err))

	p, err := f.tasks.CreateProject(ctx, ProjectDraft{Name: "Work", Color: "#ff0000"})
	require.NoError(t, err)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Deck", ProjectID: p.ID})
	require.NoError(t, err)

	renamed, err := f.tasks.UpdateProject(ctx, p.ID, ProjectPatch{Name: ptr("Office")})
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)

	err = f.tasks.DeleteProject(ctx, domain.DefaultProjectID)
	assert.True(t, IsConflict(err))

	require.NoError(t, f.tasks.DeleteProject(ctx, p.ID))
	stored, _ := f.tasks.GetTask(task.ID)
	assert.Equal(t, domain.DefaultProjectID, stored.ProjectID)
	assert.Len(t, f.tasks.ListProjects(), 1)

	assert.ErrorIs(t, f.tasks.DeleteProject(ctx, p.ID), ErrProjectNotFound)
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Temp"})
	require.NoError(t, err)

	require.NoError(t, f.tasks.DeleteTask(ctx, task.ID))
	assert.Empty(t, f.tasks.ListTasks(TaskFilter{}))
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, task.ID), ErrTaskNotFound)
	assert.Equal(t, "[]", f.kv.Raw(KeyTasks))
}

func TestTaskService_DeleteProjectKeepsStateOnWriteFailure(t *testing.T) {
	ctx := context.Background()

	for _, failing := range []string{KeyTasks, KeyProjects} {
		t.Run(failing, func(t *testing.T) {
			f := newFixture(t)
			p, err := f.tasks.CreateProject(ctx, ProjectDraft{Name: "Work"})
			require.NoError(t, err)
			task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Deck", ProjectID: p.ID})
			require.NoError(t, err)
			f.kv.PutFunc = func(key string, _ []byte) error {
				if key == failing {
					return errDiskFull
				}
				return nil
			}

			assert.ErrorIs(t, f.tasks.DeleteProject(ctx, p.ID), errDiskFull)

			assert.Len(t, f.tasks.ListProjects(), 2)
			stored, _ := f.tasks.GetTask(task.ID)
			assert.Equal(t, p.ID, stored.ProjectID)

			f.kv.PutFunc = nil
			reloaded := NewTaskService(f.kv, f.store, f.binder, f.clock)
			require.NoError(t, reloaded.Initialize(ctx))
			assert.Len(t, reloaded.ListProjects(), 2)
			durable, _ := reloaded.GetTask(task.ID)
			assert.Equal(t, p.ID, durable.ProjectID)
		})
	}
}

func TestTaskService_WriteFailureLeavesTaskUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Draft", Subtasks: []string{"Outline"}})
	require.NoError(t, err)
	f.kv.PutFunc = func(string, []byte) error { return errDiskFull }

	_, err = f.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: ptr("Final")})
	assert.ErrorIs(t, err, errDiskFull)
	_, err = f.tasks.MoveTask(ctx, task.ID, "in-progress")
	assert.ErrorIs(t, err, errDiskFull)
	_, err = f.tasks.AdvanceTask(ctx, task.ID)
	assert.ErrorIs(t, err, errDiskFull)
	_, err = f.tasks.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	assert.ErrorIs(t, err, errDiskFull)

	stored, err := f.tasks.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", stored.Title)
	assert.Equal(t, "todo", stored.Stage)
	assert.False(t, stored.Subtasks[0].Completed)
	assert.Equal(t, testStart, stored.UpdatedAt)
}

func TestTaskService_Subtasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task, err := f.tasks.CreateTask(ctx, TaskDraft{Title: "Release", Subtasks: []string{"Tag", " ", "Publish"}})
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "Tag", task.Subtasks[0].Title)

	_, err = f.tasks.AddSubtask(ctx, task.ID, "   ")
	assert.True(t, IsValidation(err))
	_, err = f.tasks.AddSubtask(ctx, "missing", "Announce")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	f.clock.Add(time.Minute)
	updated, err := f.tasks.AddSubtask(ctx, task.ID, " Announce ")
	require.NoError(t, err)
	require.Len(t, updated.Subtasks, 3)
	assert.Equal(t, "Announce", updated.Subtasks[2].Title)
	assert.Equal(t, testStart.Add(time.Minute), updated.UpdatedAt)

	updated, err = f.tasks.ToggleSubtask(ctx, task.ID, updated.Subtasks[0].ID)
	require.NoError(t, err)
	assert.True(t, updated.Subtasks[0].Completed)
	progress, err := f.tasks.Progress(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, progress)

	_, err = f.tasks.ToggleSubtask(ctx, task.ID, "ghost")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	updated, err = f.tasks.DeleteSubtask(ctx, task.ID, updated.Subtasks[1].ID)
	require.NoError(t, err)
	require.Len(t, updated.Subtasks, 2)
	progress, _ = f.tasks.Progress(task.ID)
	assert.Equal(t, 50, progress)

	// Returned tasks never alias stored subtasks.
	updated.Subtasks[0].Title = "mutated"
	stored, _ := f.tasks.GetTask(task.ID)
	assert.Equal(t, "Tag", stored.Subtasks[0].Title)
}

func TestTaskService_StatsAndProjectCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	p, err := f.tasks.CreateProject(ctx, ProjectDraft{Name: "Work"})
	require.NoError(t, err)
	for _, draft := range []TaskDraft{
		{Title: "Late", DueDate: "2024-03-09", ProjectID: p.ID},
		{Title: "Due today", DueDate: "2024-03-10"},
		{Title: "Late but done", DueDate: "2024-03-01", Stage: "completed"},
		{Title: "Late and busy", DueDate: "2024-03-02", Stage: "in-progress", ProjectID: p.ID},
	} {
		_, err := f.tasks.CreateTask(ctx, draft)
		require.NoError(t, err)
	}

	stats := f.tasks.Stats(now)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 2, stats.Overdue)
	assert.Equal(t, map[string]int{"todo": 2, "in-progress": 1, "completed": 1}, stats.ByStage)

	assert.Equal(t, 2, f.tasks.ProjectTaskCount(p.ID))
	assert.Equal(t, 2, f.tasks.ProjectTaskCount(domain.DefaultProjectID))
	assert.Equal(t, 0, f.tasks.ProjectTaskCount("missing"))
}

func mustGet(t *testing.T, s *WorkflowStore, id string) *domain.Workflow {
	t.Helper()
	wf, ok := s.Get(id)
	require.True(t, ok)
	return wf
}
