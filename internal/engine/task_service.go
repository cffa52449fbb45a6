package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/google/uuid"
)

// TaskDraft is the input of TaskService.CreateTask. Workflow binding is
// filled in by the Binder; Stage is optional.
type TaskDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     string          `json:"dueDate"`
	ProjectID   string          `json:"projectId"`
	Stage       string          `json:"stage"`
	Subtasks    []string        `json:"subtasks"`
}

// TaskPatch edits a task; nil fields are left unchanged. A stage change is
// validated like any other transition.
type TaskPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	DueDate     *string          `json:"dueDate,omitempty"`
	ProjectID   *string          `json:"projectId,omitempty"`
	Stage       *string          `json:"stage,omitempty"`
}

type SortOrder string

const (
	SortByDueDate  SortOrder = "dueDate"
	SortByPriority SortOrder = "priority"
	SortByCreated  SortOrder = "created"
)

type TaskFilter struct {
	WorkflowID string
	Stage      string
	ProjectID  string
	SortBy     SortOrder
}

// TaskStats summarizes the board. Completed and InProgress count tasks in the
// stages with those ids; ByStage counts every stage id.
type TaskStats struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	InProgress int            `json:"inProgress"`
	Overdue    int            `json:"overdue"`
	ByStage    map[string]int `json:"byStage"`
}

const (
	stageCompleted  = "completed"
	stageInProgress = "in-progress"
)

type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// TaskService owns the task and project collections. Every stage assignment
// goes through the Binder.
type TaskService struct {
	mu        sync.Mutex
	kv        KeyValueStore
	workflows *WorkflowStore
	binder    *Binder
	clock     core.Clock
	tasks     []domain.Task
	projects  []domain.Project
}

func NewTaskService(kv KeyValueStore, workflows *WorkflowStore, binder *Binder, clock core.Clock) *TaskService {
	if clock == nil {
		clock = core.NewRealClock()
	}
	return &TaskService{kv: kv, workflows: workflows, binder: binder, clock: clock}
}

// Initialize loads tasks and projects and creates the default project on first run.
func (s *TaskService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []domain.Task
	if _, err := loadJSON(ctx, s.kv, KeyTasks, &tasks); err != nil {
		return err
	}
	var projects []domain.Project
	found, err := loadJSON(ctx, s.kv, KeyProjects, &projects)
	if err != nil {
		return err
	}
	if !found {
		projects = []domain.Project{{
			ID:          domain.DefaultProjectID,
			Name:        "Personal",
			Description: "Personal tasks and projects",
			Color:       domain.DefaultStageColor,
			CreatedAt:   s.clock.Now(),
		}}
		if err := saveJSON(ctx, s.kv, KeyProjects, projects); err != nil {
			return err
		}
	}
	s.tasks = tasks
	s.projects = projects
	return nil
}

// CreateTask validates the draft, binds it to the active workflow and stores it first.
func (s *TaskService) CreateTask(ctx context.Context, draft TaskDraft) (*domain.Task, error) {
	now := s.clock.Now()
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Priority:    draft.Priority,
		DueDate:     strings.TrimSpace(draft.DueDate),
		ProjectID:   draft.ProjectID,
		Stage:       strings.TrimSpace(draft.Stage),
		Subtasks:    []domain.Subtask{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, title := range draft.Subtasks {
		if title = strings.TrimSpace(title); title != "" {
			task.Subtasks = append(task.Subtasks, domain.Subtask{ID: uuid.NewString(), Title: title, CreatedAt: now})
		}
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.ProjectID == "" {
		task.ProjectID = domain.DefaultProjectID
	}
	if err := checkStruct(task); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectIndex(task.ProjectID) < 0 {
		return nil, &ValidationError{Field: "projectId", Message: "unknown project " + task.ProjectID}
	}
	if err := s.binder.BindOnCreate(&task, s.workflows.ActiveID()); err != nil {
		return nil, err
	}
	next := append([]domain.Task{task}, s.tasks...)
	if err := s.saveTasks(ctx, next); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Task created", "task_id", task.ID, "workflow_id", task.WorkflowID, "stage", task.Stage)
	out := task.Clone()
	return &out, nil
}

// UpdateTask edits the task with the given id.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("update task %s: %w", id, ErrTaskNotFound)
	}
	task := s.tasks[i].Clone()
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = strings.TrimSpace(*patch.DueDate)
	}
	if patch.ProjectID != nil {
		if s.projectIndex(*patch.ProjectID) < 0 {
			return nil, &ValidationError{Field: "projectId", Message: "unknown project " + *patch.ProjectID}
		}
		task.ProjectID = *patch.ProjectID
	}
	if err := checkStruct(task); err != nil {
		return nil, err
	}
	if patch.Stage != nil {
		if err := s.binder.RequestTransition(ctx, &task, *patch.Stage); err != nil {
			return nil, err
		}
	}
	task.UpdatedAt = s.clock.Now()
	return s.replaceTask(ctx, i, task)
}

// MoveTask requests a stage transition for the task.
func (s *TaskService) MoveTask(ctx context.Context, id, stage string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("move task %s: %w", id, ErrTaskNotFound)
	}
	task := s.tasks[i].Clone()
	if err := s.binder.RequestTransition(ctx, &task, stage); err != nil {
		return nil, err
	}
	return s.replaceTask(ctx, i, task)
}

// AdvanceTask moves the task along the first listed edge of its stage.
func (s *TaskService) AdvanceTask(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("advance task %s: %w", id, ErrTaskNotFound)
	}
	task := s.tasks[i].Clone()
	next, ok := s.binder.SuggestNextStage(&task)
	if !ok {
		return nil, &TransitionRejected{
			TaskID:     task.ID,
			WorkflowID: task.WorkflowID,
			From:       task.Stage,
			FromName:   s.binder.DescribeStage(ctx, &task).Label,
			ToName:     "next stage",
			Err:        fmt.Errorf("stage %q has no outgoing transitions", task.Stage),
		}
	}
	if err := s.binder.RequestTransition(ctx, &task, next); err != nil {
		return nil, err
	}
	return s.replaceTask(ctx, i, task)
}

// AddSubtask appends a subtask to the task.
func (s *TaskService) AddSubtask(ctx context.Context, taskID, title string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "subtask title is required"}
	}
	return s.editSubtasks(ctx, taskID, "add subtask", func(task *domain.Task, now time.Time) error {
		task.Subtasks = append(task.Subtasks, domain.Subtask{ID: uuid.NewString(), Title: title, CreatedAt: now})
		return nil
	})
}

// ToggleSubtask flips the completed flag of one subtask.
func (s *TaskService) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Task, error) {
	return s.editSubtasks(ctx, taskID, "toggle subtask", func(task *domain.Task, _ time.Time) error {
		j := subtaskIndex(task, subtaskID)
		if j < 0 {
			return fmt.Errorf("toggle subtask %s: %w", subtaskID, ErrSubtaskNotFound)
		}
		task.Subtasks[j].Completed = !task.Subtasks[j].Completed
		return nil
	})
}

func (s *TaskService) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Task, error) {
	return s.editSubtasks(ctx, taskID, "delete subtask", func(task *domain.Task, _ time.Time) error {
		j := subtaskIndex(task, subtaskID)
		if j < 0 {
			return fmt.Errorf("delete subtask %s: %w", subtaskID, ErrSubtaskNotFound)
		}
		task.Subtasks = slices.Delete(task.Subtasks, j, j+1)
		return nil
	})
}

// Progress returns the percentage of completed subtasks of the task.
func (s *TaskService) Progress(taskID string) (int, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return 0, err
	}
	return task.Progress(), nil
}

func (s *TaskService) editSubtasks(ctx context.Context, taskID, op string, edit func(task *domain.Task, now time.Time) error) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(taskID)
	if i < 0 {
		return nil, fmt.Errorf("%s of %s: %w", op, taskID, ErrTaskNotFound)
	}
	task := s.tasks[i].Clone()
	now := s.clock.Now()
	if err := edit(&task, now); err != nil {
		return nil, err
	}
	task.UpdatedAt = now
	return s.replaceTask(ctx, i, task)
}

func subtaskIndex(task *domain.Task, id string) int {
	return slices.IndexFunc(task.Subtasks, func(st domain.Subtask) bool { return st.ID == id })
}

// Stats counts tasks as of now. Overdue tasks are past their due date and
// not completed.
func (s *TaskService) Stats(now time.Time) TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := TaskStats{Total: len(s.tasks), ByStage: map[string]int{}}
	for i := range s.tasks {
		t := &s.tasks[i]
		stats.ByStage[t.Stage]++
		switch t.Stage {
		case stageCompleted:
			stats.Completed++
			continue
		case stageInProgress:
			stats.InProgress++
		}
		if t.Overdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

// ProjectTaskCount returns how many tasks belong to the project.
func (s *TaskService) ProjectTaskCount(projectID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

// SuggestNext returns the suggested next stage of the task, if any.
func (s *TaskService) SuggestNext(id string) (string, bool, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return "", false, err
	}
	next, ok := s.binder.SuggestNextStage(task)
	return next, ok, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrTaskNotFound)
	}
	next := slices.Delete(slices.Clone(s.tasks), i, i+1)
	if err := s.saveTasks(ctx, next); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Task deleted", "task_id", id)
	return nil
}

func (s *TaskService) GetTask(id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("get task %s: %w", id, ErrTaskNotFound)
	}
	task := s.tasks[i].Clone()
	return &task, nil
}

// DescribeTask returns display data for the task's stage.
func (s *TaskService) DescribeTask(ctx context.Context, id string) (StageView, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return StageView{}, err
	}
	return s.binder.DescribeStage(ctx, task), nil
}

// ListTasks returns the tasks matching filter in the requested order.
func (s *TaskService) ListTasks(filter TaskFilter) []domain.Task {
	s.mu.Lock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.WorkflowID != "" && t.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.Stage != "" && t.Stage != filter.Stage {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, t.Clone())
	}
	s.mu.Unlock()

	sortTasks(out, filter.SortBy)
	return out
}

// ReconcileWorkflow resets tasks of workflowID that sit in a stage the
// workflow no longer has. It returns the number of tasks changed.
func (s *TaskService) ReconcileWorkflow(ctx context.Context, workflowID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.tasks)
	changed := 0
	for i := range next {
		if next[i].WorkflowID != workflowID {
			continue
		}
		if s.binder.Reconcile(ctx, &next[i]) {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.saveTasks(ctx, next)
}

// CountBound returns how many tasks are bound to workflowID.
func (s *TaskService) CountBound(workflowID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.WorkflowID == workflowID {
			n++
		}
	}
	return n
}

func (s *TaskService) CreateProject(ctx context.Context, draft ProjectDraft) (*domain.Project, error) {
	p := domain.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Color:       draft.Color,
		CreatedAt:   s.clock.Now(),
	}
	if p.Color == "" {
		p.Color = domain.DefaultStageColor
	}
	if err := checkStruct(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append([]domain.Project{p}, s.projects...)
	if err := s.saveProjects(ctx, next); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Project created", "project_id", p.ID, "name", p.Name)
	return &p, nil
}

func (s *TaskService) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.projectIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("update project %s: %w", id, ErrProjectNotFound)
	}
	p := s.projects[i]
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if err := checkStruct(p); err != nil {
		return nil, err
	}
	next := slices.Clone(s.projects)
	next[i] = p
	if err := s.saveProjects(ctx, next); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes a project and moves its tasks to the default project.
func (s *TaskService) DeleteProject(ctx context.Context, id string) error {
	if id == domain.DefaultProjectID {
		return &ConflictError{Op: "delete", ID: id, Message: "cannot delete the default project"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(id)
	if i < 0 {
		return fmt.Errorf("delete project %s: %w", id, ErrProjectNotFound)
	}
	tasks := slices.Clone(s.tasks)
	moved := 0
	for j := range tasks {
		if tasks[j].ProjectID == id {
			tasks[j].ProjectID = domain.DefaultProjectID
			moved++
		}
	}
	projects := slices.Delete(slices.Clone(s.projects), i, i+1)

	// Tasks first; a reassigned task is valid whether or not the project write lands.
	if moved > 0 {
		if err := saveJSON(ctx, s.kv, KeyTasks, tasks); err != nil {
			return err
		}
	}
	if err := saveJSON(ctx, s.kv, KeyProjects, projects); err != nil {
		if moved > 0 {
			if rbErr := saveJSON(ctx, s.kv, KeyTasks, s.tasks); rbErr != nil {
				slog.ErrorContext(ctx, "Failed to restore tasks after project delete failed", "project_id", id, "error", rbErr)
			}
		}
		return err
	}
	s.tasks = tasks
	s.projects = projects
	slog.InfoContext(ctx, "Project deleted", "project_id", id, "tasks_moved", moved)
	return nil
}

func (s *TaskService) ListProjects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.projects)
}

// replaceTask commits task at index i and returns a copy of it.
func (s *TaskService) replaceTask(ctx context.Context, i int, task domain.Task) (*domain.Task, error) {
	next := slices.Clone(s.tasks)
	next[i] = task
	if err := s.saveTasks(ctx, next); err != nil {
		return nil, err
	}
	out := task.Clone()
	return &out, nil
}

func (s *TaskService) saveTasks(ctx context.Context, tasks []domain.Task) error {
	if err := saveJSON(ctx, s.kv, KeyTasks, tasks); err != nil {
		return err
	}
	s.tasks = tasks
	return nil
}

func (s *TaskService) saveProjects(ctx context.Context, projects []domain.Project) error {
	if err := saveJSON(ctx, s.kv, KeyProjects, projects); err != nil {
		return err
	}
	s.projects = projects
	return nil
}

func (s *TaskService) taskIndex(id string) int {
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
}

func (s *TaskService) projectIndex(id string) int {
	return slices.IndexFunc(s.projects, func(p domain.Project) bool { return p.ID == id })
}

// sortTasks orders by due date (undated last), priority (urgent first) or
// creation time (newest first). Any other order keeps insertion order.
func sortTasks(tasks []domain.Task, by SortOrder) {
	switch by {
	case SortByDueDate:
		slices.SortStableFunc(tasks, func(a, b domain.Task) int {
			ad, aok := a.Due()
			bd, bok := b.Due()
			switch {
			case !aok && !bok:
				return 0
			case !aok:
				return 1
			case !bok:
				return -1
			}
			return ad.Compare(bd)
		})
	case SortByPriority:
		slices.SortStableFunc(tasks, func(a, b domain.Task) int {
			return b.Priority.Rank() - a.Priority.Rank()
		})
	case SortByCreated:
		slices.SortStableFunc(tasks, func(a, b domain.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}
