package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/internal/util"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

// TasksController serves task and project endpoints. Every stage change goes
// through the engine's TaskService.
type TasksController struct {
	AuthController
	Tasks *engine.TaskService
}

func NewTasksController(tasks *engine.TaskService, auth AuthController) *TasksController {
	return &TasksController{AuthController: auth, Tasks: tasks}
}

// TaskResponse pairs a task with the data needed to render its stage.
type TaskResponse struct {
	Task     domain.Task      `json:"task"`
	Stage    engine.StageView `json:"stageView"`
	Progress int              `json:"progress"`
}

type AddSubtaskRequest struct {
	Title string `json:"title"`
}

// ProjectResponse is a project plus the number of tasks filed under it.
type ProjectResponse struct {
	domain.Project
	TaskCount int `json:"taskCount"`
}

type MoveTaskRequest struct {
	Stage string `json:"stage"`
}

type NextStageResponse struct {
	Stage string `json:"stage,omitempty"`
	Found bool   `json:"found"`
}

func (c *TasksController) respondTask(w http.ResponseWriter, r *http.Request, status int, task *domain.Task) {
	view, err := c.Tasks.DescribeTask(r.Context(), task.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, status, TaskResponse{Task: *task, Stage: view, Progress: task.Progress()})
}

func (c *TasksController) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks := c.Tasks.ListTasks(engine.TaskFilter{
		WorkflowID: q.Get("workflowId"),
		Stage:      q.Get("stage"),
		ProjectID:  q.Get("projectId"),
		SortBy:     engine.SortOrder(q.Get("sort")),
	})
	util.WriteJSONResponse(w, http.StatusOK, tasks)
}

func (c *TasksController) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	draft, err := util.DecodeJSONBody[engine.TaskDraft](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	task, err := c.Tasks.CreateTask(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user, ok := r.Context().Value(core.CtxKeyUsername).(string); ok && user != "" {
		slog.InfoContext(r.Context(), "Task created via API", "task_id", task.ID, "username", user)
	}
	c.respondTask(w, r, http.StatusCreated, task)
}

func (c *TasksController) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := c.Tasks.GetTask(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	patch, err := util.DecodeJSONBody[engine.TaskPatch](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	task, err := c.Tasks.UpdateTask(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := c.Tasks.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *TasksController) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[MoveTaskRequest](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	task, err := c.Tasks.MoveTask(r.Context(), r.PathValue("id"), req.Stage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleAdvanceTask(w http.ResponseWriter, r *http.Request) {
	task, err := c.Tasks.AdvanceTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleNextStage(w http.ResponseWriter, r *http.Request) {
	next, ok, err := c.Tasks.SuggestNext(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, NextStageResponse{Stage: next, Found: ok})
}

func (c *TasksController) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[AddSubtaskRequest](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	task, err := c.Tasks.AddSubtask(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusCreated, task)
}

func (c *TasksController) handleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	task, err := c.Tasks.ToggleSubtask(r.Context(), r.PathValue("id"), r.PathValue("subtaskId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	task, err := c.Tasks.DeleteSubtask(r.Context(), r.PathValue("id"), r.PathValue("subtaskId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondTask(w, r, http.StatusOK, task)
}

func (c *TasksController) handleStats(w http.ResponseWriter, r *http.Request) {
	util.WriteJSONResponse(w, http.StatusOK, c.Tasks.Stats(time.Now()))
}

func (c *TasksController) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects := c.Tasks.ListProjects()
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectResponse{Project: p, TaskCount: c.Tasks.ProjectTaskCount(p.ID)})
	}
	util.WriteJSONResponse(w, http.StatusOK, out)
}

func (c *TasksController) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	draft, err := util.DecodeJSONBody[engine.ProjectDraft](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	p, err := c.Tasks.CreateProject(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, p)
}

func (c *TasksController) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	patch, err := util.DecodeJSONBody[engine.ProjectPatch](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	p, err := c.Tasks.UpdateProject(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, p)
}

func (c *TasksController) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := c.Tasks.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
