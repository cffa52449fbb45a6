package controllers

import "net/http"

// RegisterRoutes wires the HTTP routes for this controller.
func (c *WorkflowsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/workflows", c.RequireAuth(c.handleListWorkflows))
	mux.HandleFunc("POST /api/workflows", c.RequireAuth(c.handleCreateWorkflow))
	mux.HandleFunc("GET /api/workflows/active", c.RequireAuth(c.handleGetActiveWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}", c.RequireAuth(c.handleGetWorkflow))
	mux.HandleFunc("PATCH /api/workflows/{id}", c.RequireAuth(c.handleUpdateWorkflow))
	mux.HandleFunc("DELETE /api/workflows/{id}", c.RequireAuth(c.handleDeleteWorkflow))
	mux.HandleFunc("POST /api/workflows/{id}/activate", c.RequireAuth(c.handleActivateWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}/flowchart", c.RequireAuth(c.handleFlowChart))
	mux.HandleFunc("GET /api/workflows/{id}/stages", c.RequireAuth(c.handleListStages))
	mux.HandleFunc("POST /api/workflows/{id}/stages", c.RequireAuth(c.handleAddStage))
	mux.HandleFunc("PATCH /api/workflows/{id}/stages/{stageId}", c.RequireAuth(c.handleUpdateStage))
	mux.HandleFunc("DELETE /api/workflows/{id}/stages/{stageId}", c.RequireAuth(c.handleRemoveStage))
	mux.HandleFunc("GET /api/workflows/{id}/stages/{stageId}/transitions", c.RequireAuth(c.handleListTransitions))
	mux.HandleFunc("PUT /api/workflows/{id}/stages/{stageId}/transitions", c.RequireAuth(c.handleSetTransitions))
}

func (c *TasksController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", c.RequireAuth(c.handleListTasks))
	mux.HandleFunc("POST /api/tasks", c.RequireAuth(c.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", c.RequireAuth(c.handleGetTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", c.RequireAuth(c.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", c.RequireAuth(c.handleDeleteTask))
	mux.HandleFunc("POST /api/tasks/{id}/stage", c.RequireAuth(c.handleMoveTask))
	mux.HandleFunc("POST /api/tasks/{id}/advance", c.RequireAuth(c.handleAdvanceTask))
	mux.HandleFunc("GET /api/tasks/{id}/next", c.RequireAuth(c.handleNextStage))
	mux.HandleFunc("POST /api/tasks/{id}/subtasks", c.RequireAuth(c.handleAddSubtask))
	mux.HandleFunc("POST /api/tasks/{id}/subtasks/{subtaskId}/toggle", c.RequireAuth(c.handleToggleSubtask))
	mux.HandleFunc("DELETE /api/tasks/{id}/subtasks/{subtaskId}", c.RequireAuth(c.handleDeleteSubtask))
	mux.HandleFunc("GET /api/stats", c.RequireAuth(c.handleStats))
	mux.HandleFunc("GET /api/projects", c.RequireAuth(c.handleListProjects))
	mux.HandleFunc("POST /api/projects", c.RequireAuth(c.handleCreateProject))
	mux.HandleFunc("PATCH /api/projects/{id}", c.RequireAuth(c.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", c.RequireAuth(c.handleDeleteProject))
}
