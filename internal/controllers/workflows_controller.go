package controllers

import (
	"log/slog"
	"net/http"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/internal/util"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

// WorkflowsController serves workflow and stage graph endpoints.
type WorkflowsController struct {
	AuthController
	Workflows *engine.WorkflowStore
	Tasks     *engine.TaskService
}

func NewWorkflowsController(workflows *engine.WorkflowStore, tasks *engine.TaskService, auth AuthController) *WorkflowsController {
	return &WorkflowsController{AuthController: auth, Workflows: workflows, Tasks: tasks}
}

// WorkflowResponse is a workflow plus whether it is the active one.
type WorkflowResponse struct {
	domain.Workflow
	Active     bool `json:"active"`
	BoundTasks int  `json:"boundTasks"`
}

type AddStageRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type SetTransitionsRequest struct {
	Targets []string `json:"targets"`
}

func (c *WorkflowsController) toResponse(wf domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		Workflow:   wf,
		Active:     wf.ID == c.Workflows.ActiveID(),
		BoundTasks: c.Tasks.CountBound(wf.ID),
	}
}

func (c *WorkflowsController) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	list := c.Workflows.List()
	out := make([]WorkflowResponse, 0, len(list))
	for _, wf := range list {
		out = append(out, c.toResponse(wf))
	}
	util.WriteJSONResponse(w, http.StatusOK, out)
}

func (c *WorkflowsController) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	draft, err := util.DecodeJSONBody[engine.WorkflowDraft](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	wf, err := c.Workflows.Create(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, c.toResponse(*wf))
}

func (c *WorkflowsController) handleGetActiveWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := c.Workflows.Active()
	if !ok {
		writeNotFound(w, r, "no active workflow")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, c.toResponse(*wf))
}

func (c *WorkflowsController) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := c.Workflows.Get(r.PathValue("id"))
	if !ok {
		writeNotFound(w, r, "workflow not found")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, c.toResponse(*wf))
}

// handleFlowChart returns the stage graph as Mermaid source.
func (c *WorkflowsController) handleFlowChart(w http.ResponseWriter, r *http.Request) {
	wf, ok := c.Workflows.Get(r.PathValue("id"))
	if !ok {
		writeNotFound(w, r, "workflow not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(engine.BuildFlowChart(wf)))
}

func (c *WorkflowsController) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	patch, err := util.DecodeJSONBody[engine.WorkflowPatch](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	id := r.PathValue("id")
	wf, err := c.Workflows.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wf == nil {
		writeNotFound(w, r, "workflow not found")
		return
	}
	if patch.Stages != nil {
		c.reconcile(r, id)
	}
	util.WriteJSONResponse(w, http.StatusOK, c.toResponse(*wf))
}

func (c *WorkflowsController) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bound := c.Tasks.CountBound(id)
	if err := c.Workflows.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if bound > 0 {
		slog.WarnContext(r.Context(), "Deleted workflow left tasks orphaned", "workflow_id", id, "orphaned_tasks", bound)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *WorkflowsController) handleActivateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := c.Workflows.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, c.toResponse(*wf))
}

func (c *WorkflowsController) handleListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := c.Workflows.ListStages(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, stages)
}

func (c *WorkflowsController) handleAddStage(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[AddStageRequest](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	var added domain.Stage
	wf, err := c.editGraph(r, func(g *engine.StageGraph) error {
		st, err := g.AddStage(req.Name)
		if err != nil {
			return err
		}
		if req.Color != "" || req.Icon != "" {
			color, icon := st.Color, st.Icon
			if req.Color != "" {
				color = req.Color
			}
			if req.Icon != "" {
				icon = req.Icon
			}
			if err := g.UpdateStage(st.ID, st.Name, color, icon); err != nil {
				return err
			}
		}
		added = st
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, _ := wf.Stage(added.ID)
	util.WriteJSONResponse(w, http.StatusCreated, st)
}

func (c *WorkflowsController) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[AddStageRequest](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	stageID := r.PathValue("stageId")
	wf, err := c.editGraph(r, func(g *engine.StageGraph) error {
		name := req.Name
		if name == "" {
			for _, st := range g.Stages() {
				if st.ID == stageID {
					name = st.Name
				}
			}
		}
		return g.UpdateStage(stageID, name, req.Color, req.Icon)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, _ := wf.Stage(stageID)
	util.WriteJSONResponse(w, http.StatusOK, st)
}

func (c *WorkflowsController) handleRemoveStage(w http.ResponseWriter, r *http.Request) {
	stageID := r.PathValue("stageId")
	_, err := c.editGraph(r, func(g *engine.StageGraph) error {
		g.RemoveStage(stageID)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *WorkflowsController) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	targets, err := c.Workflows.ListTransitionsFrom(r.PathValue("id"), r.PathValue("stageId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, targets)
}

func (c *WorkflowsController) handleSetTransitions(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[SetTransitionsRequest](r)
	if err != nil {
		writeBadRequest(w, r, "invalid JSON payload")
		return
	}
	stageID := r.PathValue("stageId")
	wf, err := c.editGraph(r, func(g *engine.StageGraph) error {
		return g.SetTransitions(stageID, req.Targets)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, wf.TargetsFrom(stageID))
}

// editGraph commits edit to the workflow's stage graph. Tasks left in a
// removed stage are reconciled.
func (c *WorkflowsController) editGraph(r *http.Request, edit func(g *engine.StageGraph) error) (*domain.Workflow, error) {
	id := r.PathValue("id")
	updated, err := c.Workflows.EditGraph(r.Context(), id, edit)
	if err != nil {
		return nil, err
	}
	c.reconcile(r, id)
	return updated, nil
}

func (c *WorkflowsController) reconcile(r *http.Request, workflowID string) {
	if _, err := c.Tasks.ReconcileWorkflow(r.Context(), workflowID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to reconcile tasks", "workflow_id", workflowID, "error", err)
	}
}
