package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/google/uuid"
)

// WorkflowDraft is the input of WorkflowStore.Create.
type WorkflowDraft struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Stages      []domain.Stage     `json:"stages"`
	Transitions domain.Transitions `json:"transitions"`
}

// WorkflowPatch is merged into an existing workflow; nil fields are left unchanged.
type WorkflowPatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Stages      []domain.Stage     `json:"stages,omitempty"`
	Transitions domain.Transitions `json:"transitions,omitempty"`
}

// WorkflowStore owns the workflow collection and the active workflow pointer.
// Every mutation writes the full collection back to the key-value store.
type WorkflowStore struct {
	mu        sync.Mutex
	kv        KeyValueStore
	clock     core.Clock
	workflows []domain.Workflow
	activeID  string
}

func NewWorkflowStore(kv KeyValueStore, clock core.Clock) *WorkflowStore {
	if clock == nil {
		clock = core.NewRealClock()
	}
	return &WorkflowStore{kv: kv, clock: clock}
}

// Initialize loads persisted workflows and installs the seed workflows when none exist.
// Calling it again with persisted workflows changes nothing.
func (s *WorkflowStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.load(ctx)
	if err != nil {
		return err
	}
	if found {
		return s.repairActive(ctx)
	}

	seeds := Seeds(s.clock.Now())
	if err := saveJSON(ctx, s.kv, KeyWorkflows, seeds); err != nil {
		return err
	}
	if err := saveJSON(ctx, s.kv, KeyActiveWorkflow, BasicWorkflowID); err != nil {
		return err
	}
	s.workflows = seeds
	s.activeID = BasicWorkflowID
	slog.InfoContext(ctx, "Installed seed workflows", "count", len(seeds), "active", s.activeID)
	return nil
}

// Load replaces in-memory state with the persisted state.
func (s *WorkflowStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load(ctx)
	return err
}

// Save writes the workflow collection and the active pointer.
func (s *WorkflowStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(ctx, s.kv, KeyWorkflows, s.workflows); err != nil {
		return err
	}
	return saveJSON(ctx, s.kv, KeyActiveWorkflow, s.activeID)
}

func (s *WorkflowStore) load(ctx context.Context) (bool, error) {
	var workflows []domain.Workflow
	found, err := loadJSON(ctx, s.kv, KeyWorkflows, &workflows)
	if err != nil {
		return false, err
	}
	var active string
	if _, err := loadJSON(ctx, s.kv, KeyActiveWorkflow, &active); err != nil {
		return false, err
	}
	for i := range workflows {
		workflows[i].Transitions = normalizeTransitions(workflows[i].Stages, workflows[i].Transitions)
	}
	s.workflows = workflows
	s.activeID = active
	return found, nil
}

// repairActive points the active pointer at a usable workflow when the
// persisted id is missing or no longer resolves.
func (s *WorkflowStore) repairActive(ctx context.Context) error {
	if wf := s.find(s.activeID); wf != nil && len(wf.Stages) > 0 {
		return nil
	}
	for _, wf := range s.workflows {
		if len(wf.Stages) == 0 {
			continue
		}
		slog.WarnContext(ctx, "Active workflow not usable, falling back", "previous", s.activeID, "active", wf.ID)
		if err := saveJSON(ctx, s.kv, KeyActiveWorkflow, wf.ID); err != nil {
			return err
		}
		s.activeID = wf.ID
		return nil
	}
	slog.WarnContext(ctx, "No usable workflow to activate", "previous", s.activeID)
	return nil
}

// Create validates the draft and inserts it at the front of the collection.
func (s *WorkflowStore) Create(ctx context.Context, draft WorkflowDraft) (*domain.Workflow, error) {
	stages, err := prepareStages(draft.Stages)
	if err != nil {
		return nil, err
	}
	wf := domain.Workflow{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Stages:      stages,
		Transitions: normalizeTransitions(stages, draft.Transitions),
	}
	if err := checkStruct(wf); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wf.CreatedAt = s.clock.Now()
	next := append([]domain.Workflow{wf}, s.workflows...)
	if err := saveJSON(ctx, s.kv, KeyWorkflows, next); err != nil {
		return nil, err
	}
	s.workflows = next
	slog.InfoContext(ctx, "Workflow created", "workflow_id", wf.ID, "name", wf.Name, "stages", len(wf.Stages))
	return wf.Clone(), nil
}

// Update merges patch into the workflow with the given id. An unknown id is a
// no-op and returns nil, nil.
func (s *WorkflowStore) Update(ctx context.Context, id string, patch WorkflowPatch) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		slog.DebugContext(ctx, "Update of unknown workflow ignored", "workflow_id", id)
		return nil, nil
	}
	return s.applyPatch(ctx, i, patch)
}

// EditGraph applies edit to the stage graph of the workflow and commits the
// result, all under one lock. Concurrent edits of the same workflow are
// serialized.
func (s *WorkflowStore) EditGraph(ctx context.Context, id string, edit func(g *StageGraph) error) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("edit workflow %s: %w", id, ErrWorkflowNotFound)
	}
	wf := &s.workflows[i]
	g := StageGraphFromWorkflow(wf)
	if err := edit(g); err != nil {
		return nil, err
	}
	draft := g.Build(wf.Name, wf.Description)
	return s.applyPatch(ctx, i, WorkflowPatch{Stages: draft.Stages, Transitions: draft.Transitions})
}

// applyPatch must be called with s.mu held.
func (s *WorkflowStore) applyPatch(ctx context.Context, i int, patch WorkflowPatch) (*domain.Workflow, error) {
	wf := *s.workflows[i].Clone()
	if patch.Name != nil {
		wf.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		wf.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Stages != nil {
		stages, err := prepareStages(patch.Stages)
		if err != nil {
			return nil, err
		}
		wf.Stages = stages
	}
	if patch.Transitions != nil {
		wf.Transitions = patch.Transitions.Clone()
	}
	wf.Transitions = normalizeTransitions(wf.Stages, wf.Transitions)
	if err := checkStruct(wf); err != nil {
		return nil, err
	}

	next := slices.Clone(s.workflows)
	next[i] = wf
	if err := saveJSON(ctx, s.kv, KeyWorkflows, next); err != nil {
		return nil, err
	}
	s.workflows = next
	slog.InfoContext(ctx, "Workflow updated", "workflow_id", wf.ID, "name", wf.Name)
	return wf.Clone(), nil
}

// Delete removes a workflow. The active workflow can never be deleted. Tasks
// bound to the removed workflow are left orphaned.
func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.activeID {
		return &ConflictError{Op: "delete", ID: id, Message: "cannot delete the active workflow"}
	}
	i := s.index(id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.workflows), i, i+1)
	if err := saveJSON(ctx, s.kv, KeyWorkflows, next); err != nil {
		return err
	}
	s.workflows = next
	slog.InfoContext(ctx, "Workflow deleted", "workflow_id", id)
	return nil
}

// SetActive changes the workflow new tasks are bound to. Unknown ids and
// workflows without stages are ignored. Existing tasks are never touched.
func (s *WorkflowStore) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf := s.find(id)
	if wf == nil {
		slog.WarnContext(ctx, "Ignoring activation of unknown workflow", "workflow_id", id)
		return nil
	}
	return s.activate(ctx, wf)
}

// Activate is SetActive for callers that need to know the id resolved. An
// unknown id returns ErrWorkflowNotFound; otherwise the workflow is returned
// as it stood when the active pointer was written.
func (s *WorkflowStore) Activate(ctx context.Context, id string) (*domain.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf := s.find(id)
	if wf == nil {
		return nil, fmt.Errorf("activate workflow %s: %w", id, ErrWorkflowNotFound)
	}
	if err := s.activate(ctx, wf); err != nil {
		return nil, err
	}
	return wf.Clone(), nil
}

func (s *WorkflowStore) activate(ctx context.Context, wf *domain.Workflow) error {
	if len(wf.Stages) == 0 {
		slog.WarnContext(ctx, "Ignoring activation of workflow without stages", "workflow_id", wf.ID)
		return nil
	}
	if wf.ID == s.activeID {
		return nil
	}
	if err := saveJSON(ctx, s.kv, KeyActiveWorkflow, wf.ID); err != nil {
		return err
	}
	s.activeID = wf.ID
	slog.InfoContext(ctx, "Active workflow changed", "workflow_id", wf.ID)
	return nil
}

// Get returns a copy of the workflow with the given id.
func (s *WorkflowStore) Get(id string) (*domain.Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf := s.find(id)
	if wf == nil {
		return nil, false
	}
	return wf.Clone(), true
}

// List returns copies of all workflows, newest first.
func (s *WorkflowStore) List() []domain.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Workflow, 0, len(s.workflows))
	for i := range s.workflows {
		out = append(out, *s.workflows[i].Clone())
	}
	return out
}

func (s *WorkflowStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *WorkflowStore) Active() (*domain.Workflow, bool) {
	return s.Get(s.ActiveID())
}

func (s *WorkflowStore) ListStages(workflowID string) ([]domain.Stage, error) {
	wf, ok := s.Get(workflowID)
	if !ok {
		return nil, fmt.Errorf("list stages of %s: %w", workflowID, ErrWorkflowNotFound)
	}
	return wf.Stages, nil
}

func (s *WorkflowStore) ListTransitionsFrom(workflowID, stageID string) ([]string, error) {
	wf, ok := s.Get(workflowID)
	if !ok {
		return nil, fmt.Errorf("list transitions of %s: %w", workflowID, ErrWorkflowNotFound)
	}
	if !wf.HasStage(stageID) {
		return nil, &ValidationError{Field: "stageId", Message: "unknown stage " + stageID}
	}
	targets := wf.TargetsFrom(stageID)
	if targets == nil {
		targets = []string{}
	}
	return targets, nil
}

func (s *WorkflowStore) index(id string) int {
	return slices.IndexFunc(s.workflows, func(wf domain.Workflow) bool { return wf.ID == id })
}

func (s *WorkflowStore) find(id string) *domain.Workflow {
	i := s.index(id)
	if i < 0 {
		return nil
	}
	return &s.workflows[i]
}

// prepareStages trims names, fills ids and defaults, and rejects duplicate ids.
func prepareStages(in []domain.Stage) ([]domain.Stage, error) {
	out := make([]domain.Stage, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, st := range in {
		st.ID = strings.TrimSpace(st.ID)
		st.Name = strings.TrimSpace(st.Name)
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if st.Color == "" {
			st.Color = domain.DefaultStageColor
		}
		if st.Icon == "" {
			st.Icon = domain.DefaultStageIcon
		}
		if _, dup := seen[st.ID]; dup {
			return nil, &ValidationError{Field: "stages", Message: "duplicate stage id " + st.ID}
		}
		seen[st.ID] = struct{}{}
		out = append(out, st)
	}
	return out, nil
}
