package engine

import (
	"slices"
	"strings"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/google/uuid"
)

// StageGraph is the authoring copy of one workflow's stages and transitions.
// Edits stay in memory until the result of Build is committed to the WorkflowStore.
type StageGraph struct {
	stages      []domain.Stage
	transitions domain.Transitions
}

func NewStageGraph() *StageGraph {
	return &StageGraph{transitions: domain.Transitions{}}
}

// StageGraphFromWorkflow starts authoring from a copy of an existing workflow.
func StageGraphFromWorkflow(wf *domain.Workflow) *StageGraph {
	g := NewStageGraph()
	if wf == nil {
		return g
	}
	g.stages = slices.Clone(wf.Stages)
	g.transitions = normalizeTransitions(g.stages, wf.Transitions)
	return g
}

// AddStage appends a stage with a fresh id, the default color and the default icon.
func (g *StageGraph) AddStage(name string) (domain.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Stage{}, &ValidationError{Field: "name", Message: "stage name is required"}
	}
	s := domain.Stage{
		ID:    uuid.NewString(),
		Name:  name,
		Color: domain.DefaultStageColor,
		Icon:  domain.DefaultStageIcon,
	}
	g.stages = append(g.stages, s)
	return s, nil
}

// UpdateStage renames or restyles a stage. Empty color and icon keep the current values.
func (g *StageGraph) UpdateStage(stageID, name, color, icon string) error {
	i := g.indexOf(stageID)
	if i < 0 {
		return &ValidationError{Field: "stageId", Message: "unknown stage " + stageID}
	}
	s := g.stages[i]
	s.Name = strings.TrimSpace(name)
	if color != "" {
		s.Color = color
	}
	if icon != "" {
		s.Icon = icon
	}
	if err := checkStruct(s); err != nil {
		return err
	}
	g.stages[i] = s
	return nil
}

// RemoveStage drops the stage, its outgoing edges and every edge pointing at it.
// Removing an absent stage is a no-op.
func (g *StageGraph) RemoveStage(stageID string) {
	i := g.indexOf(stageID)
	if i < 0 {
		return
	}
	g.stages = slices.Delete(g.stages, i, i+1)
	delete(g.transitions, stageID)
	for from, targets := range g.transitions {
		g.transitions[from] = slices.DeleteFunc(targets, func(t string) bool { return t == stageID })
	}
}

// SetTransitions replaces the outgoing edges of stageID. Self loops, duplicates
// and unknown targets are dropped.
func (g *StageGraph) SetTransitions(stageID string, targets []string) error {
	if g.indexOf(stageID) < 0 {
		return &ValidationError{Field: "stageId", Message: "unknown stage " + stageID}
	}
	g.transitions[stageID] = cleanTargets(g.stages, stageID, targets)
	return nil
}

func (g *StageGraph) Stages() []domain.Stage {
	return slices.Clone(g.stages)
}

func (g *StageGraph) Transitions() domain.Transitions {
	return g.transitions.Clone()
}

// Build returns an uncommitted workflow draft for the current graph.
func (g *StageGraph) Build(name, description string) WorkflowDraft {
	return WorkflowDraft{
		Name:        name,
		Description: description,
		Stages:      g.Stages(),
		Transitions: normalizeTransitions(g.stages, g.transitions),
	}
}

func (g *StageGraph) indexOf(stageID string) int {
	return slices.IndexFunc(g.stages, func(s domain.Stage) bool { return s.ID == stageID })
}

// normalizeTransitions keeps only edges between existing stages, without
// self loops or duplicates, preserving target order.
func normalizeTransitions(stages []domain.Stage, in domain.Transitions) domain.Transitions {
	out := make(domain.Transitions, len(in))
	for from, targets := range in {
		if !hasStage(stages, from) {
			continue
		}
		cleaned := cleanTargets(stages, from, targets)
		if len(cleaned) > 0 {
			out[from] = cleaned
		}
	}
	return out
}

func cleanTargets(stages []domain.Stage, from string, targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == from || !hasStage(stages, t) || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasStage(stages []domain.Stage, id string) bool {
	return slices.ContainsFunc(stages, func(s domain.Stage) bool { return s.ID == id })
}
