package engine

import (
	"slices"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

// CanTransition reports whether a task in current may move to target under wf.
// Staying in the current stage is always legal. A nil workflow or a stage
// without outgoing edges has an empty edge set.
func CanTransition(wf *domain.Workflow, current, target string) bool {
	if current == target {
		return true
	}
	if wf == nil {
		return false
	}
	return wf.Transitions.Contains(current, target)
}

// ValidateTransition is CanTransition returning a *TransitionRejected naming both stages.
func ValidateTransition(wf *domain.Workflow, current, target string) error {
	if CanTransition(wf, current, target) {
		return nil
	}
	rejected := &TransitionRejected{
		From:     current,
		To:       target,
		FromName: stageName(wf, current),
		ToName:   stageName(wf, target),
	}
	if wf != nil {
		rejected.WorkflowID = wf.ID
	}
	return rejected
}

func stageName(wf *domain.Workflow, stageID string) string {
	if s, ok := wf.Stage(stageID); ok {
		return s.Name
	}
	if s, ok := fallbackStage(stageID); ok {
		return s.Name
	}
	return stageID
}

// FallbackStages is the built-in vocabulary used to display tasks whose
// workflow no longer exists.
var FallbackStages = []domain.Stage{
	{ID: "todo", Name: "To Do", Color: "#64748b", Icon: "Circle"},
	{ID: "in-progress", Name: "In Progress", Color: "#eab308", Icon: "Clock"},
	{ID: "completed", Name: "Completed", Color: "#22c55e", Icon: "CheckCircle2"},
}

func fallbackStage(stageID string) (domain.Stage, bool) {
	i := slices.IndexFunc(FallbackStages, func(s domain.Stage) bool { return s.ID == stageID })
	if i < 0 {
		return domain.Stage{}, false
	}
	return FallbackStages[i], true
}
