package domain

import (
	"slices"
	"time"
)

// Transitions maps a stage id to the ordered set of stage ids it may move to.
// Order is preserved because the first listed target is the suggested next stage.
type Transitions map[string][]string

type Workflow struct {
	ID          string      `json:"id"`
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	Stages      []Stage     `json:"stages" validate:"required,min=1,dive"`
	Transitions Transitions `json:"transitions"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Stage returns the stage with the given id.
func (w *Workflow) Stage(id string) (Stage, bool) {
	if w == nil {
		return Stage{}, false
	}
	for _, s := range w.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (w *Workflow) HasStage(id string) bool {
	_, ok := w.Stage(id)
	return ok
}

// FirstStage returns the first stage in display order.
func (w *Workflow) FirstStage() (Stage, bool) {
	if w == nil || len(w.Stages) == 0 {
		return Stage{}, false
	}
	return w.Stages[0], true
}

// TargetsFrom returns a copy of the outgoing edges of stageID.
func (w *Workflow) TargetsFrom(stageID string) []string {
	if w == nil {
		return nil
	}
	return slices.Clone(w.Transitions[stageID])
}

// Clone returns a deep copy so callers can never mutate stored state.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	c := *w
	c.Stages = slices.Clone(w.Stages)
	c.Transitions = w.Transitions.Clone()
	return &c
}

func (t Transitions) Clone() Transitions {
	if t == nil {
		return nil
	}
	c := make(Transitions, len(t))
	for k, v := range t {
		c[k] = slices.Clone(v)
	}
	return c
}

// Contains reports whether the edge from -> to exists.
func (t Transitions) Contains(from, to string) bool {
	return slices.Contains(t[from], to)
}
