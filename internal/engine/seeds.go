package engine

import (
	"time"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

// Seed workflow ids. They are ordinary workflows once installed.
const (
	BasicWorkflowID       = "default"
	KanbanWorkflowID      = "kanban"
	DevelopmentWorkflowID = "development"
)

// Seeds returns the workflows installed on first run, Basic first.
func Seeds(now time.Time) []domain.Workflow {
	return []domain.Workflow{
		{
			ID:          BasicWorkflowID,
			Name:        "Basic",
			Description: "Simple to do, in progress, completed flow",
			Stages: []domain.Stage{
				{ID: "todo", Name: "To Do", Color: "#64748b", Icon: "Circle"},
				{ID: "in-progress", Name: "In Progress", Color: "#eab308", Icon: "Clock"},
				{ID: "completed", Name: "Completed", Color: "#22c55e", Icon: "CheckCircle2"},
			},
			Transitions: domain.Transitions{
				"todo":        {"in-progress"},
				"in-progress": {"completed", "todo"},
				"completed":   {"todo"},
			},
			CreatedAt: now,
		},
		{
			ID:          KanbanWorkflowID,
			Name:        "Kanban",
			Description: "Backlog driven board with a review column",
			Stages: []domain.Stage{
				{ID: "backlog", Name: "Backlog", Color: "#94a3b8", Icon: "Archive"},
				{ID: "todo", Name: "To Do", Color: "#64748b", Icon: "Circle"},
				{ID: "in-progress", Name: "In Progress", Color: "#eab308", Icon: "Clock"},
				{ID: "review", Name: "Review", Color: "#8b5cf6", Icon: "Eye"},
				{ID: "completed", Name: "Completed", Color: "#22c55e", Icon: "CheckCircle2"},
			},
			Transitions: domain.Transitions{
				"backlog":     {"todo"},
				"todo":        {"in-progress", "backlog"},
				"in-progress": {"review", "todo"},
				"review":      {"completed", "in-progress"},
				"completed":   {"todo"},
			},
			CreatedAt: now,
		},
		{
			ID:          DevelopmentWorkflowID,
			Name:        "Development",
			Description: "Software delivery pipeline from planning to deployment",
			Stages: []domain.Stage{
				{ID: "planning", Name: "Planning", Color: "#0ea5e9", Icon: "ClipboardList"},
				{ID: "development", Name: "Development", Color: "#6366f1", Icon: "Code"},
				{ID: "code-review", Name: "Code Review", Color: "#8b5cf6", Icon: "GitPullRequest"},
				{ID: "testing", Name: "Testing", Color: "#f97316", Icon: "TestTube"},
				{ID: "staging", Name: "Staging", Color: "#eab308", Icon: "Server"},
				{ID: "deployed", Name: "Deployed", Color: "#22c55e", Icon: "Rocket"},
			},
			Transitions: domain.Transitions{
				"planning":    {"development"},
				"development": {"code-review", "planning"},
				"code-review": {"testing", "development"},
				"testing":     {"staging", "development"},
				"staging":     {"deployed", "testing"},
				"deployed":    {"planning"},
			},
			CreatedAt: now,
		},
	}
}
