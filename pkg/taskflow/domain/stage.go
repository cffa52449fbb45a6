package domain

// Stage is a named state a task can occupy within one workflow.
type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Icon  string `json:"icon"`
}

const (
	DefaultStageColor = "#6366f1"
	DefaultStageIcon  = "Circle"
)
