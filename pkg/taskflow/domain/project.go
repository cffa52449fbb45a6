package domain

import "time"

const DefaultProjectID = "default"

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Color       string    `json:"color" validate:"omitempty,hexcolor"`
	CreatedAt   time.Time `json:"createdAt"`
}
