package marketplace

import (
	"errors"
	"time"
)

var (
	// ErrAgentNotFound is returned when a marketplace agent is not found.
	ErrAgentNotFound = errors.New("marketplace agent not found")

	// ErrInvalidID is returned when a marketplace agent has no ID.
	ErrInvalidID = errors.New("marketplace agent id is required")

	// ErrInvalidName is returned when a marketplace agent has no name.
	ErrInvalidName = errors.New("marketplace agent name is required")
)

// Agent is a catalog entry describing a reusable agent's chat endpoint.
// User-configured agents with source "marketplace" reference these by ID.
type Agent struct {
	ID           string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Type         string    `json:"type" gorm:"type:varchar(50);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	ChatEndpoint string    `json:"chatEndpoint" gorm:"type:varchar(512)"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks if the marketplace agent has valid required fields.
func (a *Agent) Validate() error {
	if a.ID == "" {
		return ErrInvalidID
	}
	if a.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// TableName overrides the table name so it does not collide with
// user-configured agents.
func (Agent) TableName() string {
	return "marketplace_agents"
}
