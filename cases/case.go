package cases

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devadoot/devadoot/rules"
)

var (
	// ErrCaseNotFound is returned when a case is not found.
	ErrCaseNotFound = errors.New("case not found")

	// ErrCaseClosed is returned when closing a case that is already closed.
	ErrCaseClosed = errors.New("case is already closed")

	// ErrInvalidAgentID is returned when a case has no agent reference.
	ErrInvalidAgentID = errors.New("case agent id is required")

	// ErrInvalidURL is returned when a case has no page URL.
	ErrInvalidURL = errors.New("case URL is required")
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Case is one activation of an agent on a page: the moment a rule fired,
// where it fired, and the rule material it fired with. Artifacts collected
// for the session hang off the case.
type Case struct {
	ID             uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	AgentID        uuid.UUID         `json:"agentId" gorm:"type:char(36);not null;index:idx_case_agent"`
	URL            string            `json:"url" gorm:"type:varchar(2048);not null"`
	Site           string            `json:"site" gorm:"type:varchar(255)"`
	RuleNL         string            `json:"ruleNL" gorm:"type:text"`
	RuleStructured *rules.Structured `json:"ruleStructured,omitempty" gorm:"type:json"`
	Status         Status            `json:"status" gorm:"type:varchar(10);not null;index:idx_case_status"`
	CreatedAt      time.Time         `json:"createdAt"`
	ClosedAt       *time.Time        `json:"closedAt,omitempty"`
}

// BeforeCreate hook to generate UUID and open the case before creation
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	return nil
}

// Validate checks if the case has valid required fields.
func (c *Case) Validate() error {
	if c.AgentID == uuid.Nil {
		return ErrInvalidAgentID
	}
	if c.URL == "" {
		return ErrInvalidURL
	}
	return nil
}
