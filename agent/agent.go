package agent

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devadoot/devadoot/rules"
)

var (
	// ErrInvalidName is returned when an agent name is empty.
	ErrInvalidName = errors.New("agent name is required")

	// ErrNoSites is returned when an agent has no configured sites.
	ErrNoSites = errors.New("at least one site must be specified")

	// ErrInvalidMonitoring is returned when the monitoring mode is invalid.
	ErrInvalidMonitoring = errors.New("invalid monitoring mode")

	// ErrInvalidRule is returned when the invocation rule text is empty.
	ErrInvalidRule = errors.New("agent invocation rule is required")

	// ErrInvalidSource is returned when the agent source is invalid.
	ErrInvalidSource = errors.New("invalid agent source")

	// ErrMissingMarketplaceID is returned when a marketplace agent has no
	// marketplace reference.
	ErrMissingMarketplaceID = errors.New("marketplace agent selection is required")

	// ErrMissingCustomEndpoint is returned when a custom agent has no endpoint.
	ErrMissingCustomEndpoint = errors.New("custom agent URL is required")

	// ErrInvalidCustomEndpoint is returned when a custom endpoint is not a
	// usable URL.
	ErrInvalidCustomEndpoint = errors.New("custom agent URL must use HTTP, HTTPS, WS, or WSS protocol")
)

// Source identifies where an agent's chat backend comes from.
type Source string

const (
	SourceMarketplace Source = "marketplace"
	SourceCustom      Source = "custom"
)

// IsValid checks if the source is valid.
func (s Source) IsValid() bool {
	return s == SourceMarketplace || s == SourceCustom
}

// Monitoring identifies which sensors an agent arms on matched pages.
type Monitoring string

const (
	MonitoringUI   Monitoring = "UI"
	MonitoringAPI  Monitoring = "API"
	MonitoringBoth Monitoring = "Both"
)

// IsValid checks if the monitoring mode is valid.
func (m Monitoring) IsValid() bool {
	switch m {
	case MonitoringUI, MonitoringAPI, MonitoringBoth:
		return true
	default:
		return false
	}
}

// WatchesUI reports whether the mode includes DOM monitoring.
func (m Monitoring) WatchesUI() bool {
	return m == MonitoringUI || m == MonitoringBoth
}

// WatchesAPI reports whether the mode includes network monitoring.
func (m Monitoring) WatchesAPI() bool {
	return m == MonitoringAPI || m == MonitoringBoth
}

// StringList is a []string stored as a JSON column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StringList: unsupported column type")
	}

	return json.Unmarshal(bytes, l)
}

// CollectorConfig is the per-agent set of data collectors to run once a
// case opens. Stored as a JSON column.
type CollectorConfig struct {
	HAR             bool `json:"har"`
	Console         bool `json:"console"`
	Cookies         bool `json:"cookies"`
	DOM             bool `json:"dom"`
	Memory          bool `json:"memory"`
	Performance     bool `json:"performance"`
	Screenshot      bool `json:"screenshot"`
	ScreenRecording bool `json:"screenRecording"`
}

// Value implements driver.Valuer.
func (c CollectorConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CollectorConfig) Scan(value interface{}) error {
	if value == nil {
		*c = CollectorConfig{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CollectorConfig: unsupported column type")
	}

	return json.Unmarshal(bytes, c)
}

// Agent is a user-configured monitoring and response unit: which sites and
// URLs to watch, what rule triggers it, what to collect, and which chat
// endpoint to connect to.
type Agent struct {
	ID             uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	Name           string            `json:"name" gorm:"type:varchar(255);not null"`
	Sites          StringList        `json:"sites" gorm:"type:json"`
	URLPatterns    StringList        `json:"urlPatterns" gorm:"type:json"`
	Source         Source            `json:"source" gorm:"type:varchar(20);not null;index:idx_source"`
	MarketplaceID  string            `json:"marketplaceId,omitempty" gorm:"type:varchar(64)"`
	CustomEndpoint string            `json:"customEndpoint,omitempty" gorm:"type:varchar(512)"`
	Monitoring     Monitoring        `json:"monitoring" gorm:"type:varchar(10);not null"`
	RuleNL         string            `json:"ruleNL" gorm:"type:text;not null"`
	RuleStructured *rules.Structured `json:"ruleStructured,omitempty" gorm:"type:json"`
	WelcomeMessage string            `json:"welcomeMessage" gorm:"type:text"`
	Collectors     CollectorConfig   `json:"collectors" gorm:"type:json"`
	Priority       int               `json:"priority" gorm:"not null;default:100;index:idx_priority"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// BeforeCreate hook to generate UUID before creating a new agent
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks if the agent has valid required fields.
func (a *Agent) Validate() error {
	if a.Name == "" {
		return ErrInvalidName
	}
	if len(a.Sites) == 0 {
		return ErrNoSites
	}
	if !a.Monitoring.IsValid() {
		return ErrInvalidMonitoring
	}
	if a.RuleNL == "" {
		return ErrInvalidRule
	}
	if !a.Source.IsValid() {
		return ErrInvalidSource
	}
	if a.Source == SourceMarketplace && a.MarketplaceID == "" {
		return ErrMissingMarketplaceID
	}
	if a.Source == SourceCustom && a.CustomEndpoint == "" {
		return ErrMissingCustomEndpoint
	}
	if a.CustomEndpoint != "" {
		if err := validateEndpoint(a.CustomEndpoint); err != nil {
			return err
		}
	}
	return nil
}

// validateEndpoint checks that a custom chat endpoint is a URL with a
// scheme the popup chat can connect over.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ErrInvalidCustomEndpoint
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return ErrInvalidCustomEndpoint
	}
}
