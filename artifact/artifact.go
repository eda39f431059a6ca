package artifact

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrArtifactNotFound is returned when an artifact is not found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidCaseID is returned when an artifact has no case reference.
	ErrInvalidCaseID = errors.New("artifact case id is required")

	// ErrInvalidKind is returned when the artifact kind is not recognized.
	ErrInvalidKind = errors.New("invalid artifact kind")

	// ErrMissingStorageKey is returned when an artifact has no storage key.
	ErrMissingStorageKey = errors.New("artifact storage key is required")
)

// Kind identifies the type of diagnostic data an artifact holds.
type Kind string

const (
	KindHAR         Kind = "har"
	KindConsole     Kind = "console"
	KindCookies     Kind = "cookies"
	KindDOM         Kind = "dom"
	KindMemory      Kind = "memory"
	KindPerformance Kind = "performance"
	KindScreenshot  Kind = "screenshot"
	KindRecording   Kind = "recording"
)

// IsValid checks if the kind is a known artifact kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindHAR, KindConsole, KindCookies, KindDOM, KindMemory,
		KindPerformance, KindScreenshot, KindRecording:
		return true
	default:
		return false
	}
}

// kindExtensions maps each kind to the file extension its payload is
// stored under.
var kindExtensions = map[Kind]string{
	KindHAR:         ".json",
	KindConsole:     ".jsonl",
	KindCookies:     ".json",
	KindDOM:         ".html.gz",
	KindMemory:      ".json",
	KindPerformance: ".json",
	KindScreenshot:  ".png",
	KindRecording:   ".webm",
}

// ExtensionForKind returns the storage extension for a kind. Unknown
// kinds fall back to a generic binary extension.
func ExtensionForKind(k Kind) string {
	if ext, ok := kindExtensions[k]; ok {
		return ext
	}
	return ".bin"
}

// Artifact is one piece of diagnostic data collected for a case, stored
// in blob storage and referenced here by key.
type Artifact struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	CaseID      uuid.UUID `json:"caseId" gorm:"type:char(36);not null;index:idx_artifact_case"`
	Kind        Kind      `json:"kind" gorm:"type:varchar(20);not null"`
	StorageKey  string    `json:"s3Key" gorm:"type:varchar(512);not null"`
	StorageURL  string    `json:"s3Url" gorm:"type:varchar(1024)"`
	SizeBytes   int64     `json:"sizeBytes" gorm:"not null;default:0"`
	ContentType string    `json:"contentType" gorm:"type:varchar(128)"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BeforeCreate hook to generate UUID before creating a new artifact
func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks if the artifact has valid required fields.
func (a *Artifact) Validate() error {
	if a.CaseID == uuid.Nil {
		return ErrInvalidCaseID
	}
	if !a.Kind.IsValid() {
		return ErrInvalidKind
	}
	if a.StorageKey == "" {
		return ErrMissingStorageKey
	}
	return nil
}
