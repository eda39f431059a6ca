package uuidutil

import (
	"fmt"

	"github.com/google/uuid"
)

// Parse parses a string identifier taken from a request path or query
// parameter. The error hides the raw library message so it is safe to
// echo back to API clients.
func Parse(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid identifier %q", s)
	}
	return id, nil
}
