package rules

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Value implements driver.Valuer so a Structured rule can be stored in a
// JSON column.
func (s Structured) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading a Structured rule from a JSON
// column.
func (s *Structured) Scan(value interface{}) error {
	if value == nil {
		*s = Structured{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Structured: unsupported column type")
	}

	return json.Unmarshal(bytes, s)
}
