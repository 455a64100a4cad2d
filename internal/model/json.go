package model

import (
	"encoding/json"
	"fmt"
)

// unmarshalJSON is a thin wrapper shared by the custom UnmarshalJSON methods
// in this package, keeping their error chains consistent.
func unmarshalJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	return nil
}
