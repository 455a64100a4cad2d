package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt decodes a JSON value that may be either a number or a numeric
// string into an int32, as gallery JSON from the service does for several
// fields.
type FlexInt int32

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*f = 0
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flexint: failed to unmarshal string form: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("flexint: failed to parse numeric string %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}

	var n int32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexint: failed to unmarshal numeric form: %w", err)
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int {
	return int(f)
}

// FlexBool decodes a JSON value that may be a literal bool, a 0/1 integer,
// or a numeric string (possibly empty), covering both the gallery file
// availability flags (haswebp/hasavif/hasjxl, served as integers) and the
// tag gender flags (female/male, served as "" or "1").
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flexbool: failed to unmarshal string form: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*b = false
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("flexbool: unrecognized value %q: %w", s, err)
		}
		*b = n != 0
		return nil
	}

	switch trimmed {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return fmt.Errorf("flexbool: unrecognized value %q: %w", trimmed, err)
		}
		*b = n != 0
	}
	return nil
}

func (b FlexBool) Bool() bool {
	return bool(b)
}
