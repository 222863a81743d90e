package contact

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Submission field names
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldSubject       = "subject"
	FieldBudget        = "budget"
	FieldTimeline      = "timeline"
	FieldMessage       = "message"
	FieldNewsletter    = "newsletter"
	FieldPrivacy       = "privacy"
	FieldFormStartTime = "form_start_time"
)

// Submission is one contact form submission as received from the caller.
// Values are strings for form payloads and JSON scalars for JSON payloads;
// a missing key is treated the same as an empty value.
type Submission map[string]any

// String returns the value of field as text.
// Non-scalar values (objects, arrays) read as empty.
func (s Submission) String(field string) string {
	return ScalarString(s[field])
}

// Int returns the leading integer of field, or 0 when it has none
func (s Submission) Int(field string) int64 {
	return ScalarInt(s[field])
}

// Has reports whether field is present and not empty
func (s Submission) Has(field string) bool {
	v, ok := s[field]
	return ok && !IsEmpty(v)
}

// ScalarString renders a decoded value as text
func ScalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

// ScalarInt parses the leading integer of a value the way form inputs are
// usually coerced: "1700000000.9" and 1700000000.9 both give 1700000000.
func ScalarInt(v any) int64 {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return int64(f)
		}
		return leadingInt(val.String())
	case float64:
		return int64(val)
	case int:
		return int64(val)
	case int64:
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		return leadingInt(val)
	default:
		return 0
	}
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// IsEmpty reports whether a value counts as blank: nil, "", "0", false,
// numeric zero and empty collections.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == "" || val == "0"
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
