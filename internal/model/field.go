package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// FieldKind tags the variant held by a FieldValue.
type FieldKind int

const (
	FieldEmpty FieldKind = iota
	FieldNumber
	FieldPercent
	FieldText
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumber:
		return "number"
	case FieldPercent:
		return "percent"
	case FieldText:
		return "text"
	default:
		return "empty"
	}
}

// FieldValue is a scalar reported by the oracle: a number, a percentage
// string, free text, or nothing. Number is only set for FieldNumber; Text
// keeps the raw string for the percent and text variants.
type FieldValue struct {
	Kind   FieldKind
	Number float64
	Text   string
}

var percentPattern = regexp.MustCompile(`^-?\d+(\.\d+)?\s*%$`)

// placeholders are strings the oracle uses to mean "not found".
var placeholders = map[string]bool{
	"":                true,
	"n/a":             true,
	"na":              true,
	"null":            true,
	"none":            true,
	"unknown":         true,
	"unknown company": true,
	"not found":       true,
	"-":               true,
}

// Num builds a numeric FieldValue.
func Num(v float64) FieldValue { return FieldValue{Kind: FieldNumber, Number: v} }

// Str classifies a raw string into the empty, percent or text variant.
func Str(s string) FieldValue {
	trimmed := strings.TrimSpace(s)
	switch {
	case placeholders[strings.ToLower(trimmed)]:
		return FieldValue{}
	case percentPattern.MatchString(trimmed):
		return FieldValue{Kind: FieldPercent, Text: trimmed}
	default:
		return FieldValue{Kind: FieldText, Text: trimmed}
	}
}

// IsPlaceholder reports whether the value carries no information. A zero
// number counts as a placeholder.
func (f FieldValue) IsPlaceholder() bool {
	return f.Kind == FieldEmpty || (f.Kind == FieldNumber && f.Number == 0)
}

// String renders the value for display; empty values render as "N/A".
func (f FieldValue) String() string {
	switch f.Kind {
	case FieldNumber:
		return strconv.FormatFloat(f.Number, 'f', -1, 64)
	case FieldPercent, FieldText:
		return f.Text
	default:
		return "N/A"
	}
}

// MarshalJSON writes numbers as JSON numbers, strings as strings and the
// empty variant as null.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FieldNumber:
		return json.Marshal(f.Number)
	case FieldPercent, FieldText:
		return json.Marshal(f.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, numbers, strings and booleans. An object
// decodes as empty; a list takes its first informative element.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = FieldValue{}
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode field string")
		}
		*f = Str(s)
	case 't', 'f':
		*f = FieldValue{Kind: FieldText, Text: raw}
	case '{':
		*f = FieldValue{}
	case '[':
		var items []FieldValue
		if err := json.Unmarshal(data, &items); err != nil {
			return eris.Wrap(err, "model: decode field list")
		}
		*f = FieldValue{}
		for _, item := range items {
			if !item.IsPlaceholder() {
				*f = item
				break
			}
		}
	default:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return eris.Wrapf(err, "model: decode field number %q", raw)
		}
		*f = Num(n)
	}
	return nil
}
