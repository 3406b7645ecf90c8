package oracle

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tender-cli/internal/model"
)

// ParseError reports an oracle response that does not match the schema.
// The batch it belongs to is recorded as an empty analysis.
type ParseError struct {
	BatchIndex int
	Err        error
}

func (e *ParseError) Error() string {
	return "oracle: parse response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes an oracle response into a PartialAnalysis. Code fences and
// surrounding prose are ignored; a top-level array contributes its first
// element. When the array reading fails, the outermost object is tried
// instead. Missing keys decode as empty values.
func Parse(text string, batchIndex int, vendorID string) (model.PartialAnalysis, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return model.EmptyAnalysis(batchIndex, vendorID),
			&ParseError{BatchIndex: batchIndex, Err: eris.New("empty response")}
	}

	p, err := decodeAnalysis([]byte(cleaned))
	if err != nil && cleaned[0] == '[' {
		if obj := objectJSON(text); obj != "" {
			if alt, altErr := decodeAnalysis([]byte(obj)); altErr == nil {
				p, err = alt, nil
			}
		}
	}
	if err != nil {
		return model.EmptyAnalysis(batchIndex, vendorID), &ParseError{BatchIndex: batchIndex, Err: err}
	}
	p.BatchIndex = batchIndex
	p.VendorID = vendorID
	return p, nil
}

func decodeAnalysis(raw []byte) (model.PartialAnalysis, error) {
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return model.PartialAnalysis{}, err
		}
		if len(items) == 0 {
			return model.PartialAnalysis{}, nil
		}
		raw = items[0]
	}

	if first := bytes.TrimSpace(raw); len(first) == 0 || first[0] != '{' {
		return model.PartialAnalysis{}, eris.New("response is not a JSON object")
	}

	var p model.PartialAnalysis
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.PartialAnalysis{}, err
	}
	return p, nil
}

// cleanJSON strips markdown fences and anything outside the outermost JSON
// object or array, whichever opens first.
func cleanJSON(text string) string {
	text = stripFences(text)

	open, closing := "{", "}"
	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	if arr >= 0 && (obj < 0 || arr < obj) {
		open, closing = "[", "]"
	}
	return strings.TrimSpace(span(text, open, closing))
}

// objectJSON returns the outermost object in text, or "" when there is none.
func objectJSON(text string) string {
	text = stripFences(text)
	if !strings.Contains(text, "{") {
		return ""
	}
	return strings.TrimSpace(span(text, "{", "}"))
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return text
}

func span(text, open, closing string) string {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, closing)
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
