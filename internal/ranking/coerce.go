package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/tender-cli/internal/model"
)

var firstNumber = regexp.MustCompile(`\d[\d,]*(\.\d+)?`)

// Coerce converts a reported field to a number for scoring. Numbers pass
// through; percent and text values yield the first number they contain
// (thousands separators dropped); anything else is 0.
func Coerce(f model.FieldValue) float64 {
	switch f.Kind {
	case model.FieldNumber:
		return f.Number
	case model.FieldPercent, model.FieldText:
		m := firstNumber.FindString(f.Text)
		if m == "" {
			return 0
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}
