package compliance

import (
	"strings"
	"time"

	"github.com/sells-group/tender-cli/internal/model"
)

// ISOCheck is a recomputed validity verdict for one reported certificate.
type ISOCheck struct {
	Standard      string `json:"standard"`
	ExpiryDate    string `json:"expiry_date"`
	DaysRemaining int    `json:"days_remaining"`
	Pass          bool   `json:"pass"`
	// Parsed is false when the expiry date could not be read; the oracle's
	// verdict is then the only one available.
	Parsed bool `json:"parsed"`
	// Disagrees marks entries where the oracle's status differs from the
	// recomputed one.
	Disagrees bool `json:"disagrees"`
}

var expiryLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
}

// CheckISO recomputes each certificate's validity against referenceDate: a
// certificate passes when it expires more than minDays days later.
func CheckISO(entries []model.ISOEntry, referenceDate time.Time, minDays int) []ISOCheck {
	ref := dateOf(referenceDate)
	checks := make([]ISOCheck, 0, len(entries))
	for _, e := range entries {
		c := ISOCheck{Standard: e.Standard, ExpiryDate: e.ExpiryDate}
		oraclePass := strings.EqualFold(strings.TrimSpace(e.ComplianceStatus), "pass")

		expiry, ok := parseDate(e.ExpiryDate)
		if !ok {
			c.DaysRemaining = int(e.DaysRemaining)
			c.Pass = oraclePass
			checks = append(checks, c)
			continue
		}

		c.Parsed = true
		c.DaysRemaining = int(expiry.Sub(ref).Hours() / 24)
		c.Pass = c.DaysRemaining > minDays
		c.Disagrees = c.Pass != oraclePass
		checks = append(checks, c)
	}
	return checks
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
