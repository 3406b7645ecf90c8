package ranking

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/tender-cli/internal/model"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with thousands separators and two
// decimals, e.g. "1,234.50 OMR".
func FormatAmount(amount float64, currency string) string {
	s := printer.Sprintf("%.2f", amount)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// CommercialSummary renders a priced vendor's tier and total, e.g.
// "L1 - 1,234.50 OMR". Unpriced vendors keep whatever commercial info the
// oracle reported.
func CommercialSummary(r model.CompanyReport, currency string) string {
	if !r.Priced() {
		return r.CommercialInfo.String()
	}
	label := string(r.RankLabel)
	if label == "" {
		label = "N/A"
	}
	return label + " - " + FormatAmount(r.GrandTotal, currency)
}
