// Package report renders an Evaluation as Markdown, HTML and XLSX.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/tender-cli/internal/compliance"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/ranking"
	"github.com/sells-group/tender-cli/internal/rubric"
)

// Options controls report rendering.
type Options struct {
	Currency   string
	ISOMinDays int
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "OMR"
	}
	if o.ISOMinDays <= 0 {
		o.ISOMinDays = 180
	}
	return o
}

// comparisonAspects are the rows of the comparative table.
var comparisonAspects = []string{
	"Technical Compliance Score",
	"Commercial Comparison",
	"In Country Value (ICV)",
	"Previous Project History",
	"Payment Terms",
}

// ComparisonRow returns one vendor's column of the comparative table, in
// comparisonAspects order.
func ComparisonRow(r model.CompanyReport, checklist model.Checklist, currency string) []string {
	return []string{
		TechnicalDisplay(r, checklist),
		ranking.CommercialSummary(r, currency),
		r.ICVScore.String(),
		HistoryDisplay(r),
		r.PaymentTerms.String(),
	}
}

// TechnicalDisplay is the reported technical score, or the checklist
// coverage when the oracle gave none.
func TechnicalDisplay(r model.CompanyReport, checklist model.Checklist) string {
	if !r.TechnicalComplianceScore.IsPlaceholder() {
		return r.TechnicalComplianceScore.String()
	}
	v := ranking.TechnicalFallback(len(r.MissingDocuments), checklist.Len())
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// HistoryDisplay is the reported project history, or the number of
// projects counted across the reference list.
func HistoryDisplay(r model.CompanyReport) string {
	if !r.ProjectHistory.IsPlaceholder() {
		return r.ProjectHistory.String()
	}
	var total int
	for _, ref := range r.ReferenceList {
		total += int(ref.ProjectCount)
	}
	return strconv.Itoa(total)
}

// Markdown renders the full evaluation report.
func Markdown(eval *model.Evaluation, rb rubric.Rubric, opts Options) string {
	opts = opts.withDefaults()
	var b strings.Builder

	b.WriteString("# Tender Evaluation Report\n\n")
	if eval.RunID != "" {
		fmt.Fprintf(&b, "Run: `%s`  \n", eval.RunID)
	}
	fmt.Fprintf(&b, "Reference date: %s  \n", eval.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Vendors evaluated: %d  \n", len(eval.Reports))
	fmt.Fprintf(&b, "Token usage: %d input, %d output (estimated cost $%.4f)\n\n",
		eval.Usage.InputTokens, eval.Usage.OutputTokens, eval.Usage.Cost)

	if len(eval.Reports) == 0 {
		b.WriteString("No vendor submissions could be evaluated.\n\n")
		writeWarnings(&b, eval.Warnings)
		return b.String()
	}

	writeComparison(&b, eval.Reports, rb.Checklist, opts.Currency)
	writeScoring(&b, eval.ScoreCards, rb)
	writeRecommendation(&b, eval)
	writeChecklists(&b, eval.Reports, rb.Checklist)
	writeForms(&b, rb.Forms)
	writeISO(&b, eval, opts.ISOMinDays)
	writeWarnings(&b, eval.Warnings)
	return b.String()
}

func writeComparison(b *strings.Builder, reports []model.CompanyReport, checklist model.Checklist, currency string) {
	b.WriteString("## Comparative Tender Analytics\n\n")

	header := []string{"Sr. No", "Aspect"}
	cols := make([][]string, len(reports))
	for i, r := range reports {
		header = append(header, r.CompanyName)
		cols[i] = ComparisonRow(r, checklist, currency)
	}
	writeRow(b, header)
	writeSeparator(b, len(header))
	for ai, aspect := range comparisonAspects {
		row := []string{strconv.Itoa(ai + 1), aspect}
		for _, col := range cols {
			row = append(row, col[ai])
		}
		writeRow(b, row)
	}
	b.WriteString("\n")
}

func writeScoring(b *strings.Builder, cards []model.ScoreCard, rb rubric.Rubric) {
	if len(cards) == 0 {
		return
	}
	b.WriteString("## Weighted Scoring\n\n")

	header := []string{"Aspect"}
	for _, c := range cards {
		header = append(header, c.CompanyName)
	}
	writeRow(b, header)
	writeSeparator(b, len(header))

	for ci, crit := range rb.Criteria {
		row := []string{fmt.Sprintf("%s (%s)", crit.Label, strconv.FormatFloat(crit.Weight, 'f', -1, 64))}
		for _, c := range cards {
			if ci >= len(c.Criteria) {
				row = append(row, "")
				continue
			}
			cs := c.Criteria[ci]
			cell := cs.Display
			if cs.IsWinner {
				cell = "**" + cell + "** ✓"
			}
			row = append(row, cell)
		}
		writeRow(b, row)
	}

	total := []string{"**Total Score**"}
	for _, c := range cards {
		total = append(total, "**"+strconv.FormatFloat(c.TotalScore, 'f', -1, 64)+"**")
	}
	writeRow(b, total)
	b.WriteString("\n")
}

// Recommendation returns the award recommendation sentence, or "" when no
// vendor was scored.
func Recommendation(eval *model.Evaluation) string {
	if eval.Recommended == nil {
		return ""
	}
	best := eval.Recommended.CompanyName
	if eval.LowestBidder != nil && eval.LowestBidder.VendorID == eval.Recommended.VendorID {
		return fmt.Sprintf("Based on a detailed comparative analysis, **%s** is recommended for award. "+
			"**%s** also submitted the lowest-priced bid and scores highest on the prescribed evaluation criteria.",
			best, best)
	}
	lowest := "Unknown"
	if eval.LowestBidder != nil {
		lowest = eval.LowestBidder.CompanyName
	}
	return fmt.Sprintf("Based on a detailed comparative analysis, **%s** is recommended for award. "+
		"Although **%s** submitted the lowest-priced bid, the evaluation weightings indicate that **%s** "+
		"scores higher on the key deciding factors. Accordingly, **%s** is recommended in line with the "+
		"prescribed evaluation criteria.", best, lowest, best, best)
}

func writeRecommendation(b *strings.Builder, eval *model.Evaluation) {
	text := Recommendation(eval)
	if text == "" {
		return
	}
	b.WriteString("## Expert Recommendation\n\n")
	b.WriteString(text)
	b.WriteString("\n\n")
}

func writeChecklists(b *strings.Builder, reports []model.CompanyReport, checklist model.Checklist) {
	b.WriteString("## Submission Checklist\n\n")
	for _, r := range reports {
		fmt.Fprintf(b, "### %s\n\n", escapeCell(r.CompanyName))
		writeRow(b, []string{"Sr. No", "Title", "Form submitted"})
		writeSeparator(b, 3)
		missing := make(map[model.RequiredCategory]bool, len(r.MissingDocuments))
		for _, m := range r.MissingDocuments {
			missing[m] = true
		}
		for i, cat := range checklist.Categories() {
			submitted := "Yes"
			if missing[cat] {
				submitted = "No"
			}
			writeRow(b, []string{strconv.Itoa(i + 1), string(cat), submitted})
		}
		fmt.Fprintf(b, "\nCoverage: %.0f%%", compliance.Coverage(r, checklist)*100)
		if !r.QuotationFile.IsPlaceholder() {
			fmt.Fprintf(b, "  \nQuotation file: `%s`", r.QuotationFile.String())
		}
		b.WriteString("\n\n")
	}
}

// writeForms lists the tender form register. It describes the tender, so
// it is written once rather than per vendor.
func writeForms(b *strings.Builder, forms []rubric.Form) {
	if len(forms) == 0 {
		return
	}
	b.WriteString("## Tender Form Register\n\n")
	writeRow(b, []string{"Sr. No", "Title", "Form submitted"})
	writeSeparator(b, 3)
	for i, f := range forms {
		submitted := "No"
		if f.Submitted {
			submitted = "Yes"
		}
		writeRow(b, []string{strconv.Itoa(i + 1), f.Title, submitted})
	}
	b.WriteString("\n")
}

func writeISO(b *strings.Builder, eval *model.Evaluation, minDays int) {
	var hasISO bool
	for _, r := range eval.Reports {
		if len(r.ISOAnalysis) > 0 {
			hasISO = true
			break
		}
	}
	if !hasISO {
		return
	}

	fmt.Fprintf(b, "## ISO Certificates (valid for more than %d days)\n\n", minDays)
	writeRow(b, []string{"Vendor", "Standard", "Expiry", "Days Remaining", "Status"})
	writeSeparator(b, 5)
	for _, r := range eval.Reports {
		for _, c := range compliance.CheckISO(r.ISOAnalysis, eval.ReferenceDate, minDays) {
			status := "Fail"
			if c.Pass {
				status = "Pass"
			}
			if c.Disagrees {
				status += " (oracle disagrees)"
			}
			writeRow(b, []string{r.CompanyName, c.Standard, c.ExpiryDate, strconv.Itoa(c.DaysRemaining), status})
		}
	}
	b.WriteString("\n")
}

func writeWarnings(b *strings.Builder, warnings []model.VendorWarning) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("## Skipped Submissions\n\n")
	for _, w := range warnings {
		fmt.Fprintf(b, "- `%s`: %s\n", w.Archive, w.Message)
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func writeSeparator(b *strings.Builder, n int) {
	b.WriteString("|")
	for i := 0; i < n; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}
