// Package ranking assigns price tiers and computes the weighted comparison
// of vendor reports.
package ranking

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/rubric"
)

// Result is the outcome of ranking a set of vendors.
type Result struct {
	ScoreCards   []model.ScoreCard `json:"score_cards"`
	Recommended  *model.VendorRef  `json:"recommended,omitempty"`
	LowestBidder *model.VendorRef  `json:"lowest_bidder,omitempty"`
}

// Rank assigns tiers to reports in place, scores them and picks the
// recommended vendor and the lowest bidder.
func Rank(reports []model.CompanyReport, r rubric.Rubric) Result {
	AssignTiers(reports)
	cards := Score(reports, r)
	return Result{
		ScoreCards:   cards,
		Recommended:  Recommend(cards, reports),
		LowestBidder: LowestBidder(reports),
	}
}

// Score builds one ScoreCard per report, in input order. A criterion is
// credited to every vendor whose value equals the best value across all
// vendors, provided that best value is above zero. Unpriced vendors take no
// part in the commercial comparison.
func Score(reports []model.CompanyReport, r rubric.Rubric) []model.ScoreCard {
	cards := make([]model.ScoreCard, len(reports))
	for i, rep := range reports {
		cards[i] = model.ScoreCard{VendorID: rep.VendorID, CompanyName: rep.CompanyName}
		for _, c := range r.Criteria {
			value, display := criterionValue(c.Key, rep, r.Checklist)
			cards[i].Criteria = append(cards[i].Criteria, model.CriterionScore{
				Key:     c.Key,
				Label:   c.Label,
				Weight:  c.Weight,
				Value:   value,
				Display: display,
			})
		}
	}

	for ci, c := range r.Criteria {
		best, ok := extreme(cards, ci, c.Direction, c.Key == rubric.KeyCommercial)
		if !ok || best <= 0 {
			continue
		}
		for i := range cards {
			if cards[i].Criteria[ci].Value == best {
				cards[i].Criteria[ci].IsWinner = true
				cards[i].TotalScore += c.Weight
			}
		}
	}
	return cards
}

// extreme returns the winning value of criterion ci. With positiveOnly,
// values <= 0 are ignored; ok is false when no value qualifies.
func extreme(cards []model.ScoreCard, ci int, dir rubric.Direction, positiveOnly bool) (best float64, ok bool) {
	for _, card := range cards {
		v := card.Criteria[ci].Value
		if positiveOnly && v <= 0 {
			continue
		}
		switch {
		case !ok:
			best, ok = v, true
		case dir == rubric.LowerWins:
			best = math.Min(best, v)
		default:
			best = math.Max(best, v)
		}
	}
	return best, ok
}

// criterionValue returns the comparable value and display text of one
// criterion for a report.
func criterionValue(key string, rep model.CompanyReport, checklist model.Checklist) (float64, string) {
	switch key {
	case rubric.KeyTechnical:
		if !rep.TechnicalComplianceScore.IsPlaceholder() {
			return Coerce(rep.TechnicalComplianceScore), rep.TechnicalComplianceScore.String()
		}
		v := TechnicalFallback(len(rep.MissingDocuments), checklist.Len())
		return v, formatNumber(v) + "%"
	case rubric.KeyCommercial:
		label := string(rep.RankLabel)
		if label == "" {
			label = "N/A"
		}
		return rep.GrandTotal, label
	case rubric.KeyICV:
		return Coerce(rep.ICVScore), rep.ICVScore.String()
	case rubric.KeyHistory:
		v := Coerce(rep.ProjectHistory)
		return v, strconv.Itoa(int(v))
	case rubric.KeyPayment:
		v := rep.AdvancePaymentPercentage
		return v, fmt.Sprintf("%d%%", int(v))
	default:
		return 0, "N/A"
	}
}

// TechnicalFallback derives a technical score from checklist coverage:
// 100 * (N - missing) / N, rounded to two decimals.
func TechnicalFallback(missing, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := 100 * float64(total-missing) / float64(total)
	return math.Round(v*100) / 100
}

// Recommend returns the vendor with the highest total score. cards and
// reports are index-aligned. A tie goes to the lowest priced vendor, then
// to the earliest card.
func Recommend(cards []model.ScoreCard, reports []model.CompanyReport) *model.VendorRef {
	if len(cards) == 0 {
		return nil
	}
	price := func(i int) float64 {
		if i < len(reports) && reports[i].Priced() {
			return reports[i].GrandTotal
		}
		return math.Inf(1)
	}
	best := 0
	for i := 1; i < len(cards); i++ {
		switch {
		case cards[i].TotalScore > cards[best].TotalScore:
			best = i
		case cards[i].TotalScore == cards[best].TotalScore && price(i) < price(best):
			best = i
		}
	}
	return &model.VendorRef{VendorID: cards[best].VendorID, CompanyName: cards[best].CompanyName}
}

// LowestBidder returns the priced vendor with the smallest grand total, or
// nil when nobody is priced.
func LowestBidder(reports []model.CompanyReport) *model.VendorRef {
	var best *model.CompanyReport
	for i := range reports {
		if !reports[i].Priced() {
			continue
		}
		if best == nil || reports[i].GrandTotal < best.GrandTotal {
			best = &reports[i]
		}
	}
	if best == nil {
		return nil
	}
	return &model.VendorRef{VendorID: best.VendorID, CompanyName: best.CompanyName}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
