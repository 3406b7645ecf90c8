package ranking

import (
	"sort"

	"github.com/sells-group/tender-cli/internal/model"
)

// AssignTiers labels priced vendors by ascending grand total: the cheapest
// is L1, the most expensive L3 (only when more than one is priced) and the
// rest L2. Vendors without a positive total get no label. Equal totals keep
// their input order.
func AssignTiers(reports []model.CompanyReport) {
	var priced []int
	for i := range reports {
		reports[i].RankLabel = model.RankNone
		if reports[i].Priced() {
			priced = append(priced, i)
		}
	}

	sort.SliceStable(priced, func(a, b int) bool {
		return reports[priced[a]].GrandTotal < reports[priced[b]].GrandTotal
	})

	for pos, idx := range priced {
		switch {
		case pos == 0:
			reports[idx].RankLabel = model.RankL1
		case pos == len(priced)-1:
			reports[idx].RankLabel = model.RankL3
		default:
			reports[idx].RankLabel = model.RankL2
		}
	}
}
