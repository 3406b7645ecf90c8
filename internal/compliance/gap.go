// Package compliance compares a vendor's classified documents against the
// required checklist.
package compliance

import (
	"strings"

	"github.com/sells-group/tender-cli/internal/model"
)

// Missing returns the checklist categories with no matching found document,
// in checklist order. Categories the oracle reports that are not on the
// checklist are ignored.
func Missing(report model.CompanyReport, checklist model.Checklist) []model.RequiredCategory {
	present := presentCategories(report)
	missing := []model.RequiredCategory{}
	for _, cat := range checklist.Categories() {
		if !present[cat] {
			missing = append(missing, cat)
		}
	}
	return missing
}

// Found returns the checklist categories covered by at least one found
// document, in checklist order.
func Found(report model.CompanyReport, checklist model.Checklist) []model.RequiredCategory {
	present := presentCategories(report)
	var found []model.RequiredCategory
	for _, cat := range checklist.Categories() {
		if present[cat] {
			found = append(found, cat)
		}
	}
	return found
}

// Coverage returns the fraction of checklist categories that are present.
func Coverage(report model.CompanyReport, checklist model.Checklist) float64 {
	if checklist.Len() == 0 {
		return 0
	}
	return float64(len(Found(report, checklist))) / float64(checklist.Len())
}

func presentCategories(report model.CompanyReport) map[model.RequiredCategory]bool {
	present := make(map[model.RequiredCategory]bool, len(report.FoundDocuments))
	for _, d := range report.FoundDocuments {
		present[model.RequiredCategory(strings.TrimSpace(string(d.Category)))] = true
	}
	return present
}
