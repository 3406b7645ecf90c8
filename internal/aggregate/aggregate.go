// Package aggregate reduces a vendor's per-batch oracle findings into one
// CompanyReport.
package aggregate

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/tender-cli/internal/model"
)

// Reduce merges partials in ascending batch order, independent of the order
// they are passed in. Lists are concatenated; each scalar takes the first
// non-placeholder value; the grand total and advance percentage take the
// first strictly positive value; WRAS takes the first found entry.
//
// The company name is left empty when no batch reported one, and missing
// documents are left for the gap analyzer.
func Reduce(vendorID string, partials []model.PartialAnalysis) model.CompanyReport {
	ordered := slices.Clone(partials)
	slices.SortStableFunc(ordered, func(a, b model.PartialAnalysis) int {
		return a.BatchIndex - b.BatchIndex
	})

	r := model.CompanyReport{
		VendorID:       vendorID,
		ISOAnalysis:    []model.ISOEntry{},
		FoundDocuments: []model.FoundDocument{},
		ReferenceList:  []model.Reference{},
	}

	var companyName model.FieldValue
	for _, p := range ordered {
		r.ISOAnalysis = append(r.ISOAnalysis, p.ISOAnalysis...)
		r.FoundDocuments = append(r.FoundDocuments, p.FoundDocuments...)
		r.ReferenceList = append(r.ReferenceList, p.ReferenceList...)

		if !r.WRAS.Found && p.WRAS.Found {
			r.WRAS = p.WRAS
		}

		d := p.Data
		firstValue(&companyName, d.CompanyName)
		firstValue(&r.ICVScore, d.ICVScore)
		firstValue(&r.PaymentTerms, d.PaymentTerms)
		firstValue(&r.CommercialInfo, d.CommercialInfo)
		firstValue(&r.ProjectHistory, d.ProjectHistory)
		firstValue(&r.TechnicalComplianceScore, d.TechnicalComplianceScore)
		firstValue(&r.QuotationFile, d.QuotationFile)
		firstPositive(&r.GrandTotal, d.GrandTotal)
		firstPositive(&r.AdvancePaymentPercentage, d.AdvancePaymentPercentage)
	}

	if !companyName.IsPlaceholder() {
		r.CompanyName = companyName.String()
	}
	return r
}

func firstValue(dst *model.FieldValue, candidate model.FieldValue) {
	if dst.IsPlaceholder() && !candidate.IsPlaceholder() {
		*dst = candidate
	}
}

func firstPositive(dst *float64, candidate model.FieldValue) {
	if *dst > 0 {
		return
	}
	if v, ok := positive(candidate); ok {
		*dst = v
	}
}

var plainNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)

// positive accepts a JSON number, or a string that is nothing but a decimal
// number, when it is strictly greater than zero.
func positive(f model.FieldValue) (float64, bool) {
	var v float64
	switch f.Kind {
	case model.FieldNumber:
		v = f.Number
	case model.FieldText:
		s := strings.TrimSpace(f.Text)
		if !plainNumber.MatchString(s) {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = n
	default:
		return 0, false
	}
	return v, v > 0
}
