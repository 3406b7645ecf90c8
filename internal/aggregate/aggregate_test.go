package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tender-cli/internal/model"
)

func partial(idx int, mutate func(*model.PartialAnalysis)) model.PartialAnalysis {
	p := model.EmptyAnalysis(idx, "acme")
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestReduce_Empty(t *testing.T) {
	r := Reduce("acme", nil)
	assert.Equal(t, "acme", r.VendorID)
	assert.Empty(t, r.CompanyName)
	assert.NotNil(t, r.FoundDocuments)
	assert.Empty(t, r.FoundDocuments)
	assert.Zero(t, r.GrandTotal)
	assert.True(t, r.ICVScore.IsPlaceholder())
}

func TestReduce_ScalarsFirstByBatchIndex(t *testing.T) {
	partials := []model.PartialAnalysis{
		partial(2, func(p *model.PartialAnalysis) {
			p.Data.CompanyName = model.Str("Late Name")
			p.Data.ICVScore = model.Str("30%")
		}),
		partial(0, func(p *model.PartialAnalysis) {
			p.Data.CompanyName = model.Str("N/A")
			p.Data.PaymentTerms = model.Str("60 days")
		}),
		partial(1, func(p *model.PartialAnalysis) {
			p.Data.CompanyName = model.Str("Acme Pipes")
			p.Data.ICVScore = model.Str("25%")
			p.Data.PaymentTerms = model.Str("30 days")
		}),
	}

	r := Reduce("acme", partials)
	assert.Equal(t, "Acme Pipes", r.CompanyName)
	assert.Equal(t, "25%", r.ICVScore.Text)
	assert.Equal(t, "60 days", r.PaymentTerms.Text)
}

func TestReduce_GrandTotalFirstPositive(t *testing.T) {
	partials := []model.PartialAnalysis{
		partial(0, func(p *model.PartialAnalysis) { p.Data.GrandTotal = model.Num(0) }),
		partial(1, func(p *model.PartialAnalysis) { p.Data.GrandTotal = model.Num(-5) }),
		partial(2, func(p *model.PartialAnalysis) { p.Data.GrandTotal = model.Num(1250) }),
		partial(3, func(p *model.PartialAnalysis) { p.Data.GrandTotal = model.Num(900) }),
	}
	assert.Equal(t, float64(1250), Reduce("acme", partials).GrandTotal)
}

func TestReduce_AdvanceAcceptsNumericString(t *testing.T) {
	partials := []model.PartialAnalysis{
		partial(0, func(p *model.PartialAnalysis) { p.Data.AdvancePaymentPercentage = model.Str("0") }),
		partial(1, func(p *model.PartialAnalysis) { p.Data.AdvancePaymentPercentage = model.Str("about ten") }),
		partial(2, func(p *model.PartialAnalysis) { p.Data.AdvancePaymentPercentage = model.Str("15") }),
		partial(3, func(p *model.PartialAnalysis) { p.Data.AdvancePaymentPercentage = model.Num(20) }),
	}
	assert.Equal(t, float64(15), Reduce("acme", partials).AdvancePaymentPercentage)
}

func TestReduce_WRASFirstFound(t *testing.T) {
	partials := []model.PartialAnalysis{
		partial(0, func(p *model.PartialAnalysis) { p.WRAS = model.WRASAnalysis{Found: false, ID: "ignored"} }),
		partial(1, func(p *model.PartialAnalysis) { p.WRAS = model.WRASAnalysis{Found: true, ID: "111"} }),
		partial(2, func(p *model.PartialAnalysis) { p.WRAS = model.WRASAnalysis{Found: true, ID: "222"} }),
	}
	assert.Equal(t, model.WRASAnalysis{Found: true, ID: "111"}, Reduce("acme", partials).WRAS)
}

func TestReduce_ListsConcatenatedInOrderWithoutDedup(t *testing.T) {
	doc := func(name string) model.FoundDocument {
		return model.FoundDocument{Filename: name, Category: "9- Product Technical datasheets.", Status: "Valid"}
	}
	partials := []model.PartialAnalysis{
		partial(1, func(p *model.PartialAnalysis) {
			p.FoundDocuments = []model.FoundDocument{doc("c.pdf")}
			p.ReferenceList = []model.Reference{{Filename: "refs.pdf", ProjectCount: 4}}
		}),
		partial(0, func(p *model.PartialAnalysis) {
			p.FoundDocuments = []model.FoundDocument{doc("a.pdf"), doc("b.pdf")}
			p.ISOAnalysis = []model.ISOEntry{{Standard: "ISO 9001"}}
		}),
		partial(2, func(p *model.PartialAnalysis) {
			p.FoundDocuments = []model.FoundDocument{doc("c.pdf")}
		}),
	}

	r := Reduce("acme", partials)
	var names []string
	for _, d := range r.FoundDocuments {
		names = append(names, d.Filename)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "c.pdf"}, names)
	assert.Len(t, r.ISOAnalysis, 1)
	assert.Len(t, r.ReferenceList, 1)
}

func TestReduce_OrderIndependent(t *testing.T) {
	var partials []model.PartialAnalysis
	for i := 0; i < 6; i++ {
		partials = append(partials, partial(i, func(p *model.PartialAnalysis) {
			p.FoundDocuments = []model.FoundDocument{{Filename: string(rune('a' + i))}}
			if i%2 == 1 {
				p.Data.TechnicalComplianceScore = model.Str(string(rune('0'+i)) + "0%")
				p.Data.GrandTotal = model.Num(float64(100 * i))
			}
		}))
	}
	want := Reduce("acme", partials)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]model.PartialAnalysis(nil), partials...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Reduce("acme", shuffled))
	}
	assert.Equal(t, float64(100), want.GrandTotal)
	assert.Equal(t, "10%", want.TechnicalComplianceScore.Text)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	partials := []model.PartialAnalysis{partial(1, nil), partial(0, nil)}
	Reduce("acme", partials)
	assert.Equal(t, 1, partials[0].BatchIndex)
}

func TestPositive(t *testing.T) {
	tests := []struct {
		in   model.FieldValue
		want float64
		ok   bool
	}{
		{model.Num(3.5), 3.5, true},
		{model.Num(0), 0, false},
		{model.Str("12.25"), 12.25, true},
		{model.Str("10%"), 0, false},
		{model.Str("1,000"), 0, false},
		{model.FieldValue{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := positive(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
