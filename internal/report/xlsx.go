package report

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tender-cli/internal/compliance"
	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/rubric"
)

// Sheet names in the workbook.
const (
	SheetComparison = "Comparison"
	SheetScoring    = "Scoring"
	SheetChecklist  = "Checklist"
)

// Workbook builds the evaluation workbook.
func Workbook(eval *model.Evaluation, rb rubric.Rubric, opts Options) (*xlsx.File, error) {
	opts = opts.withDefaults()
	f := xlsx.NewFile()

	if err := comparisonSheet(f, eval, rb, opts); err != nil {
		return nil, err
	}
	if err := scoringSheet(f, eval, rb); err != nil {
		return nil, err
	}
	if err := checklistSheet(f, eval, rb); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteXLSX saves the evaluation workbook to path.
func WriteXLSX(path string, eval *model.Evaluation, rb rubric.Rubric, opts Options) error {
	f, err := Workbook(eval, rb, opts)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "report: save xlsx %s", path)
}

// EncodeXLSX writes the evaluation workbook to w.
func EncodeXLSX(w io.Writer, eval *model.Evaluation, rb rubric.Rubric, opts Options) error {
	f, err := Workbook(eval, rb, opts)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func addSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "report: add sheet %s", name)
	}
	return sheet, nil
}

func addStrings(sheet *xlsx.Sheet, cells ...string) *xlsx.Row {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
	return row
}

func comparisonSheet(f *xlsx.File, eval *model.Evaluation, rb rubric.Rubric, opts Options) error {
	sheet, err := addSheet(f, SheetComparison)
	if err != nil {
		return err
	}

	header := []string{"Sr. No", "Aspect"}
	cols := make([][]string, len(eval.Reports))
	for i, r := range eval.Reports {
		header = append(header, r.CompanyName)
		cols[i] = ComparisonRow(r, rb.Checklist, opts.Currency)
	}
	addStrings(sheet, header...)
	for ai, aspect := range comparisonAspects {
		row := sheet.AddRow()
		row.AddCell().SetInt(ai + 1)
		row.AddCell().SetString(aspect)
		for _, col := range cols {
			row.AddCell().SetString(col[ai])
		}
	}

	// Raw figures for spreadsheet arithmetic.
	sheet.AddRow()
	totals := sheet.AddRow()
	totals.AddCell()
	totals.AddCell().SetString("Grand Total (" + opts.Currency + ")")
	for _, r := range eval.Reports {
		cell := totals.AddCell()
		if r.Priced() {
			cell.SetFloat(r.GrandTotal)
		}
	}
	tiers := sheet.AddRow()
	tiers.AddCell()
	tiers.AddCell().SetString("Rank")
	for _, r := range eval.Reports {
		tiers.AddCell().SetString(string(r.RankLabel))
	}
	return nil
}

func scoringSheet(f *xlsx.File, eval *model.Evaluation, rb rubric.Rubric) error {
	sheet, err := addSheet(f, SheetScoring)
	if err != nil {
		return err
	}

	header := []string{"Aspect", "Weight"}
	for _, c := range eval.ScoreCards {
		header = append(header, c.CompanyName)
	}
	addStrings(sheet, header...)

	winner := xlsx.NewStyle()
	winner.Fill = *xlsx.NewFill("solid", "FFD4EDDA", "FFD4EDDA")
	winner.Font.Bold = true
	winner.ApplyFill = true
	winner.ApplyFont = true

	for ci, crit := range rb.Criteria {
		row := sheet.AddRow()
		row.AddCell().SetString(crit.Label)
		row.AddCell().SetFloat(crit.Weight)
		for _, c := range eval.ScoreCards {
			cell := row.AddCell()
			if ci >= len(c.Criteria) {
				continue
			}
			cell.SetString(c.Criteria[ci].Display)
			if c.Criteria[ci].IsWinner {
				cell.SetStyle(winner)
			}
		}
	}

	total := sheet.AddRow()
	total.AddCell().SetString("Total Score")
	total.AddCell()
	for _, c := range eval.ScoreCards {
		total.AddCell().SetFloat(c.TotalScore)
	}

	if eval.Recommended != nil {
		sheet.AddRow()
		addStrings(sheet, "Recommended", eval.Recommended.CompanyName)
		if eval.LowestBidder != nil {
			addStrings(sheet, "Lowest Bidder", eval.LowestBidder.CompanyName)
		}
	}
	return nil
}

func checklistSheet(f *xlsx.File, eval *model.Evaluation, rb rubric.Rubric) error {
	sheet, err := addSheet(f, SheetChecklist)
	if err != nil {
		return err
	}

	header := []string{"Sr. No", "Title"}
	for _, r := range eval.Reports {
		header = append(header, r.CompanyName)
	}
	addStrings(sheet, header...)

	found := make([]map[model.RequiredCategory]bool, len(eval.Reports))
	for i, r := range eval.Reports {
		found[i] = make(map[model.RequiredCategory]bool)
		for _, c := range compliance.Found(r, rb.Checklist) {
			found[i][c] = true
		}
	}

	for i, cat := range rb.Checklist.Categories() {
		row := sheet.AddRow()
		row.AddCell().SetString(strconv.Itoa(i + 1))
		row.AddCell().SetString(string(cat))
		for ri := range eval.Reports {
			v := "No"
			if found[ri][cat] {
				v = "Yes"
			}
			row.AddCell().SetString(v)
		}
	}
	return nil
}
