// Package rubric holds the compliance checklist and scoring weights used to
// evaluate bids. A Rubric is built once and passed by value; nothing in it
// changes during a run.
package rubric

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tender-cli/internal/model"
)

// Direction says which extreme of a criterion wins.
type Direction string

const (
	HigherWins Direction = "max"
	LowerWins  Direction = "min"
)

// Criterion keys understood by the ranking engine.
const (
	KeyTechnical  = "technical"
	KeyCommercial = "commercial"
	KeyICV        = "icv"
	KeyHistory    = "history"
	KeyPayment    = "payment"
)

// Criterion is one weighted scoring criterion.
type Criterion struct {
	Key       string    `yaml:"key" json:"key"`
	Label     string    `yaml:"label" json:"label"`
	Weight    float64   `yaml:"weight" json:"weight"`
	Direction Direction `yaml:"-" json:"direction"`
}

// Rubric pairs the checklist with the scoring criteria and the tender
// form register.
type Rubric struct {
	Checklist model.Checklist
	Criteria  []Criterion
	Forms     []Form
}

// DefaultCategories is the tender's required-document checklist.
var DefaultCategories = []model.RequiredCategory{
	"1- Fees application receipt copy.",
	"2- Nama water services vendor registeration certificates & Product Agency certificates or authorization letter from Factory for local distributor ratified from Oman embassy.",
	"3- Certificate of incorporation of the firm (Factory & Foundry).",
	"4- Manufacturing Process flow chart of product and list of out sourced process / operation if applicable including Outsourcing name & address.",
	"5- Valid copies certificates of (ISO 9001, ISO 45001 & ISO 14001).",
	"6- Factory Layout chart.",
	"7- Factory Organizational structure, Hierarchy levels, Ownership details.",
	"8- Product Compliance Statement with reference to Nama water services specifications (with supports documents accordingly).",
	"9- Product Technical datasheets.",
	"10- Omanisation details from Ministry of Labour.",
	"11- Product Independent Test certificates.",
	"12- Attestation of Sanitary Conformity (hygiene test including mechanical assessment for a full product certificate at 50 degrees Celsiusfull to used in drinking water)",
	"13- Provide products Chemicals Composition of materials.",
	"14- Reference list of products used in Oman or any GCC projects with contact no. or emails of end user or clients.",
}

// directions is fixed per key; only labels and weights are configurable.
var directions = map[string]Direction{
	KeyTechnical:  HigherWins,
	KeyCommercial: LowerWins,
	KeyICV:        HigherWins,
	KeyHistory:    HigherWins,
	KeyPayment:    LowerWins,
}

// DefaultCriteria returns the standard weights: technical 4, commercial 2,
// ICV 2, project history 1, payment terms 1.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Key: KeyTechnical, Label: "Technical Compliance", Weight: 4, Direction: HigherWins},
		{Key: KeyCommercial, Label: "Commercial / Price", Weight: 2, Direction: LowerWins},
		{Key: KeyICV, Label: "ICV Score", Weight: 2, Direction: HigherWins},
		{Key: KeyHistory, Label: "Project History", Weight: 1, Direction: HigherWins},
		{Key: KeyPayment, Label: "Payment Terms (Advance)", Weight: 1, Direction: LowerWins},
	}
}

// Default returns the standard rubric.
func Default() Rubric {
	return Rubric{
		Checklist: model.NewChecklist(DefaultCategories...),
		Criteria:  DefaultCriteria(),
		Forms:     DefaultForms(),
	}
}

// fileFormat is the YAML shape of a rubric override file.
type fileFormat struct {
	Categories []string    `yaml:"categories"`
	Criteria   []Criterion `yaml:"criteria"`
	Forms      []Form      `yaml:"forms"`
}

// Load reads a rubric override from a YAML file. Omitted categories and
// forms keep the defaults; criteria are merged onto the defaults by key.
func Load(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, eris.Wrapf(err, "rubric: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rubric.
func Parse(data []byte) (Rubric, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rubric{}, eris.Wrap(err, "rubric: decode yaml")
	}

	if err := validateFile(f); err != nil {
		return Rubric{}, err
	}

	r := Default()
	if len(f.Categories) > 0 {
		cats := make([]model.RequiredCategory, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = model.RequiredCategory(strings.TrimSpace(c))
		}
		r.Checklist = model.NewChecklist(cats...)
	}
	if len(f.Forms) > 0 {
		r.Forms = make([]Form, len(f.Forms))
		for i, form := range f.Forms {
			r.Forms[i] = Form{Title: strings.TrimSpace(form.Title), Submitted: form.Submitted}
		}
	}

	for _, override := range f.Criteria {
		for i := range r.Criteria {
			if r.Criteria[i].Key != override.Key {
				continue
			}
			r.Criteria[i].Weight = override.Weight
			if override.Label != "" {
				r.Criteria[i].Label = override.Label
			}
		}
	}
	return r, nil
}

func validateFile(f fileFormat) error {
	var errs []string

	seen := make(map[string]bool, len(f.Categories))
	for i, c := range f.Categories {
		c = strings.TrimSpace(c)
		if c == "" {
			errs = append(errs, fmt.Sprintf("categories[%d]: empty", i))
			continue
		}
		if seen[c] {
			errs = append(errs, "categories: duplicate "+c)
		}
		seen[c] = true
	}

	for i, form := range f.Forms {
		if strings.TrimSpace(form.Title) == "" {
			errs = append(errs, fmt.Sprintf("forms[%d]: empty title", i))
		}
	}

	for _, c := range f.Criteria {
		if _, ok := directions[c.Key]; !ok {
			errs = append(errs, "criteria: unknown key "+c.Key)
		}
		if c.Weight < 0 {
			errs = append(errs, "criteria: negative weight for "+c.Key)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("rubric: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Weight returns the weight for key, or 0 when the key is unknown.
func (r Rubric) Weight(key string) float64 {
	for _, c := range r.Criteria {
		if c.Key == key {
			return c.Weight
		}
	}
	return 0
}
