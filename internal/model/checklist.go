package model

// RequiredCategory names one document category on the compliance checklist.
type RequiredCategory string

// Checklist is an ordered, immutable set of required categories.
type Checklist struct {
	categories []RequiredCategory
	index      map[RequiredCategory]int
}

// NewChecklist builds a checklist. Duplicates after the first are ignored.
func NewChecklist(categories ...RequiredCategory) Checklist {
	c := Checklist{index: make(map[RequiredCategory]int, len(categories))}
	for _, cat := range categories {
		if _, dup := c.index[cat]; dup {
			continue
		}
		c.index[cat] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c
}

// Categories returns a copy of the categories in checklist order.
func (c Checklist) Categories() []RequiredCategory {
	out := make([]RequiredCategory, len(c.categories))
	copy(out, c.categories)
	return out
}

// Contains reports whether cat is on the checklist.
func (c Checklist) Contains(cat RequiredCategory) bool {
	_, ok := c.index[cat]
	return ok
}

// Len returns the number of categories.
func (c Checklist) Len() int { return len(c.categories) }
