// Package styling carries the per-request style analysis: a bag of descriptive
// keywords grouped into a small closed set of facets, usually produced by an
// upstream vision model or supplied directly by the caller.
package styling

// Analysis maps each facet to an ordered list of free-text keywords. It is
// built per request and never persisted.
type Analysis struct {
	Tags          []string `json:"tags,omitempty"`
	Captions      []string `json:"captions,omitempty"`
	Top           []string `json:"top,omitempty"`
	Pants         []string `json:"pants,omitempty"`
	Shoes         []string `json:"shoes,omitempty"`
	OverallStyle  []string `json:"overall_style,omitempty"`
	DetectedStyle []string `json:"detected_style,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// Keywords flattens all facets into one ordered keyword sequence. The facet
// order is fixed and duplicates are kept; repeated keywords are how strongly
// represented traits gain weight in the catalog score.
func (a *Analysis) Keywords() []string {
	if a == nil {
		return nil
	}

	facets := [][]string{
		a.Tags,
		a.Captions,
		a.Top,
		a.Pants,
		a.Shoes,
		a.OverallStyle,
		a.DetectedStyle,
		a.Colors,
		a.Categories,
	}

	var keywords []string
	for _, facet := range facets {
		keywords = append(keywords, facet...)
	}

	return keywords
}
