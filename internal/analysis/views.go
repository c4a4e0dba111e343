package analysis

import (
	"slices"
	"strings"
	"unicode"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// Lens is the banner shown above Fee's perspective.
const (
	LensTitle = "Fee's Analysis Lens"
	LensText  = "Analysis provided from a high-SES technology user perspective with advanced access, high confidence, and strong technical literacy."
)

// Overview is the first results tab.
type Overview struct {
	Percent         string   `json:"percent"`
	Width           float64  `json:"width"`
	Tier            Tier     `json:"tier"`
	Justification   string   `json:"justification,omitempty"`
	MajorConcerns   []string `json:"major_concerns,omitempty"`
	PositiveAspects []string `json:"positive_aspects,omitempty"`
}

// BuildOverview builds the overview tab. Concern and positive lists are
// nil when empty so they are not rendered.
func BuildOverview(a *api.Analysis) Overview {
	oa := a.OverallAssessment
	ov := Overview{
		Percent:       Percent(oa.InclusivityScore),
		Width:         Width(oa.InclusivityScore),
		Tier:          TierFor(oa.InclusivityScore),
		Justification: oa.ScoreJustification,
	}
	if len(oa.MajorConcerns) > 0 {
		ov.MajorConcerns = slices.Clone(oa.MajorConcerns)
	}
	if len(oa.PositiveAspects) > 0 {
		ov.PositiveAspects = slices.Clone(oa.PositiveAspects)
	}
	return ov
}

// ExpectationRow is one row of the expectations table.
type ExpectationRow struct {
	Aspect        string `json:"aspect"`
	Label         string `json:"label"`
	Perspective   string `json:"perspective"`
	Consideration string `json:"consideration"`
}

// Category is one non-empty block inside a facet.
type Category struct {
	Name  string   `json:"name"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
	Color string   `json:"color"`
	Items []string `json:"items"`
}

// Facet is one expandable facet panel.
type Facet struct {
	Name       string     `json:"name"`
	Label      string     `json:"label"`
	Categories []Category `json:"categories"`
}

// Perspective is the second results tab.
type Perspective struct {
	Expectations    []ExpectationRow `json:"expectations"`
	Facets          []Facet          `json:"facets"`
	Recommendations []string         `json:"recommendations,omitempty"`
}

// BuildPerspective builds Fee's perspective tab. Expectations and facets
// are sorted by name. A facet is included only if at least one of its
// categories has items, and then only those categories are kept.
func BuildPerspective(a *api.Analysis) Perspective {
	var p Perspective

	aspects := make([]string, 0, len(a.FeePerspective.Expectations))
	for aspect := range a.FeePerspective.Expectations {
		aspects = append(aspects, aspect)
	}
	slices.Sort(aspects)
	for _, aspect := range aspects {
		e := a.FeePerspective.Expectations[aspect]
		p.Expectations = append(p.Expectations, ExpectationRow{
			Aspect:        aspect,
			Label:         Label(aspect),
			Perspective:   e.Perspective,
			Consideration: e.Consideration,
		})
	}

	names := make([]string, 0, len(a.FacetAnalysis))
	for name := range a.FacetAnalysis {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if f, ok := buildFacet(name, a.FacetAnalysis[name]); ok {
			p.Facets = append(p.Facets, f)
		}
	}

	if len(a.FeePerspective.Recommendations) > 0 {
		p.Recommendations = slices.Clone(a.FeePerspective.Recommendations)
	}
	return p
}

// knownCategories fixes the display order of the usual categories.
var knownCategories = []string{"assumptions", "potential_issues", "recommendations"}

func buildFacet(name string, data map[string][]string) (Facet, bool) {
	order := make([]string, 0, len(data))
	for _, c := range knownCategories {
		if _, ok := data[c]; ok {
			order = append(order, c)
		}
	}
	var rest []string
	for c := range data {
		if !slices.Contains(knownCategories, c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	order = append(order, rest...)

	f := Facet{Name: name, Label: Label(name) + " Analysis"}
	for _, c := range order {
		items := data[c]
		if len(items) == 0 {
			continue
		}
		icon, color := categoryStyle(c)
		f.Categories = append(f.Categories, Category{
			Name:  c,
			Label: Label(c),
			Icon:  icon,
			Color: color,
			Items: slices.Clone(items),
		})
	}
	return f, len(f.Categories) > 0
}

func categoryStyle(category string) (icon, color string) {
	switch category {
	case "assumptions":
		return "bi-diagram-2", "text-primary"
	case "potential_issues":
		return "bi-exclamation-triangle", "text-danger"
	case "recommendations":
		return "bi-lightbulb", "text-success"
	default:
		return "bi-card-text", "text-body"
	}
}

// Label turns a snake_case key into a display label with capitalized words.
func Label(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
