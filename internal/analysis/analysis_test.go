package analysis

import (
	"errors"
	"testing"

	"github.com/ziadkadry99/fee-web/internal/api"
)

func TestPercentAndTier(t *testing.T) {
	tests := []struct {
		score   float64
		percent string
		tier    string
	}{
		{0.65, "65.0%", "warning"},
		{0.0, "0.0%", "danger"},
		{0.399, "39.9%", "danger"},
		{0.4, "40.0%", "warning"},
		{0.7, "70.0%", "success"},
		{1.0, "100.0%", "success"},
		{0.1234, "12.3%", "danger"},
	}
	for _, tt := range tests {
		if got := Percent(tt.score); got != tt.percent {
			t.Errorf("Percent(%v) = %q, want %q", tt.score, got, tt.percent)
		}
		if got := TierFor(tt.score).Name; got != tt.tier {
			t.Errorf("TierFor(%v) = %q, want %q", tt.score, got, tt.tier)
		}
	}
}

func TestTierTexts(t *testing.T) {
	tier := TierFor(0.65)
	if tier.Message != "Some inclusivity concerns detected" || tier.Icon != "exclamation-circle-fill" {
		t.Errorf("unexpected warning tier %+v", tier)
	}
}

func TestWidthClamped(t *testing.T) {
	if got := Width(1.5); got != 100 {
		t.Errorf("Width(1.5) = %v", got)
	}
	if got := Width(-0.2); got != 0 {
		t.Errorf("Width(-0.2) = %v", got)
	}
}

func TestBuildOverviewOmitsEmptyLists(t *testing.T) {
	a := &api.Analysis{OverallAssessment: api.OverallAssessment{
		InclusivityScore:   0.82,
		ScoreJustification: "Clear language.",
		MajorConcerns:      []string{},
		PositiveAspects:    []string{"Alt text on images"},
	}}

	ov := BuildOverview(a)
	if ov.Percent != "82.0%" || ov.Tier.Name != "success" {
		t.Errorf("unexpected score rendering %+v", ov)
	}
	if ov.MajorConcerns != nil {
		t.Errorf("empty concerns should be omitted, got %v", ov.MajorConcerns)
	}
	if len(ov.PositiveAspects) != 1 {
		t.Errorf("expected one positive aspect, got %v", ov.PositiveAspects)
	}
}

func TestBuildPerspectiveFacets(t *testing.T) {
	a := &api.Analysis{
		FeePerspective: api.FeePerspective{
			Expectations: map[string]api.Expectation{
				"internet_access": {Perspective: "Always online", Consideration: "Offline users"},
				"device":          {Perspective: "Laptop", Consideration: "Phone only"},
			},
			Recommendations: []string{"Offer a printable version"},
		},
		FacetAnalysis: map[string]map[string][]string{
			"language": {
				"assumptions":      {},
				"potential_issues": {},
				"recommendations":  {},
			},
			"digital_access": {
				"assumptions":      {},
				"potential_issues": {"Requires broadband"},
				"recommendations":  {},
			},
			"cost": {
				"notes":            {"Free tier exists"},
				"recommendations":  {"Mention fee waivers"},
				"potential_issues": nil,
			},
		},
	}

	p := BuildPerspective(a)

	if len(p.Expectations) != 2 || p.Expectations[0].Aspect != "device" {
		t.Fatalf("expectations not sorted: %+v", p.Expectations)
	}
	if p.Expectations[1].Label != "Internet Access" {
		t.Errorf("unexpected label %q", p.Expectations[1].Label)
	}

	if len(p.Facets) != 2 {
		t.Fatalf("expected the all-empty facet to be dropped, got %d facets", len(p.Facets))
	}
	if p.Facets[0].Name != "cost" || p.Facets[1].Name != "digital_access" {
		t.Errorf("facets not sorted: %s, %s", p.Facets[0].Name, p.Facets[1].Name)
	}

	digital := p.Facets[1]
	if digital.Label != "Digital Access Analysis" {
		t.Errorf("unexpected facet label %q", digital.Label)
	}
	if len(digital.Categories) != 1 || digital.Categories[0].Name != "potential_issues" {
		t.Fatalf("expected only the non-empty category, got %+v", digital.Categories)
	}
	if c := digital.Categories[0]; c.Icon != "bi-exclamation-triangle" || c.Color != "text-danger" || c.Label != "Potential Issues" {
		t.Errorf("unexpected category style %+v", c)
	}

	cost := p.Facets[0]
	if len(cost.Categories) != 2 || cost.Categories[0].Name != "recommendations" || cost.Categories[1].Name != "notes" {
		t.Fatalf("unexpected cost categories %+v", cost.Categories)
	}
	if c := cost.Categories[1]; c.Icon != "bi-card-text" || c.Color != "text-body" {
		t.Errorf("unknown category should use the default style, got %+v", c)
	}

	if len(p.Recommendations) != 1 {
		t.Errorf("expected recommendations, got %v", p.Recommendations)
	}
}

func TestPanel(t *testing.T) {
	p := NewPanel()
	if p.Tab() != TabOverview {
		t.Errorf("expected overview tab, got %q", p.Tab())
	}
	if err := p.SetTab("fee"); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
	if err := p.SetTab(TabPerspective); err != nil {
		t.Fatalf("SetTab: %v", err)
	}

	if !p.ToggleFacet("cost") {
		t.Error("first toggle should expand")
	}
	if p.ToggleFacet("cost") {
		t.Error("second toggle should collapse")
	}
	p.ToggleFacet("language")

	restored := NewPanel()
	restored.Restore(p.State())
	if restored.Tab() != TabPerspective || !restored.Expanded()["language"] {
		t.Errorf("restore lost state: %+v", restored.State())
	}

	p.Reset()
	if p.Tab() != TabOverview || len(p.Expanded()) != 0 {
		t.Errorf("reset did not clear state: %+v", p.State())
	}
}
