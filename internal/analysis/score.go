// Package analysis turns an api.Analysis into display-ready views and
// holds the per-session state of the results panel.
package analysis

import (
	"fmt"
	"math"
)

// Tier grades an inclusivity score.
type Tier struct {
	Name        string `json:"name"` // bootstrap color: danger, warning or success
	Icon        string `json:"icon"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

var (
	tierDanger = Tier{
		Name:        "danger",
		Icon:        "x-circle-fill",
		Message:     "Significant inclusivity issues detected",
		Description: "Major improvements are needed to make the content more accessible and inclusive.",
	}
	tierWarning = Tier{
		Name:        "warning",
		Icon:        "exclamation-circle-fill",
		Message:     "Some inclusivity concerns detected",
		Description: "There are areas where accessibility and inclusivity could be improved.",
	}
	tierSuccess = Tier{
		Name:        "success",
		Icon:        "check-circle-fill",
		Message:     "Good inclusivity practices detected",
		Description: "The document demonstrates strong consideration for accessibility and inclusivity.",
	}
)

// TierFor grades score: below 0.4 danger, below 0.7 warning, else success.
func TierFor(score float64) Tier {
	switch {
	case score >= 0.7:
		return tierSuccess
	case score >= 0.4:
		return tierWarning
	default:
		return tierDanger
	}
}

// Percent formats a [0,1] ratio as a percentage with one decimal.
func Percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// Width is the progress bar width in percent, clamped to [0,100].
func Width(score float64) float64 {
	return math.Max(0, math.Min(100, score*100))
}
