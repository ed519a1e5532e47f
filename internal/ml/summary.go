package ml

import (
	"fmt"
	"sort"
)

type RankedPrediction struct {
	Rank       int
	Disease    string
	Confidence float64 // percent, 0-100
}

// Summary ranks a probability vector against its label list. Primary is the
// argmax; Top is at most three entries sorted by probability descending,
// equal probabilities keeping their original label order.
type Summary struct {
	Primary         RankedPrediction
	Top             []RankedPrediction
	ConfidenceLevel string
	TotalLabels     int
}

func Summarize(probs []float32, labels []string) (Summary, error) {
	if len(probs) != len(labels) {
		return Summary{}, fmt.Errorf("probability vector length %d does not match label list length %d", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return Summary{}, fmt.Errorf("empty probability vector")
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	n := 3
	if len(order) < n {
		n = len(order)
	}

	top := make([]RankedPrediction, 0, n)
	for i := 0; i < n; i++ {
		idx := order[i]
		top = append(top, RankedPrediction{
			Rank:       i + 1,
			Disease:    labels[idx],
			Confidence: float64(probs[idx]) * 100,
		})
	}

	return Summary{
		Primary:         top[0],
		Top:             top,
		ConfidenceLevel: ConfidenceLevel(float64(probs[order[0]])),
		TotalLabels:     len(labels),
	}, nil
}

// ConfidenceLevel maps a raw probability (0-1) to its human-readable tier.
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "High"
	case score >= 0.6:
		return "Medium"
	case score >= 0.4:
		return "Low"
	default:
		return "Very Low"
	}
}

// FormatPercent renders a percentage with exactly two decimal places.
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}
