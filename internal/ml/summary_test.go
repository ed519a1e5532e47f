package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRanksDescending(t *testing.T) {
	labels := []string{"A", "B", "C", "D"}
	probs := []float32{0.1, 0.6, 0.25, 0.05}

	summary, err := Summarize(probs, labels)
	require.NoError(t, err)

	assert.Equal(t, "B", summary.Primary.Disease)
	assert.InDelta(t, 60.0, summary.Primary.Confidence, 0.001)
	assert.Equal(t, 4, summary.TotalLabels)

	require.Len(t, summary.Top, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{
		summary.Top[0].Disease, summary.Top[1].Disease, summary.Top[2].Disease,
	})
	for i, p := range summary.Top {
		assert.Equal(t, i+1, p.Rank)
	}
	assert.GreaterOrEqual(t, summary.Top[0].Confidence, summary.Top[1].Confidence)
	assert.GreaterOrEqual(t, summary.Top[1].Confidence, summary.Top[2].Confidence)
}

func TestSummarizeTieKeepsLabelOrder(t *testing.T) {
	labels := []string{"A", "B", "C"}
	probs := []float32{0.4, 0.4, 0.2}

	summary, err := Summarize(probs, labels)
	require.NoError(t, err)

	assert.Equal(t, "A", summary.Primary.Disease)
	assert.Equal(t, "A", summary.Top[0].Disease)
	assert.Equal(t, "B", summary.Top[1].Disease)
}

func TestSummarizeFewerThanThreeLabels(t *testing.T) {
	summary, err := Summarize([]float32{0.3, 0.7}, []string{"A", "B"})
	require.NoError(t, err)

	assert.Len(t, summary.Top, 2)
	assert.Equal(t, "B", summary.Primary.Disease)
}

func TestSummarizeLengthMismatch(t *testing.T) {
	_, err := Summarize([]float32{0.5}, []string{"A", "B"})
	assert.Error(t, err)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil, nil)
	assert.Error(t, err)
}

func TestConfidenceLevelTiers(t *testing.T) {
	assert.Equal(t, "High", ConfidenceLevel(0.85))
	assert.Equal(t, "High", ConfidenceLevel(0.8))
	assert.Equal(t, "Medium", ConfidenceLevel(0.65))
	assert.Equal(t, "Medium", ConfidenceLevel(0.6))
	assert.Equal(t, "Low", ConfidenceLevel(0.45))
	assert.Equal(t, "Low", ConfidenceLevel(0.4))
	assert.Equal(t, "Very Low", ConfidenceLevel(0.1))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "87.65%", FormatPercent(87.654))
	assert.Equal(t, "5.00%", FormatPercent(5))
	assert.Equal(t, "0.00%", FormatPercent(0))
}
