package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangosense/api/internal/models"
)

func TestLabelSets(t *testing.T) {
	leaf := Labels(models.DetectionTypeLeaf)
	fruit := Labels(models.DetectionTypeFruit)

	assert.Len(t, leaf, 8)
	assert.Len(t, fruit, 4)
	assert.Contains(t, leaf, "Healthy")
	assert.Contains(t, fruit, "Healthy")
	assert.Contains(t, leaf, "Powdery Mildew")
	assert.Contains(t, fruit, "Stem End Rot")
}

func TestLabelsReturnsCopy(t *testing.T) {
	first := Labels(models.DetectionTypeLeaf)
	first[0] = "mutated"

	second := Labels(models.DetectionTypeLeaf)
	assert.Equal(t, "Anthracnose", second[0])
}

func TestLabelsDefaultsToLeaf(t *testing.T) {
	assert.Equal(t, Labels(models.DetectionTypeLeaf), Labels(models.DetectionType("bogus")))
}

func TestEveryLabelHasTreatment(t *testing.T) {
	for _, dt := range []models.DetectionType{models.DetectionTypeLeaf, models.DetectionTypeFruit} {
		for _, label := range Labels(dt) {
			require.NotEqual(t, noTreatmentText, Treatment(label), "missing treatment for %s", label)
		}
	}
}

func TestTreatmentUnknownDisease(t *testing.T) {
	assert.Equal(t, noTreatmentText, Treatment("Made Up Disease"))
}
