package ml

import "mangosense/api/internal/models"

// Label sets are fixed per model artifact. Order matters: it is the order
// of the model's output vector, so these must match training exactly.
var leafLabels = []string{
	"Anthracnose",
	"Bacterial Canker",
	"Cutting Weevil",
	"Die Back",
	"Gall Midge",
	"Healthy",
	"Powdery Mildew",
	"Sooty Mold",
}

var fruitLabels = []string{
	"Anthracnose",
	"Black Mold Rot",
	"Healthy",
	"Stem End Rot",
}

const noTreatmentText = "No treatment information available."

// UnknownTreatmentText is returned when a prediction falls below the
// confidence threshold.
const UnknownTreatmentText = "The uploaded image could not be confidently classified. Please ensure the image is of a mango leaf or fruit and try again."

var treatments = map[string]string{
	"Anthracnose":      "The diseased twigs should be pruned and burnt along with fallen leaves. Spraying twice with Carbendazim (Bavistin 0.1%) at 15 days interval during flowering controls blossom infection.",
	"Bacterial Canker": "Three sprays of Streptocycline (0.01%) or Agrimycin-100 (0.01%) after first visual symptom at 10 day intervals are effective in controlling the disease.",
	"Cutting Weevil":   "Use recommended insecticides and remove infested plant material.",
	"Die Back":         "Pruning of the diseased twigs 2-3 inches below the affected portion and spraying Copper Oxychloride (0.3%) on infected trees controls the disease.",
	"Gall Midge":       "Remove and destroy infested fruits; use appropriate insecticides.",
	"Healthy":          "No treatment needed. Maintain good agricultural practices.",
	"Powdery Mildew":   "Alternate spraying of Wettable sulphur 0.2 per cent at 15 days interval are recommended for effective control of the disease.",
	"Sooty Mold":       "Pruning of affected branches and their prompt destruction followed by spraying of Wettasulf (0.2%) helps to control the disease.",
	"Black Mold Rot":   "Improve air circulation and apply fungicides as needed.",
	"Stem End Rot":     "Proper post-harvest handling and storage conditions are essential.",
}

// Labels returns a copy of the label set for a detection type, so callers
// can never mutate the canonical order.
func Labels(dt models.DetectionType) []string {
	var src []string
	switch dt {
	case models.DetectionTypeFruit:
		src = fruitLabels
	default:
		src = leafLabels
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func Treatment(disease string) string {
	if t, ok := treatments[disease]; ok {
		return t
	}
	return noTreatmentText
}

func TreatmentCount() int {
	return len(treatments)
}
