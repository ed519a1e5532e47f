package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DiseaseStatistics serves the dashboard's headline numbers.
func (h HandlerSet) DiseaseStatistics(c *gin.Context) {
	stats, err := h.statsService.DiseaseStatistics(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("compute disease statistics failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	respond(c, http.StatusOK, "Statistics retrieved", stats)
}

type diseaseAccuracy struct {
	Disease      string  `json:"disease"`
	Total        int64   `json:"total"`
	Confirmed    int64   `json:"confirmed"`
	Rejected     int64   `json:"rejected"`
	AccuracyRate float64 `json:"accuracy_rate"`
}

// ConfirmationStatistics reports how often users agreed with predictions,
// overall and per disease.
func (h HandlerSet) ConfirmationStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.confirmations.CountVerdicts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("count confirmation verdicts failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	byDisease, err := h.confirmations.CountVerdictsByDisease(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("count verdicts by disease failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	withLocation, err := h.confirmations.CountWithLocation(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("count located confirmations failed")
		respondError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	var overallAccuracy float64
	if counts.Total > 0 {
		overallAccuracy = float64(counts.Confirmed) / float64(counts.Total) * 100
	}

	perDisease := make([]diseaseAccuracy, 0, len(byDisease))
	for _, v := range byDisease {
		entry := diseaseAccuracy{
			Disease:   v.Disease,
			Total:     v.Total,
			Confirmed: v.Confirmed,
			Rejected:  v.Rejected,
		}
		if v.Total > 0 {
			entry.AccuracyRate = float64(v.Confirmed) / float64(v.Total) * 100
		}
		perDisease = append(perDisease, entry)
	}

	respond(c, http.StatusOK, "Confirmation statistics retrieved", gin.H{
		"total_confirmations": counts.Total,
		"confirmed":           counts.Confirmed,
		"rejected":            counts.Rejected,
		"accuracy_rate":       overallAccuracy,
		"with_location":       withLocation,
		"by_disease":          perDisease,
	})
}
