// Package gaps classifies score dimensions into strengths and gaps.
package gaps

import "rfq-workers/internal/models"

const (
	// StrengthThreshold is the lowest score counted as a strength.
	StrengthThreshold = 80.0
	// GapThreshold is the score below which a dimension is a gap.
	GapThreshold = 60.0
)

// Analysis is the classification of a single breakdown.
type Analysis struct {
	Strengths []models.Dimension `json:"strengths"`
	Gaps      []models.Dimension `json:"gaps"`
}

// HasGaps reports whether any dimension fell below GapThreshold.
func (a Analysis) HasGaps() bool { return len(a.Gaps) > 0 }

// Analyze walks the dimensions in their fixed order.
func Analyze(b models.ScoreBreakdown) Analysis {
	a := Analysis{
		Strengths: []models.Dimension{},
		Gaps:      []models.Dimension{},
	}
	for _, d := range models.Dimensions {
		v := b.Get(d)
		switch {
		case v >= StrengthThreshold:
			a.Strengths = append(a.Strengths, d)
		case v < GapThreshold:
			a.Gaps = append(a.Gaps, d)
		}
	}
	return a
}

// gapTypes maps each dimension to the gap it raises. Only the first four are
// partner-coverable; a partner must be strong in the same dimension.
var gapTypes = map[models.Dimension]models.GapType{
	models.DimensionTechnical:  models.GapTechnicalExpertise,
	models.DimensionFinancial:  models.GapFinancialCapacity,
	models.DimensionCapacity:   models.GapCapacity,
	models.DimensionLocation:   models.GapGeographicPresence,
	models.DimensionExperience: models.GapExperience,
	models.DimensionCultural:   models.GapCultural,
}

var coverable = map[models.GapType]models.Dimension{
	models.GapTechnicalExpertise: models.DimensionTechnical,
	models.GapFinancialCapacity:  models.DimensionFinancial,
	models.GapCapacity:           models.DimensionCapacity,
	models.GapGeographicPresence: models.DimensionLocation,
}

// CapabilityGaps lists every gap Analyze finds, in dimension order, followed
// by a certifications gap whenever missingCerts is non-empty. This is the
// coverage denominator.
func CapabilityGaps(b models.ScoreBreakdown, missingCerts []string) []models.GapType {
	var out []models.GapType
	for _, d := range Analyze(b).Gaps {
		out = append(out, gapTypes[d])
	}
	if len(missingCerts) > 0 {
		out = append(out, models.GapCertifications)
	}
	return out
}

// Covers reports whether a partner with breakdown b and missing
// certifications partnerMissing fills gap g.
func Covers(g models.GapType, b models.ScoreBreakdown, partnerMissing []string) bool {
	if g == models.GapCertifications {
		return len(partnerMissing) == 0
	}
	d, ok := coverable[g]
	return ok && b.Get(d) >= StrengthThreshold
}

// Coverage is the fraction of gaps the partner fills, and the gaps it fills.
func Coverage(gapList []models.GapType, partner models.ScoreBreakdown, partnerMissing []string) (float64, []models.GapType) {
	if len(gapList) == 0 {
		return 0, nil
	}
	var covered []models.GapType
	for _, g := range gapList {
		if Covers(g, partner, partnerMissing) {
			covered = append(covered, g)
		}
	}
	return float64(len(covered)) / float64(len(gapList)), covered
}
