package scoring

import "rfq-workers/internal/models"

// MaxRecommendations caps the advice attached to a single match.
const MaxRecommendations = 3

var recommendationTemplates = map[models.Dimension]string{
	models.DimensionTechnical:  "Obtain the required certifications or partner with a technically qualified firm",
	models.DimensionFinancial:  "Secure bonding and insurance coverage or team with a firm that has larger project capacity",
	models.DimensionExperience: "Highlight comparable past projects or bring in an experienced subcontractor",
	models.DimensionCapacity:   "Subcontract part of the scope to free up delivery capacity",
	models.DimensionLocation:   "Establish a local presence or partner with a firm based in the region",
	models.DimensionCultural:   "Document community benefits and designated-supplier participation in the bid",
}

// Recommendations maps gap dimensions to advice, in dimension order, without
// duplicates, capped at MaxRecommendations.
func Recommendations(gaps []models.Dimension) []string {
	present := make(map[models.Dimension]bool, len(gaps))
	for _, g := range gaps {
		present[g] = true
	}

	recs := make([]string, 0, MaxRecommendations)
	seen := make(map[string]bool)
	for _, d := range models.Dimensions {
		if !present[d] {
			continue
		}
		text, ok := recommendationTemplates[d]
		if !ok || seen[text] {
			continue
		}
		seen[text] = true
		recs = append(recs, text)
		if len(recs) == MaxRecommendations {
			break
		}
	}
	return recs
}
