package scoring

import (
	"math"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

// weightTolerance bounds floating-point drift when checking the sum.
const weightTolerance = 1e-9

// WeightSet defines the relative importance of each score dimension.
// All weights must sum to 1.0.
type WeightSet struct {
	Technical  float64
	Financial  float64
	Experience float64
	Capacity   float64
	Location   float64
	Cultural   float64
}

// Weights is a WeightSet that has passed validation. It can only be obtained
// from NewWeights, so holding one proves the invariant.
type Weights struct {
	set WeightSet
}

// DefaultWeightSet returns the production weight distribution.
func DefaultWeightSet() WeightSet {
	return WeightSet{
		Technical:  0.30,
		Financial:  0.20,
		Experience: 0.20,
		Capacity:   0.15,
		Location:   0.10,
		Cultural:   0.05,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.Technical + w.Financial + w.Experience + w.Capacity + w.Location + w.Cultural
}

// NewWeights validates ws and freezes it.
func NewWeights(ws WeightSet) (Weights, error) {
	for _, v := range []float64{ws.Technical, ws.Financial, ws.Experience, ws.Capacity, ws.Location, ws.Cultural} {
		if v < 0 || math.IsNaN(v) {
			return Weights{}, apperrors.NewWeightVectorInvariantError("score", ws.Sum())
		}
	}
	if math.Abs(ws.Sum()-1.0) > weightTolerance {
		return Weights{}, apperrors.NewWeightVectorInvariantError("score", ws.Sum())
	}
	return Weights{set: ws}, nil
}

// MustDefaultWeights panics if the default distribution is broken. Call it at
// startup.
func MustDefaultWeights() Weights {
	w, err := NewWeights(DefaultWeightSet())
	if err != nil {
		panic(err)
	}
	return w
}

// Set returns a copy of the underlying distribution.
func (w Weights) Set() WeightSet { return w.set }

// Of returns the weight for a single dimension.
func (w Weights) Of(d models.Dimension) float64 {
	switch d {
	case models.DimensionTechnical:
		return w.set.Technical
	case models.DimensionFinancial:
		return w.set.Financial
	case models.DimensionExperience:
		return w.set.Experience
	case models.DimensionCapacity:
		return w.set.Capacity
	case models.DimensionLocation:
		return w.set.Location
	case models.DimensionCultural:
		return w.set.Cultural
	}
	return 0
}

// Overall is the weighted sum of the six dimensions of b, in dimension order.
func (w Weights) Overall(b models.ScoreBreakdown) float64 {
	total := 0.0
	for _, d := range models.Dimensions {
		total += Clamp(b.Get(d)) * w.Of(d)
	}
	return Clamp(total)
}

// Clamp bounds v to [0,100].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
