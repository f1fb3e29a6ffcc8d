package crop

import (
	"iter"
	"slices"

	"github.com/i474232898/crop-yield-dashboard/internal/common"
)

const (
	// GrowthHorizonDays is the assumed number of days from sowing to harvest.
	GrowthHorizonDays = 100
	// GrowthStepDays is the sampling interval of the projection.
	GrowthStepDays = 5
)

// GrowthFactor returns the fraction of the final yield realised on the given day:
// a slow start up to day 20, a rapid phase until day 80 and a slowing finish.
func GrowthFactor(day int) float64 {
	d := float64(day)
	var f float64
	switch {
	case day < 20:
		f = d / 40
	case day < 80:
		f = 0.5 + (d-20)/120
	default:
		f = 0.9 + (d-80)/200
	}
	if f > 1 {
		f = 1
	}
	return f
}

// GrowthProjection yields the projected yield every GrowthStepDays from day 0 to
// GrowthHorizonDays inclusive. The sequence can be ranged over any number of times.
func GrowthProjection(predictedYield float64) iter.Seq[GrowthPoint] {
	return func(yield func(GrowthPoint) bool) {
		for day := 0; day <= GrowthHorizonDays; day += GrowthStepDays {
			p := GrowthPoint{
				Day:            day,
				ProjectedYield: common.Round(predictedYield*GrowthFactor(day), 2),
			}
			if !yield(p) {
				return
			}
		}
	}
}

// GrowthCurve collects GrowthProjection into a slice.
func GrowthCurve(predictedYield float64) []GrowthPoint {
	return slices.Collect(GrowthProjection(predictedYield))
}
