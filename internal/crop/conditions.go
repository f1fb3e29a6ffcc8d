package crop

import (
	"strings"

	"github.com/i474232898/crop-yield-dashboard/internal/common"
)

// NormalizeWeather maps free-form weather text onto one of Weathers.
// Unknown text is returned unchanged so validation can reject it.
func NormalizeWeather(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return text
	case common.HasAny(t, "rain", "shower", "drizzle", "storm", "thunder", "wet"):
		return "Rainy"
	case common.HasAny(t, "cloud", "overcast", "fog", "mist", "grey", "gray"):
		return "Cloudy"
	case common.HasAny(t, "sun", "clear", "dry", "fair"):
		return "Sunny"
	default:
		return text
	}
}

// canonical returns the option from opts equal to s ignoring case, or s.
func canonical(s string, opts []string) string {
	s = strings.TrimSpace(s)
	for _, o := range opts {
		if strings.EqualFold(o, s) {
			return o
		}
	}
	return s
}

// Normalize fixes the casing of enumerated fields and maps weather text.
func (r *PredictionRequest) Normalize() {
	r.Region = canonical(r.Region, Regions)
	r.SoilType = canonical(r.SoilType, SoilTypes)
	r.Crop = canonical(r.Crop, Crops)
	r.Weather = canonical(NormalizeWeather(r.Weather), Weathers)
}
