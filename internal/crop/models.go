package crop

import (
	"encoding/json"
	"time"
)

// Form options offered by the dashboard. The validate tags on PredictionRequest
// must stay in sync with these lists.
var (
	Regions   = []string{"North", "South", "East", "West"}
	SoilTypes = []string{"Loam", "Clay", "Sandy", "Silt", "Peaty", "Chalky"}
	Crops     = []string{"Soybean", "Wheat", "Maize", "Rice", "Cotton", "Barley"}
	Weathers  = []string{"Sunny", "Rainy", "Cloudy"}
)

// Coordinates replace region, temperature and rainfall in the prediction payload
// when the visitor's location is known.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Place is a human readable location that a Locator can turn into Coordinates.
type Place struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// IsZero reports whether no location was given.
func (p Place) IsZero() bool {
	return p.City == "" && p.Country == ""
}

// PredictionRequest holds the agricultural inputs of a single submission.
type PredictionRequest struct {
	Region         string  `json:"region" validate:"oneof=North South East West"`
	SoilType       string  `json:"soil_type" validate:"oneof=Loam Clay Sandy Silt Peaty Chalky"`
	Crop           string  `json:"crop" validate:"oneof=Soybean Wheat Maize Rice Cotton Barley"`
	AvgTemp        float64 `json:"avg_temp" validate:"gte=-60,lte=60"`
	AvgRainfall    float64 `json:"avg_rainfall" validate:"gte=0"`
	Weather        string  `json:"weather" validate:"oneof=Sunny Rainy Cloudy"`
	DaysToHarvest  int     `json:"days_to_harvest" validate:"gte=0"`
	FertilizerUsed bool    `json:"fertilizer_used"`
	IrrigationUsed bool    `json:"irrigation_used"`

	Coordinates *Coordinates `json:"-"`
	Place       *Place       `json:"-"`
}

// DefaultRequest is the form state shown before the first submission.
func DefaultRequest() PredictionRequest {
	return PredictionRequest{
		Region:         "North",
		SoilType:       "Loam",
		Crop:           "Soybean",
		AvgTemp:        25,
		AvgRainfall:    50,
		Weather:        "Sunny",
		DaysToHarvest:  100,
		FertilizerUsed: true,
		IrrigationUsed: true,
	}
}

type geoPayload struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	SoilType       string  `json:"soil_type"`
	Crop           string  `json:"crop"`
	Weather        string  `json:"weather"`
	DaysToHarvest  int     `json:"days_to_harvest"`
	FertilizerUsed bool    `json:"fertilizer_used"`
	IrrigationUsed bool    `json:"irrigation_used"`
}

// MarshalJSON renders the wire body of POST /predict. With coordinates set,
// latitude/longitude take the place of region, avg_temp and avg_rainfall.
func (r PredictionRequest) MarshalJSON() ([]byte, error) {
	if r.Coordinates == nil {
		type plain PredictionRequest
		return json.Marshal(plain(r))
	}
	return json.Marshal(geoPayload{
		Latitude:       r.Coordinates.Latitude,
		Longitude:      r.Coordinates.Longitude,
		SoilType:       r.SoilType,
		Crop:           r.Crop,
		Weather:        r.Weather,
		DaysToHarvest:  r.DaysToHarvest,
		FertilizerUsed: r.FertilizerUsed,
		IrrigationUsed: r.IrrigationUsed,
	})
}

// PredictionResponse is the decoded answer of the prediction service.
// AverageYield and OptimalYield are optional upstream.
type PredictionResponse struct {
	PredictedYield float64  `json:"predicted_yield"`
	AverageYield   *float64 `json:"average_yield,omitempty"`
	OptimalYield   *float64 `json:"optimal_yield,omitempty"`
	Advice         []string `json:"advice"`
}

// HistoryRecord is one past prediction as kept by the history service.
type HistoryRecord struct {
	Date   time.Time `json:"date"`
	Yield  float64   `json:"yield"`
	Crop   string    `json:"crop"`
	Region string    `json:"region"`
}

// HistoryStats summarises the history service's records.
type HistoryStats struct {
	TotalPredictions int        `json:"total_predictions"`
	TotalArchived    int        `json:"total_archived"`
	ByCrop           CropCounts `json:"by_crop,omitempty"`
}

// GrowthPoint is one sample of the growth projection curve.
type GrowthPoint struct {
	Day            int     `json:"day"`
	ProjectedYield float64 `json:"projectedYield"`
}
