package crop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionRequestPayload(t *testing.T) {
	body, err := json.Marshal(DefaultRequest())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"region": "North",
		"soil_type": "Loam",
		"crop": "Soybean",
		"avg_temp": 25,
		"avg_rainfall": 50,
		"weather": "Sunny",
		"days_to_harvest": 100,
		"fertilizer_used": true,
		"irrigation_used": true
	}`, string(body))
}

func TestPredictionRequestGeoPayload(t *testing.T) {
	req := DefaultRequest()
	req.Coordinates = &Coordinates{Latitude: 48.85, Longitude: 2.35}

	body, err := json.Marshal(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 48.85, got["latitude"])
	assert.Equal(t, 2.35, got["longitude"])
	assert.NotContains(t, got, "region")
	assert.NotContains(t, got, "avg_temp")
	assert.NotContains(t, got, "avg_rainfall")
	assert.Equal(t, "Loam", got["soil_type"])
}

func TestNormalize(t *testing.T) {
	req := PredictionRequest{
		Region:   "south",
		SoilType: "CLAY",
		Crop:     " rice ",
		Weather:  "light drizzle",
	}
	req.Normalize()

	assert.Equal(t, "South", req.Region)
	assert.Equal(t, "Clay", req.SoilType)
	assert.Equal(t, "Rice", req.Crop)
	assert.Equal(t, "Rainy", req.Weather)
}

func TestNormalizeWeather(t *testing.T) {
	cases := map[string]string{
		"Overcast clouds": "Cloudy",
		"clear sky":       "Sunny",
		"Thunderstorm":    "Rainy",
		"sunny":           "Sunny",
		"hail":            "hail",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeWeather(in), in)
	}
}
