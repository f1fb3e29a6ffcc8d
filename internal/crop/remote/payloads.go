package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// maxBodyBytes bounds how much of a response body is decoded.
const maxBodyBytes = 1 << 20

type predictionPayload struct {
	PredictedYield *float64 `json:"predicted_yield"`
	AverageYield   *float64 `json:"average_yield"`
	OptimalYield   *float64 `json:"optimal_yield"`
	Recommendation *struct {
		Advice []string `json:"advice"`
	} `json:"recommendation"`
}

type historyItem struct {
	Date   string     `json:"date"`
	Yield  *flexFloat `json:"yield"`
	Crop   string     `json:"crop"`
	Region string     `json:"region"`
}

type historyPayload struct {
	History *[]historyItem `json:"history"`
}

type statsPayload struct {
	TotalPredictions int             `json:"total_predictions"`
	TotalArchived    int             `json:"total_archived"`
	ByCrop           crop.CropCounts `json:"by_crop"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid number %s", b)
	}
	*f = flexFloat(v)
	return nil
}

// dateLayouts are tried in order when parsing history dates. Dates without a
// zone are taken as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", crop.ErrMalformedResponse, err)
	}
	return nil
}

func decodePrediction(r io.Reader) (crop.PredictionResponse, error) {
	var p predictionPayload
	if err := decodeJSON(r, &p); err != nil {
		return crop.PredictionResponse{}, err
	}
	if p.PredictedYield == nil {
		return crop.PredictionResponse{}, crop.ErrNoPrediction
	}
	if *p.PredictedYield < 0 {
		return crop.PredictionResponse{}, fmt.Errorf("%w: negative predicted_yield %v", crop.ErrMalformedResponse, *p.PredictedYield)
	}

	resp := crop.PredictionResponse{
		PredictedYield: *p.PredictedYield,
		AverageYield:   p.AverageYield,
		OptimalYield:   p.OptimalYield,
		Advice:         []string{},
	}
	if p.Recommendation != nil && p.Recommendation.Advice != nil {
		resp.Advice = p.Recommendation.Advice
	}
	return resp, nil
}

func decodeHistory(r io.Reader) ([]crop.HistoryRecord, error) {
	var p historyPayload
	if err := decodeJSON(r, &p); err != nil {
		return nil, err
	}
	if p.History == nil {
		return nil, fmt.Errorf("%w: missing history", crop.ErrMalformedResponse)
	}

	records := make([]crop.HistoryRecord, 0, len(*p.History))
	for i, item := range *p.History {
		date, err := parseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: history[%d]: %v", crop.ErrMalformedResponse, i, err)
		}
		if item.Yield == nil {
			return nil, fmt.Errorf("%w: history[%d]: missing yield", crop.ErrMalformedResponse, i)
		}
		records = append(records, crop.HistoryRecord{
			Date:   date,
			Yield:  float64(*item.Yield),
			Crop:   item.Crop,
			Region: item.Region,
		})
	}
	return records, nil
}

func decodeStats(r io.Reader) (crop.HistoryStats, error) {
	var p statsPayload
	if err := decodeJSON(r, &p); err != nil {
		return crop.HistoryStats{}, err
	}
	return crop.HistoryStats{
		TotalPredictions: p.TotalPredictions,
		TotalArchived:    p.TotalArchived,
		ByCrop:           p.ByCrop,
	}, nil
}
