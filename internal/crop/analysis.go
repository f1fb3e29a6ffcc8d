package crop

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/crop-yield-dashboard/internal/common"
)

//go:embed advice.yaml
var adviceYAML []byte

// AdviceSet is the static advice shown for one side of the regional average.
type AdviceSet struct {
	Title string   `yaml:"title"`
	Lead  string   `yaml:"lead"`
	Tips  []string `yaml:"tips"`
}

// AdviceCatalog holds all static advisory text.
type AdviceCatalog struct {
	BelowAverage AdviceSet `yaml:"below_average"`
	AboveAverage AdviceSet `yaml:"above_average"`
	Disclaimer   []string  `yaml:"disclaimer"`
}

// LoadAdviceCatalog parses a YAML advice catalog.
func LoadAdviceCatalog(data []byte) (AdviceCatalog, error) {
	var c AdviceCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AdviceCatalog{}, fmt.Errorf("parse advice catalog: %w", err)
	}
	return c, nil
}

// DefaultAdvice returns the embedded catalog.
func DefaultAdvice() AdviceCatalog {
	c, err := LoadAdviceCatalog(adviceYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Comparison is one bar of the yield comparison chart.
type Comparison struct {
	Name  string  `json:"name"`
	Yield float64 `json:"yield"`
}

// Advisory is the recommendation block derived from the prediction.
type Advisory struct {
	BelowAverage bool     `json:"belowAverage"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Lead         string   `json:"lead"`
	Tips         []string `json:"tips"`
}

// Analysis compares a prediction with the regional average and optimum.
type Analysis struct {
	Crop           string       `json:"crop"`
	Region         string       `json:"region"`
	Predicted      float64      `json:"predictedYield"`
	Average        float64      `json:"averageYield"`
	Optimal        float64      `json:"optimalYield"`
	Comparison     []Comparison `json:"comparison"`
	Improvement    float64      `json:"improvementPercent"`
	HasImprovement bool         `json:"hasImprovement"`
	Advisory       Advisory     `json:"advisory"`
}

// Analyze builds the yield analysis. It reports false when the response lacks
// the average or optimal yield.
func Analyze(req PredictionRequest, resp PredictionResponse, catalog AdviceCatalog) (Analysis, bool) {
	if resp.AverageYield == nil || resp.OptimalYield == nil {
		return Analysis{}, false
	}
	pred, avg, opt := resp.PredictedYield, *resp.AverageYield, *resp.OptimalYield

	a := Analysis{
		Crop:      req.Crop,
		Region:    req.Region,
		Predicted: pred,
		Average:   avg,
		Optimal:   opt,
		Comparison: []Comparison{
			{Name: "Your Prediction", Yield: pred},
			{Name: "Avg. " + req.Crop, Yield: avg},
			{Name: "Optimal Yield", Yield: opt},
		},
	}
	if avg != 0 {
		a.Improvement = common.Round((pred/avg-1)*100, 1)
		a.HasImprovement = true
	}

	set, direction := catalog.AboveAverage, "above"
	if pred < avg {
		set, direction = catalog.BelowAverage, "below"
		a.Advisory.BelowAverage = true
	}
	a.Advisory.Title = set.Title
	a.Advisory.Lead = set.Lead
	a.Advisory.Tips = set.Tips
	if avg != 0 {
		diff := pred - avg
		if diff < 0 {
			diff = -diff
		}
		a.Advisory.Summary = fmt.Sprintf("Your predicted yield is %.1f%% %s the regional average for %s.",
			diff/avg*100, direction, req.Crop)
	} else {
		a.Advisory.Summary = fmt.Sprintf("Your predicted yield is %s the regional average for %s.", direction, req.Crop)
	}
	return a, true
}
