package httpapi

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
)

var validate = validator.New()

// Deps are the collaborators the handlers need.
type Deps struct {
	Service   *crop.Service
	Dashboard *dashboard.Dashboard
	Advice    crop.AdviceCatalog
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	registerPage(app, deps)

	v1 := app.Group("/api/v1")

	v1.Post("/predict", func(c *fiber.Ctx) error {
		req, err := parsePredictForm(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp, err := deps.Service.Predict(c.UserContext(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, dashboard.PredictionErrorMessage(err))
		}

		out := fiber.Map{
			"message":    "Estimated yield: " + strconv.FormatFloat(resp.PredictedYield, 'f', -1, 64) + " tons per hectare",
			"prediction": resp,
			"growth":     crop.GrowthCurve(resp.PredictedYield),
		}
		if a, ok := crop.Analyze(req, resp, deps.Advice); ok {
			out["analysis"] = a
		}
		return c.JSON(out)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		w, err := crop.ParseTimeWindow(c.Query("time_period"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := deps.Service.History(c.UserContext(), w)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, dashboard.MsgHistoryFailed)
		}

		return c.JSON(historyBody(w, deps.Service.FilterMode(), records))
	})

	v1.Get("/history/stats", func(c *fiber.Ctx) error {
		stats, err := deps.Service.Stats(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch history stats")
		}

		return c.JSON(fiber.Map{
			"total_predictions": stats.TotalPredictions,
			"total_archived":    stats.TotalArchived,
			"by_crop":           stats.ByCrop,
			"distribution":      emptyIfNil(crop.Distribution(stats.ByCrop)),
		})
	})

	v1.Post("/archive", func(c *fiber.Ctx) error {
		w, err := crop.ParseTimeWindow(c.Query("time_period"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := deps.Service.Archive(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, dashboard.MsgArchiveFailed)
		}

		body := fiber.Map{"archived": true}
		records, err := deps.Service.History(c.UserContext(), w)
		if err != nil {
			// The archive went through; never hand back the pre-archive list.
			records = nil
			body["error"] = dashboard.MsgHistoryFailed
		}
		for k, v := range historyBody(w, deps.Service.FilterMode(), records) {
			body[k] = v
		}
		return c.JSON(body)
	})

	v1.Get("/growth", func(c *fiber.Ctx) error {
		raw := c.Query("predicted_yield")
		if raw == "" {
			return fiber.NewError(fiber.StatusBadRequest, "predicted_yield query parameter is required")
		}
		y, err := strconv.ParseFloat(raw, 64)
		if err != nil || y < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "predicted_yield must be a non-negative number")
		}

		return c.JSON(fiber.Map{
			"predicted_yield": y,
			"points":          crop.GrowthCurve(y),
		})
	})
}

func historyBody(w crop.TimeWindow, mode crop.FilterMode, records []crop.HistoryRecord) fiber.Map {
	return fiber.Map{
		"time_period": w,
		"filter":      mode,
		"history":     emptyIfNil(records),
		"rows":        crop.DisplayRows(records),
	}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// predictForm accepts both the HTML form and JSON bodies.
type predictForm struct {
	Region         string   `json:"region" form:"region"`
	SoilType       string   `json:"soil_type" form:"soil_type"`
	Crop           string   `json:"crop" form:"crop"`
	AvgTemp        float64  `json:"avg_temp" form:"avg_temp"`
	AvgRainfall    float64  `json:"avg_rainfall" form:"avg_rainfall"`
	Weather        string   `json:"weather" form:"weather"`
	DaysToHarvest  int      `json:"days_to_harvest" form:"days_to_harvest"`
	FertilizerUsed bool     `json:"fertilizer_used" form:"fertilizer_used"`
	IrrigationUsed bool     `json:"irrigation_used" form:"irrigation_used"`
	City           string   `json:"city" form:"city"`
	Country        string   `json:"country" form:"country"`
	Latitude       *float64 `json:"latitude" form:"latitude"`
	Longitude      *float64 `json:"longitude" form:"longitude"`
}

func (f predictForm) toRequest() crop.PredictionRequest {
	req := crop.PredictionRequest{
		Region:         f.Region,
		SoilType:       f.SoilType,
		Crop:           f.Crop,
		AvgTemp:        f.AvgTemp,
		AvgRainfall:    f.AvgRainfall,
		Weather:        f.Weather,
		DaysToHarvest:  f.DaysToHarvest,
		FertilizerUsed: f.FertilizerUsed,
		IrrigationUsed: f.IrrigationUsed,
	}
	if f.Latitude != nil && f.Longitude != nil {
		req.Coordinates = &crop.Coordinates{Latitude: *f.Latitude, Longitude: *f.Longitude}
	}
	if f.City != "" || f.Country != "" {
		req.Place = &crop.Place{City: f.City, Country: f.Country}
	}
	req.Normalize()
	return req
}

// inputError is a submission rejected before reaching the prediction service.
// decoded reports whether the returned request holds the submitted values.
type inputError struct {
	decoded bool
	msg     string
}

func (e *inputError) Error() string { return e.msg }

var fieldLabels = map[string]string{
	"Region":        "Region",
	"SoilType":      "Soil Type",
	"Crop":          "Crop Type",
	"AvgTemp":       "Temperature",
	"AvgRainfall":   "Rainfall",
	"Weather":       "Weather",
	"DaysToHarvest": "Days To Harvest",
	"Latitude":      "Latitude",
	"Longitude":     "Longitude",
}

func parsePredictForm(c *fiber.Ctx) (crop.PredictionRequest, error) {
	var f predictForm
	if err := c.BodyParser(&f); err != nil {
		return crop.PredictionRequest{}, &inputError{msg: dashboard.MsgInvalidInput}
	}
	req := f.toRequest()
	if err := validate.Struct(req); err != nil {
		return req, &inputError{decoded: true, msg: describeValidation(err)}
	}
	return req, nil
}

// describeValidation names the offending form fields without exposing
// validator internals.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dashboard.MsgInvalidInput
	}
	var names []string
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.StructField()]
		if !ok {
			label = fe.Field()
		}
		if !slices.Contains(names, label) {
			names = append(names, label)
		}
	}
	return dashboard.MsgInvalidInput + ": " + strings.Join(names, ", ")
}
