package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/crop/remote"
	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
	"github.com/i474232898/crop-yield-dashboard/internal/store"
)

// upstream fakes the prediction and history services.
type upstream struct {
	prediction string
	history    string
	failHist   atomic.Bool
	archived   atomic.Int32
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/predict":
		io.WriteString(w, u.prediction)
	case "/history":
		if u.failHist.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, u.history)
	case "/history/stats":
		io.WriteString(w, `{"total_predictions":3,"total_archived":1,"by_crop":{"Wheat":2,"Rice":1}}`)
	case "/archive":
		u.archived.Add(1)
		io.WriteString(w, `{"message":"ok"}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T, u *upstream) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)

	client := remote.NewClient(remote.Options{PredictionURL: srv.URL, RequestsPerSec: 100})
	svc := crop.NewService(client, client)
	advice := crop.DefaultAdvice()
	dash := dashboard.New(svc, store.NewMemoryStore(10, time.Hour), advice, nil)

	app := fiber.New()
	RegisterRoutes(app, Deps{Service: svc, Dashboard: dash, Advice: advice})
	return app
}

func defaultUpstream() *upstream {
	recent := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	old := time.Now().UTC().Add(-90 * 24 * time.Hour).Format(time.RFC3339)
	return &upstream{
		prediction: `{"predicted_yield":4.5,"average_yield":5,"optimal_yield":6,"recommendation":{"advice":["Test the soil"]}}`,
		history: `{"history":[
			{"date":"` + old + `","yield":3,"crop":"Rice","region":"South"},
			{"date":"` + recent + `","yield":"4.25","crop":"Wheat","region":"North"}
		]}`,
	}
}

const validPrediction = `{"region":"North","soil_type":"Loam","crop":"Wheat","avg_temp":22,"avg_rainfall":60,"weather":"Sunny","days_to_harvest":110,"fertilizer_used":true,"irrigation_used":false}`

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestPredictEndpoint(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/predict", validPrediction)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "Estimated yield: 4.5 tons per hectare", body["message"])
	assert.Len(t, body["growth"], 21)

	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, -10.0, analysis["improvementPercent"])
}

func TestPredictEndpointValidation(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	bad := strings.Replace(validPrediction, `"North"`, `"Atlantis"`, 1)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/predict", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/predict", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictEndpointMissingYield(t *testing.T) {
	u := defaultUpstream()
	u.prediction = `{"average_yield":5}`
	app := newTestApp(t, u)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(validPrediction))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	msg, _ := io.ReadAll(resp.Body)
	assert.Equal(t, dashboard.MsgNoPrediction, string(msg))
}

func TestHistoryEndpointFiltersByWindow(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/history?time_period=month", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "month", body["time_period"])
	assert.Equal(t, "client", body["filter"])
	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "Wheat", rows[0].(map[string]any)["cropType"])
	assert.Equal(t, 4.25, rows[0].(map[string]any)["yield"])
}

func TestHistoryEndpointBadWindow(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/history?time_period=decade", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/history/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3.0, body["total_predictions"])
	dist, ok := body["distribution"].([]any)
	require.True(t, ok)
	require.Len(t, dist, 2)
	assert.Equal(t, "Wheat: 67%", dist[0].(map[string]any)["label"])
}

func TestArchiveEndpointRefetchFailure(t *testing.T) {
	u := defaultUpstream()
	u.failHist.Store(true)
	app := newTestApp(t, u)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/archive?time_period=week", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int32(1), u.archived.Load())
	assert.Equal(t, dashboard.MsgHistoryFailed, body["error"])
	assert.Empty(t, body["history"])
}

// TestGrowthEndpointValidation verifies that predicted_yield is required and
// must not be negative.
func TestGrowthEndpointValidation(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	for _, target := range []string{"/api/v1/growth", "/api/v1/growth?predicted_yield=-2", "/api/v1/growth?predicted_yield=abc"} {
		resp, _ := doJSON(t, app, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/growth?predicted_yield=8", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	points := body["points"].([]any)
	require.Len(t, points, 21)
	assert.Equal(t, 8.0, points[20].(map[string]any)["projectedYield"])
}

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", sessionCookie)
	return nil
}

func TestDashboardPageFlow(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Crop Yield Predictor!")
	assert.NotContains(t, string(page), "Yield Analysis")
	cookie := sessionCookieFrom(t, resp)

	form := url.Values{
		"region": {"North"}, "soil_type": {"Loam"}, "crop": {"Wheat"},
		"avg_temp": {"22"}, "avg_rainfall": {"60"}, "weather": {"Sunny"},
		"days_to_harvest": {"110"}, "fertilizer_used": {"true"},
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	page, _ = io.ReadAll(resp.Body)
	html := string(page)
	assert.Contains(t, html, "Estimated yield: 4.5 tons per hectare")
	assert.Contains(t, html, "Test the soil")
	assert.Contains(t, html, "Yield Analysis")
	assert.Contains(t, html, "Showing data from the last 30 days")
	assert.Contains(t, html, "Wheat: 2 predictions")

	req = httptest.NewRequest(http.MethodGet, "/dashboard/charts/growth", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/dashboard/export.xlsx", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "prediction-history-month.xlsx")
}

func TestDashboardWindowSelection(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	cookie := sessionCookieFrom(t, resp)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/window", strings.NewReader("time_period=decade"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/dashboard/window", strings.NewReader("time_period=year"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestChartsWithoutPrediction(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard/charts/comparison", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard/charts/pie", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func postForm(t *testing.T, app *fiber.App, cookie *http.Cookie, target string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getPage(t *testing.T, app *fiber.App, cookie *http.Cookie) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	return string(page)
}

func TestDashboardInvalidFormShowsMessage(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	cookie := sessionCookieFrom(t, resp)

	form := url.Values{
		"region": {"North"}, "soil_type": {"Loam"}, "crop": {"Wheat"},
		"avg_temp": {"70"}, "avg_rainfall": {"60"}, "weather": {"Sunny"},
		"days_to_harvest": {"110"},
	}
	resp = postForm(t, app, cookie, "/predict", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	html := getPage(t, app, cookie)
	assert.Contains(t, html, dashboard.MsgInvalidInput+": Temperature")
	assert.Contains(t, html, `value="70"`, "submitted values are kept in the form")
	assert.NotContains(t, html, "failed on the")
	assert.NotContains(t, html, "Estimated yield")
}

func TestDashboardUndecodableFormShowsMessage(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	cookie := sessionCookieFrom(t, resp)

	form := url.Values{"region": {"North"}, "avg_temp": {"warm"}}
	resp = postForm(t, app, cookie, "/predict", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	html := getPage(t, app, cookie)
	assert.Contains(t, html, dashboard.MsgInvalidInput)
	assert.Contains(t, html, `value="25"`, "previous form values are kept")
}

func TestPredictEndpointValidationMessage(t *testing.T) {
	app := newTestApp(t, defaultUpstream())

	body := strings.Replace(validPrediction, `"avg_temp":22`, `"avg_temp":70`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg, _ := io.ReadAll(resp.Body)
	assert.Equal(t, dashboard.MsgInvalidInput+": Temperature", string(msg))
}
