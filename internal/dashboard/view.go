package dashboard

import "github.com/i474232898/crop-yield-dashboard/internal/crop"

// recentLimit is the number of rows in the prediction history table.
const recentLimit = 10

// FormOptions lists the choices of the form's select fields.
type FormOptions struct {
	Regions   []string
	SoilTypes []string
	Crops     []string
	Weathers  []string
}

// View is the render model of the dashboard page.
type View struct {
	SessionID      string
	Form           crop.PredictionRequest
	Options        FormOptions
	Message        string
	MessageIsError bool

	Prediction *crop.PredictionResponse
	Analysis   *crop.Analysis
	Growth     []crop.GrowthPoint

	Window       crop.TimeWindow
	Windows      []crop.TimeWindow
	Records      []crop.HistoryRecord
	History      []crop.HistoryRow
	Recent       []crop.HistoryRow
	HistoryError string
	Stats        *crop.HistoryStats
	Distribution []crop.Segment

	Disclaimer []string
}

// ShowCharts reports whether the yield analysis section is rendered.
func (v View) ShowCharts() bool {
	return v.Analysis != nil
}

// View builds the render model for sess.
func (d *Dashboard) View(sess *Session) View {
	st := sess.Snapshot()

	v := View{
		SessionID: sess.ID,
		Form:      st.Form,
		Options: FormOptions{
			Regions:   crop.Regions,
			SoilTypes: crop.SoilTypes,
			Crops:     crop.Crops,
			Weathers:  crop.Weathers,
		},
		Message:        st.Message,
		MessageIsError: st.MessageIsError,
		Prediction:     st.Prediction,
		Window:         st.Window,
		Windows:        crop.Windows,
		Records:        st.History,
		History:        crop.DisplayRows(st.History),
		Recent:         crop.RecentRows(st.History, recentLimit),
		HistoryError:   st.HistoryError,
		Stats:          st.Stats,
		Disclaimer:     d.advice.Disclaimer,
	}

	if st.Prediction != nil {
		v.Growth = crop.GrowthCurve(st.Prediction.PredictedYield)
		if a, ok := crop.Analyze(st.Form, *st.Prediction, d.advice); ok {
			v.Analysis = &a
		}
	}
	if st.Stats != nil {
		v.Distribution = crop.Distribution(st.Stats.ByCrop)
	}
	return v
}
