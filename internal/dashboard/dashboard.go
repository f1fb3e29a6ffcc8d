package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/metrics"
)

// Dashboard applies visitor actions to session state.
type Dashboard struct {
	service *crop.Service
	store   Store
	advice  crop.AdviceCatalog
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a Dashboard.
func New(service *crop.Service, store Store, advice crop.AdviceCatalog, m *metrics.Metrics) *Dashboard {
	return &Dashboard{
		service: service,
		store:   store,
		advice:  advice,
		metrics: m,
		now:     time.Now,
		logger:  log.With().Str("component", "dashboard").Logger(),
	}
}

// Session returns the session with the given id, starting a new one when the
// id is unknown.
func (d *Dashboard) Session(id string) *Session {
	if id != "" {
		if sess, ok := d.store.Get(id); ok {
			sess.Touch(d.now())
			return sess
		}
	}
	sess := NewSession(uuid.NewString(), d.now())
	d.store.Put(sess)
	return sess
}

// PredictionErrorMessage maps a prediction failure to the text shown to the visitor.
func PredictionErrorMessage(err error) string {
	if errors.Is(err, crop.ErrNoPrediction) {
		return MsgNoPrediction
	}
	return MsgConnectError
}

// Submit sends the form to the prediction service. When the answer carries
// average and optimal yields the history view is loaded as well.
func (d *Dashboard) Submit(ctx context.Context, sess *Session, req crop.PredictionRequest) {
	var seq uint64
	sess.update(func(st *State) { seq = st.beginPrediction(req) })

	resp, err := d.service.Predict(ctx, req)
	if err != nil {
		d.logger.Warn().Err(err).Str("session", sess.ID).Msg("prediction failed")
		outcome := "unavailable"
		if errors.Is(err, crop.ErrNoPrediction) {
			outcome = "no_prediction"
		} else if errors.Is(err, crop.ErrMalformedResponse) {
			outcome = "malformed"
		}
		d.metrics.PredictionOutcome(outcome)
		sess.update(func(st *State) { st.failPrediction(seq, PredictionErrorMessage(err)) })
		return
	}

	d.metrics.PredictionOutcome("ok")
	applied := false
	sess.update(func(st *State) { applied = st.applyPrediction(seq, resp) })
	if applied && resp.AverageYield != nil && resp.OptimalYield != nil {
		d.Refresh(ctx, sess)
	}
}

// Reject shows msg for a submission that failed validation. form holds the
// submitted values when they could be decoded.
func (d *Dashboard) Reject(sess *Session, form *crop.PredictionRequest, msg string) {
	d.metrics.PredictionOutcome("invalid")
	sess.update(func(st *State) { st.rejectPrediction(form, msg) })
}

// SelectWindow switches the history window and reloads history.
func (d *Dashboard) SelectWindow(ctx context.Context, sess *Session, w crop.TimeWindow) {
	var seq uint64
	sess.update(func(st *State) { seq = st.beginHistoryFetch(w) })
	d.loadHistory(ctx, sess, seq, w)
}

// Refresh reloads history for the current window.
func (d *Dashboard) Refresh(ctx context.Context, sess *Session) {
	var (
		seq uint64
		w   crop.TimeWindow
	)
	sess.update(func(st *State) {
		w = st.Window
		seq = st.beginHistoryFetch(w)
	})
	d.loadHistory(ctx, sess, seq, w)
}

// Archive archives the remote history and reloads the current window. On
// failure the list shown so far is kept next to an error message.
func (d *Dashboard) Archive(ctx context.Context, sess *Session) {
	if err := d.service.Archive(ctx); err != nil {
		d.logger.Warn().Err(err).Str("session", sess.ID).Msg("archive failed")
		sess.update(func(st *State) { st.archiveFailed(MsgArchiveFailed) })
		return
	}
	d.Refresh(ctx, sess)
}

func (d *Dashboard) loadHistory(ctx context.Context, sess *Session, seq uint64, w crop.TimeWindow) {
	records, err := d.service.History(ctx, w)
	if err != nil {
		d.logger.Warn().Err(err).Str("session", sess.ID).Str("window", string(w)).Msg("history fetch failed")
		sess.update(func(st *State) { st.failHistory(seq, MsgHistoryFailed) })
		return
	}

	applied := false
	sess.update(func(st *State) { applied = st.applyHistory(seq, records) })
	if !applied {
		d.logger.Debug().Str("session", sess.ID).Msg("discarding superseded history response")
		return
	}

	var stats *crop.HistoryStats
	if s, err := d.service.Stats(ctx); err != nil {
		d.logger.Warn().Err(err).Str("session", sess.ID).Msg("history stats fetch failed")
	} else {
		stats = &s
	}
	sess.update(func(st *State) { st.applyStats(seq, stats) })
}
