// Package dashboard keeps per-visitor dashboard state and drives it through the
// crop service.
package dashboard

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// Messages shown to the visitor.
const (
	MsgConnectError  = "Error: Unable to connect to the server"
	MsgNoPrediction  = "Error: Could not get prediction"
	MsgHistoryFailed = "Failed to load prediction history. Please try again later."
	MsgArchiveFailed = "Failed to archive history. Please try again later."
	MsgInvalidInput  = "Error: Please check the form inputs"
)

// State is everything the dashboard page shows for one visitor. Fields are
// changed only through the transition methods below.
type State struct {
	Form           crop.PredictionRequest
	Message        string
	MessageIsError bool
	Prediction     *crop.PredictionResponse

	Window       crop.TimeWindow
	History      []crop.HistoryRecord
	HistoryError string
	Stats        *crop.HistoryStats

	predictionSeq uint64
	historySeq    uint64
}

// NewState returns the state of a fresh visit.
func NewState() *State {
	return &State{
		Form:   crop.DefaultRequest(),
		Window: crop.DefaultWindow,
	}
}

// beginPrediction records the submitted form and clears everything derived
// from an earlier prediction.
func (s *State) beginPrediction(req crop.PredictionRequest) uint64 {
	s.predictionSeq++
	s.Form = req
	s.Message = ""
	s.MessageIsError = false
	s.Prediction = nil
	return s.predictionSeq
}

func (s *State) applyPrediction(seq uint64, resp crop.PredictionResponse) bool {
	if seq != s.predictionSeq {
		return false
	}
	s.Prediction = &resp
	s.Message = "Estimated yield: " + strconv.FormatFloat(resp.PredictedYield, 'f', -1, 64) + " tons per hectare"
	s.MessageIsError = false
	return true
}

func (s *State) failPrediction(seq uint64, msg string) bool {
	if seq != s.predictionSeq {
		return false
	}
	s.Prediction = nil
	s.Message = msg
	s.MessageIsError = true
	return true
}

// rejectPrediction records a submission that never reached the prediction
// service. A nil form keeps the previous form values.
func (s *State) rejectPrediction(form *crop.PredictionRequest, msg string) {
	s.predictionSeq++
	if form != nil {
		s.Form = *form
	}
	s.Prediction = nil
	s.Message = msg
	s.MessageIsError = true
}

// beginHistoryFetch selects the window and invalidates any fetch still in flight.
func (s *State) beginHistoryFetch(w crop.TimeWindow) uint64 {
	s.historySeq++
	s.Window = w
	return s.historySeq
}

// applyHistory replaces the list unless a newer fetch has started since seq.
func (s *State) applyHistory(seq uint64, records []crop.HistoryRecord) bool {
	if seq != s.historySeq {
		return false
	}
	s.History = records
	s.HistoryError = ""
	return true
}

func (s *State) failHistory(seq uint64, msg string) bool {
	if seq != s.historySeq {
		return false
	}
	s.History = nil
	s.HistoryError = msg
	return true
}

func (s *State) applyStats(seq uint64, stats *crop.HistoryStats) bool {
	if seq != s.historySeq {
		return false
	}
	s.Stats = stats
	return true
}

func (s *State) archiveFailed(msg string) {
	s.HistoryError = msg
}

// clone copies the state so callers can read it without holding the lock.
func (s *State) clone() State {
	c := *s
	c.History = slices.Clone(s.History)
	if s.Prediction != nil {
		p := *s.Prediction
		p.Advice = slices.Clone(p.Advice)
		c.Prediction = &p
	}
	if s.Stats != nil {
		st := *s.Stats
		st.ByCrop = slices.Clone(st.ByCrop)
		c.Stats = &st
	}
	return c
}

// Session guards one visitor's State.
type Session struct {
	ID string

	mu       sync.Mutex
	state    *State
	lastSeen time.Time
}

// NewSession creates a session holding the initial state.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, state: NewState(), lastSeen: now}
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Touch marks the session as used at now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen reports when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps sessions between requests.
type Store interface {
	Get(id string) (*Session, bool)
	Put(sess *Session)
}
