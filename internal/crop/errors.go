package crop

import "errors"

var (
	// ErrUnavailable is returned when a remote service cannot be reached or
	// answers with a server-side failure.
	ErrUnavailable = errors.New("remote service unavailable")

	// ErrMalformedResponse is returned when a response body is not valid JSON
	// or does not match the expected schema.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoPrediction is returned when the prediction service answers without
	// a predicted_yield.
	ErrNoPrediction = errors.New("response has no predicted yield")

	// ErrInvalidWindow is returned for an unknown time window.
	ErrInvalidWindow = errors.New("invalid time period; use week, month or year")
)
