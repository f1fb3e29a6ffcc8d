package crop

import "context"

// Predictor abstracts the remote prediction service.
type Predictor interface {
	Predict(ctx context.Context, req PredictionRequest) (PredictionResponse, error)
}

// HistorySource abstracts the remote history service. An empty window asks for
// unfiltered history.
type HistorySource interface {
	History(ctx context.Context, window TimeWindow) ([]HistoryRecord, error)
	Stats(ctx context.Context) (HistoryStats, error)
	Archive(ctx context.Context) error
}

// Locator resolves a Place to Coordinates.
type Locator interface {
	Locate(ctx context.Context, place Place) (Coordinates, error)
}
