package pagination

import (
	"net/http"
	"strconv"
)

// DefaultBatchSize is how many results a single chat turn shows.
const DefaultBatchSize = 10

// MaxBatchSize bounds a client-supplied batch size.
const MaxBatchSize = 50

// Window is the half-open range [Offset, Offset+Limit) of a result set that
// the next turn should show.
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// End returns the exclusive upper bound of the window.
func (w Window) End() int {
	return w.Offset + w.Limit
}

// Empty reports whether the window covers no results.
func (w Window) Empty() bool {
	return w.Limit <= 0
}

// Next computes the window following sent items out of total, clamped to total.
// An exhausted result set yields an empty window positioned at total.
func Next(sent, batch, total int) Window {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if sent < 0 {
		sent = 0
	}
	if sent >= total {
		return Window{Offset: max(total, 0), Limit: 0}
	}
	return Window{Offset: sent, Limit: min(batch, total-sent)}
}

// Remaining returns how many results are left after sent, never negative.
func Remaining(sent, total int) int {
	return max(total-sent, 0)
}

// BatchSizeFromRequest reads the batch_size query parameter, falling back to
// def when absent or out of range.
func BatchSizeFromRequest(r *http.Request, def int) int {
	if def <= 0 {
		def = DefaultBatchSize
	}
	raw := r.URL.Query().Get("batch_size")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > MaxBatchSize {
		return def
	}
	return v
}
