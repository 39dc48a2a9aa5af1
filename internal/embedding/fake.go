package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// Fake is a deterministic offline Embedder: each word is hashed into one
// dimension, so texts sharing words are close. Used by tests and the memory
// backend.
type Fake struct {
	Dimensions int

	mu    sync.Mutex
	err   error
	empty bool
	calls int
}

// NewFake returns a fake producing vectors of the given length.
func NewFake(dimensions int) *Fake {
	return &Fake{Dimensions: dimensions}
}

// FailWith makes every later call return err. A nil err restores normal
// behavior.
func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// ReturnEmpty makes later calls return ErrNoVector.
func (f *Fake) ReturnEmpty(empty bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empty = empty
}

// Calls returns the number of Embed calls so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Embed implements Embedder.
func (f *Fake) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	failErr, empty := f.err, f.empty
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	words := strings.Fields(strings.ToLower(text))
	if empty || len(words) == 0 || f.Dimensions <= 0 {
		return nil, ErrNoVector
	}

	vec := make([]float64, f.Dimensions)
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(f.Dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}
