package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_FirstBatch(t *testing.T) {
	w := Next(0, 10, 25)
	assert.Equal(t, Window{Offset: 0, Limit: 10}, w)
	assert.Equal(t, 10, w.End())
}

func TestNext_ClampsToTotal(t *testing.T) {
	w := Next(20, 10, 25)
	assert.Equal(t, Window{Offset: 20, Limit: 5}, w)
}

func TestNext_Exhausted(t *testing.T) {
	w := Next(25, 10, 25)
	assert.True(t, w.Empty())
	assert.Equal(t, 25, w.Offset)

	assert.True(t, Next(30, 10, 25).Empty())
	assert.True(t, Next(0, 10, 0).Empty())
}

func TestNext_DefaultBatch(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, Next(0, 0, 100).Limit)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 7, Remaining(3, 10))
	assert.Zero(t, Remaining(12, 10))
}

func TestBatchSizeFromRequest(t *testing.T) {
	cases := map[string]int{
		"/more":                15,
		"/more?batch_size=5":   5,
		"/more?batch_size=0":   15,
		"/more?batch_size=999": 15,
		"/more?batch_size=abc": 15,
	}
	for target, want := range cases {
		r := httptest.NewRequest("POST", target, nil)
		assert.Equal(t, want, BatchSizeFromRequest(r, 15), target)
	}
}
