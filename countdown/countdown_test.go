package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	t.Run("zero duration is immediately expired", func(t *testing.T) {
		timer := New(0)
		assert.True(t, timer.IsTimeUp())
		assert.Equal(t, time.Duration(0), timer.Remaining())
	})

	t.Run("negative duration is clamped", func(t *testing.T) {
		timer := New(-time.Second)
		assert.True(t, timer.IsTimeUp())
		assert.Equal(t, time.Duration(0), timer.Duration())
	})

	t.Run("expires and stays expired", func(t *testing.T) {
		timer := New(20 * time.Millisecond)
		assert.False(t, timer.IsTimeUp())
		assert.Greater(t, timer.Remaining(), time.Duration(0))

		time.Sleep(30 * time.Millisecond)
		assert.True(t, timer.IsTimeUp())
		assert.True(t, timer.IsTimeUp(), "expiry must be sticky")
		assert.GreaterOrEqual(t, timer.Elapsed(), 20*time.Millisecond)
	})

	t.Run("long duration is not expired", func(t *testing.T) {
		assert.False(t, New(time.Hour).IsTimeUp())
	})
}
