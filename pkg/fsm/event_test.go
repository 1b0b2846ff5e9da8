package fsm_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robocell/fsm/pkg/fsm"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		evt := fsm.NewEvent("START")

		assert.NotEqual(t, uuid.Nil, evt.ID)
		assert.Equal(t, "START", evt.Name)
		assert.Equal(t, fsm.PriorityDefault, evt.Priority)
		assert.Nil(t, evt.Payload)
		assert.Zero(t, evt.Epoch)
		assert.False(t, evt.CreatedAt.IsZero())
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()
		evt := fsm.NewEvent("ABORT",
			fsm.WithPayload(map[string]any{"reason": "estop"}),
			fsm.WithPriority(fsm.PriorityMax),
			fsm.WithEpoch(7),
		)

		assert.Equal(t, fsm.PriorityMax, evt.Priority)
		assert.Equal(t, uint64(7), evt.Epoch)
		require.IsType(t, map[string]any{}, evt.Payload)
		assert.Equal(t, "estop", evt.Payload.(map[string]any)["reason"])
	})

	t.Run("priority clamped to range", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, fsm.PriorityMax, fsm.NewEvent("X", fsm.WithPriority(127)).Priority)
		assert.Equal(t, fsm.PriorityMin, fsm.NewEvent("X", fsm.WithPriority(-5)).Priority)
	})

	t.Run("sequence strictly increasing", func(t *testing.T) {
		t.Parallel()
		a := fsm.NewEvent("A")
		b := fsm.NewEvent("B")
		assert.Greater(t, b.Seq, a.Seq)
	})
}

func TestEventBefore(t *testing.T) {
	t.Parallel()

	t.Run("higher priority first", func(t *testing.T) {
		t.Parallel()
		low := fsm.NewEvent("LOW", fsm.WithPriority(fsm.PriorityLow))
		high := fsm.NewEvent("HIGH", fsm.WithPriority(fsm.PriorityHigh))

		assert.True(t, high.Before(low))
		assert.False(t, low.Before(high))
	})

	t.Run("equal priority keeps submission order", func(t *testing.T) {
		t.Parallel()
		first := fsm.NewEvent("FIRST")
		second := fsm.NewEvent("SECOND")

		assert.True(t, first.Before(second))
		assert.False(t, second.Before(first))
	})
}

func TestPriorityValid(t *testing.T) {
	t.Parallel()

	assert.True(t, fsm.PriorityMin.Valid())
	assert.True(t, fsm.PriorityMax.Valid())
	assert.True(t, fsm.PriorityNormal.Valid())
	assert.False(t, fsm.Priority(-1).Valid())
	assert.False(t, fsm.Priority(101).Valid())
}
