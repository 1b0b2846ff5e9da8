package fsm_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robocell/fsm/pkg/fsm"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		ctx := fsm.NewContext()

		ctx.Set("temperature", 42.5)
		v, ok := ctx.Get("temperature")
		require.True(t, ok)
		assert.Equal(t, 42.5, v)

		f, ok := ctx.GetFloat("temperature")
		require.True(t, ok)
		assert.Equal(t, 42.5, f)

		_, ok = ctx.Get("missing")
		assert.False(t, ok)
	})

	t.Run("seeded values and services", func(t *testing.T) {
		t.Parallel()
		type robot struct{ name string }
		r := &robot{name: "cell-1"}

		ctx := fsm.NewContext(
			fsm.WithService("robot", r),
			fsm.WithValue("mode", "auto"),
		)

		svc, ok := ctx.Service("robot")
		require.True(t, ok)
		assert.Same(t, r, svc)
		assert.True(t, ctx.HasService("robot"))
		assert.False(t, ctx.HasService("vision"))

		mode, ok := ctx.GetString("mode")
		require.True(t, ok)
		assert.Equal(t, "auto", mode)
	})

	t.Run("keys and delete", func(t *testing.T) {
		t.Parallel()
		ctx := fsm.NewContext(
			fsm.WithValue("temperature", 80.0),
			fsm.WithValue("pressure", 2.5),
		)

		assert.ElementsMatch(t, []string{"temperature", "pressure"}, ctx.Keys())

		ctx.Delete("pressure")
		assert.ElementsMatch(t, []string{"temperature"}, ctx.Keys())
		assert.Equal(t, 1, ctx.Len())
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		t.Parallel()
		ctx := fsm.NewContext(fsm.WithValue("k", 1))

		snap := ctx.Snapshot()
		snap["k"] = 99

		v, _ := ctx.Get("k")
		assert.Equal(t, 1, v)
	})

	t.Run("clear keeps services", func(t *testing.T) {
		t.Parallel()
		ctx := fsm.NewContext(
			fsm.WithService("robot", struct{}{}),
			fsm.WithValue("k", 1),
		)

		ctx.Clear()

		assert.Equal(t, 0, ctx.Len())
		assert.True(t, ctx.HasService("robot"))
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()
		ctx := fsm.NewContext()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					ctx.Set("key", n)
					_, _ = ctx.Get("key")
					_ = ctx.Snapshot()
				}
			}(i)
		}
		wg.Wait()

		_, ok := ctx.Get("key")
		assert.True(t, ok)
	})
}
