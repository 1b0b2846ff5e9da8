package notify_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robocell/fsm/pkg/engine"
	"github.com/robocell/fsm/pkg/fsm"
	"github.com/robocell/fsm/pkg/notify"
)

func TestBusPublish(t *testing.T) {
	t.Parallel()

	t.Run("fan out to all subscribers", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[string](4)
		defer bus.Close()

		a := bus.Subscribe()
		b := bus.Subscribe()
		require.Equal(t, 2, bus.Len())
		assert.NotEqual(t, a.ID(), b.ID())

		bus.Publish("hello")
		assert.Equal(t, "hello", <-a.C())
		assert.Equal(t, "hello", <-b.C())
	})

	t.Run("slow subscriber drops, others unaffected", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[int](1)
		defer bus.Close()

		slow := bus.Subscribe()
		fast := bus.Subscribe()

		bus.Publish(1)
		assert.Equal(t, 1, <-fast.C())

		// slow's single-slot buffer is full; the next publish drops for it.
		bus.Publish(2)
		assert.Equal(t, 2, <-fast.C())
		assert.Equal(t, uint64(1), bus.Dropped())
		assert.Equal(t, 1, <-slow.C())
	})

	t.Run("publish never blocks", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[int](1)
		defer bus.Close()
		_ = bus.Subscribe()

		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				bus.Publish(i)
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("publish blocked on a full subscriber")
		}
	})

	t.Run("concurrent publishers", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[int](1024)
		defer bus.Close()
		sub := bus.Subscribe()

		var wg sync.WaitGroup
		for range_i := 0; range_i < 8; range_i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					bus.Publish(i)
				}
			}()
		}
		wg.Wait()

		received := 0
		for {
			select {
			case <-sub.C():
				received++
			default:
				assert.Equal(t, 800, received+int(bus.Dropped()))
				return
			}
		}
	})
}

func TestSubscriberClose(t *testing.T) {
	t.Parallel()

	t.Run("close unsubscribes and closes the channel", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[string](4)
		defer bus.Close()

		sub := bus.Subscribe()
		sub.Close()
		sub.Close() // idempotent

		assert.Equal(t, 0, bus.Len())
		_, open := <-sub.C()
		assert.False(t, open)

		// Publishing after unsubscribe is safe and drops nothing.
		bus.Publish("x")
		assert.Zero(t, bus.Dropped())
	})
}

func TestBusClose(t *testing.T) {
	t.Parallel()

	t.Run("closes all subscribers", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[string](4)
		a := bus.Subscribe()
		b := bus.Subscribe()

		bus.Close()
		bus.Close() // idempotent

		_, open := <-a.C()
		assert.False(t, open)
		_, open = <-b.C()
		assert.False(t, open)
	})

	t.Run("subscribe after close returns a closed subscriber", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[string](4)
		bus.Close()

		sub := bus.Subscribe()
		_, open := <-sub.C()
		assert.False(t, open)
		assert.Equal(t, 0, bus.Len())
	})

	t.Run("publish after close is a no-op", func(t *testing.T) {
		t.Parallel()
		bus := notify.NewBus[int](4)
		bus.Close()
		assert.NotPanics(t, func() { bus.Publish(1) })
	})
}

func TestHub(t *testing.T) {
	t.Parallel()

	// Hub satisfies the engine's notifier contract.
	var _ engine.Notifier = (*notify.Hub)(nil)

	t.Run("delivers engine transitions and errors", func(t *testing.T) {
		t.Parallel()
		hub := notify.NewHub(16)
		defer hub.Close()

		transitions := hub.Transitions().Subscribe()
		errs := hub.Errors().Subscribe()

		table := fsm.MustNew("IDLE",
			fsm.WithState("IDLE", fsm.WithTransition("START", "RUNNING")),
			fsm.WithState("RUNNING"),
		)
		eng := engine.MustNew(table,
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			engine.WithNotifier(hub),
		)
		require.NoError(t, eng.Start(context.Background()))
		t.Cleanup(func() { _ = eng.Stop() })

		require.NoError(t, eng.SendEvent("START"))
		select {
		case tr := <-transitions.C():
			assert.Equal(t, "IDLE", tr.From)
			assert.Equal(t, "RUNNING", tr.To)
			assert.Equal(t, "START", tr.Event)
		case <-time.After(2 * time.Second):
			t.Fatal("no transition notice delivered")
		}

		require.NoError(t, eng.Stop())
		_ = eng.SendEvent("START")
		select {
		case notice := <-errs.C():
			assert.Equal(t, string(engine.CodeEngineStopped), notice.Code)
		case <-time.After(2 * time.Second):
			t.Fatal("no error notice delivered")
		}
	})
}
