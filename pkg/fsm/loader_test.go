package fsm_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robocell/fsm/pkg/fsm"
)

const dispenseTableYAML = `
initial: IDLE
global_transitions:
  ESTOP: ABORTED
states:
  - name: IDLE
    transitions:
      START: DISPENSING
    guards:
      START: pressure_ok
  - name: DISPENSING
    timeout: 200ms
    timeout_event: DWELL_EXPIRED
    transitions:
      DWELL_EXPIRED: ABORTED
    conditional:
      CHECK:
        - target: DONE
          priority: 10
          predicate: tank_full
          description: tank full
        - target: IDLE
          priority: 1
          predicate: always
    preconditions: [TEMP_LIMIT]
    postconditions: [NOZZLE_CLEAR]
  - name: DONE
  - name: ABORTED
`

func loaderRegistry(t *testing.T) *fsm.Registry {
	t.Helper()

	reg := fsm.NewRegistry()
	require.NoError(t, reg.RegisterPredicate("pressure_ok", func(ctx *fsm.Context) bool {
		p, _ := ctx.GetFloat("pressure")
		return p >= 2.5
	}))
	require.NoError(t, reg.RegisterPredicate("tank_full", func(ctx *fsm.Context) bool {
		full, _ := ctx.Get("tank_full")
		return full == true
	}))
	require.NoError(t, reg.RegisterPredicate("always", func(*fsm.Context) bool { return true }))
	require.NoError(t, reg.RegisterCondition(fsm.Condition{
		Code:    "TEMP_LIMIT",
		Field:   "temperature",
		Message: "temperature out of range",
		Check: func(ctx *fsm.Context) bool {
			temp, _ := ctx.GetFloat("temperature")
			return temp < 120
		},
	}))
	require.NoError(t, reg.RegisterCondition(fsm.Condition{
		Code:    "NOZZLE_CLEAR",
		Field:   "nozzle",
		Message: "nozzle blocked",
		Check:   func(*fsm.Context) bool { return true },
	}))
	return reg
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	t.Run("full document", func(t *testing.T) {
		t.Parallel()
		table, err := fsm.LoadTable(strings.NewReader(dispenseTableYAML), loaderRegistry(t))
		require.NoError(t, err)

		assert.Equal(t, "IDLE", table.Initial())
		assert.Equal(t, []string{"ABORTED", "DISPENSING", "DONE", "IDLE"}, table.StateNames())

		estop, ok := table.GlobalTarget("ESTOP")
		require.True(t, ok)
		assert.Equal(t, "ABORTED", estop)

		dispensing, ok := table.State("DISPENSING")
		require.True(t, ok)
		assert.Equal(t, 200*time.Millisecond, dispensing.Timeout())
		assert.Equal(t, "DWELL_EXPIRED", dispensing.TimeoutEvent())

		ctx := fsm.NewContext()
		ctx.Set("temperature", 150.0)
		res := dispensing.ValidateEntry(ctx, false)
		require.False(t, res.OK())
		assert.Equal(t, []string{"temperature"}, res.Fields())

		// Both conditional predicates hold; priority 10 wins.
		ctx.Set("tank_full", true)
		target, resolved, err := dispensing.Resolve("CHECK", ctx)
		require.NoError(t, err)
		require.True(t, resolved)
		assert.Equal(t, "DONE", target)

		// Only the low-priority fallback holds.
		ctx.Set("tank_full", false)
		target, resolved, err = dispensing.Resolve("CHECK", ctx)
		require.NoError(t, err)
		require.True(t, resolved)
		assert.Equal(t, "IDLE", target)
	})

	t.Run("guard resolved by name", func(t *testing.T) {
		t.Parallel()
		table, err := fsm.LoadTable(strings.NewReader(dispenseTableYAML), loaderRegistry(t))
		require.NoError(t, err)

		idle, ok := table.State("IDLE")
		require.True(t, ok)

		ctx := fsm.NewContext()
		ctx.Set("pressure", 1.0)
		allowed, err := idle.GuardAllows("START", ctx)
		require.NoError(t, err)
		assert.False(t, allowed)

		ctx.Set("pressure", 3.0)
		allowed, err = idle.GuardAllows("START", ctx)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("unknown predicate", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
states:
  - name: A
    guards:
      GO: missing
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		require.ErrorIs(t, err, fsm.ErrUnknownPredicate)
	})

	t.Run("unknown condition", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
states:
  - name: A
    preconditions: [MISSING]
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		require.ErrorIs(t, err, fsm.ErrUnknownCondition)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
states:
  - name: A
    bogus: true
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		require.Error(t, err)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
states:
  - name: A
    timeout: soon
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid duration")
	})

	t.Run("global target integrity enforced", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
global_transitions:
  ESTOP: NOWHERE
states:
  - name: A
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		var target *fsm.ErrUndefinedTarget
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "*", target.State)
	})

	t.Run("target integrity enforced", func(t *testing.T) {
		t.Parallel()
		doc := `
initial: A
states:
  - name: A
    transitions:
      GO: NOWHERE
`
		_, err := fsm.LoadTable(strings.NewReader(doc), fsm.NewRegistry())
		var target *fsm.ErrUndefinedTarget
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "NOWHERE", target.Target)
	})
}
