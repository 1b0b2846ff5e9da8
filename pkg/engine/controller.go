package engine

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robocell/fsm/pkg/breaker"
)

// ErrorCallback observes captured error records. Callbacks run
// synchronously on the dispatch goroutine with failure isolation: one
// panicking callback is logged and does not block the rest or the engine.
type ErrorCallback func(ErrorRecord)

// controller wraps every transition unit: it captures failures, applies
// circuit-breaker policy, notifies callbacks and classifies the outcome.
type controller struct {
	mu          sync.Mutex
	historySize int
	history     []ErrorRecord
	active      map[Code]ErrorRecord
	callbacks   map[uuid.UUID]ErrorCallback
	total       uint64
	recovered   uint64
	fatal       uint64
	perCode     map[Code]uint64

	// trials holds the breakers whose half-open trial the current
	// operation was admitted under, so the operation can settle them no
	// matter how it ends.
	trials []*breaker.Breaker

	breakers *breaker.Registry
	logger   *slog.Logger
	metrics  MetricsRecorder
	notifier Notifier
}

func newController(cfg Config, logger *slog.Logger, metrics MetricsRecorder, notifier Notifier) *controller {
	return &controller{
		historySize: cfg.ErrorHistorySize,
		active:      make(map[Code]ErrorRecord),
		callbacks:   make(map[uuid.UUID]ErrorCallback),
		perCode:     make(map[Code]uint64),
		breakers:    breaker.NewRegistry(cfg.Breaker),
		logger:      logger,
		metrics:     metrics,
		notifier:    notifier,
	}
}

// report captures one failure: updates the per-code breaker, appends to the
// bounded history (oldest evicted first), invokes callbacks and classifies
// the record as recoverable or fatal. Returns the finalized record.
func (c *controller) report(rec ErrorRecord) ErrorRecord {
	rec.ID = uuid.New()
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	rec.Recovered = !rec.Code.Fatal()

	c.mu.Lock()
	c.total++
	c.perCode[rec.Code]++
	if rec.Recovered {
		c.recovered++
	} else {
		c.fatal++
	}

	if breakerManaged(rec.Code) {
		c.breakers.Get(string(rec.Code)).RecordFailure()
	}

	c.history = append(c.history, rec)
	if len(c.history) > c.historySize {
		c.history = c.history[len(c.history)-c.historySize:]
	}
	c.active[rec.Code] = rec

	callbacks := make([]ErrorCallback, 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()

	safeRecordError(c.metrics, string(rec.Code), rec.State)
	safePublishError(c.notifier, ErrorNotice{
		Code:     string(rec.Code),
		State:    rec.State,
		Snapshot: rec.Snapshot,
		Time:     rec.Time,
	})

	for _, cb := range callbacks {
		c.invoke(cb, rec)
	}

	return rec
}

// invoke runs one callback with panic isolation.
func (c *controller) invoke(cb ErrorCallback, rec ErrorRecord) {
	defer func() {
		if v := recover(); v != nil {
			c.logger.Error("error callback panicked",
				slog.String("code", string(rec.Code)),
				slog.Any("panic", v))
		}
	}()
	cb(rec)
}

// recordSuccess closes the loop on breaker-managed codes after a committed
// transition: the validations and predicates all held, so any pending
// half-open trial succeeded.
func (c *controller) recordSuccess() {
	for _, code := range breakerCodes {
		if b, ok := c.breakers.Lookup(string(code)); ok {
			b.RecordSuccess()
		}
	}

	c.mu.Lock()
	c.trials = nil
	c.mu.Unlock()
}

// deny returns the first breaker-managed code whose circuit refuses the
// operation, so the caller can fast-fail without re-execution. Half-open
// admissions are remembered as in-flight trials until the operation
// settles or releases them.
func (c *controller) deny() (Code, bool) {
	for _, code := range breakerCodes {
		b, ok := c.breakers.Lookup(string(code))
		if !ok {
			continue
		}
		if !b.Allow() {
			return code, true
		}
		if b.State() == breaker.StateHalfOpen {
			c.mu.Lock()
			c.trials = append(c.trials, b)
			c.mu.Unlock()
		}
	}
	return "", false
}

// releaseTrials abandons in-flight trials the operation never settled: a
// no-op outcome, or a failure under a different code, must not leave a
// trial pending forever. A trial already settled by RecordFailure or
// RecordSuccess is left alone.
func (c *controller) releaseTrials() {
	c.mu.Lock()
	trials := c.trials
	c.trials = nil
	c.mu.Unlock()

	for _, b := range trials {
		b.ReleaseTrial()
	}
}

func (c *controller) addCallback(cb ErrorCallback) uuid.UUID {
	id := uuid.New()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks[id] = cb
	return id
}

func (c *controller) removeCallback(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.callbacks[id]; !ok {
		return false
	}
	delete(c.callbacks, id)
	return true
}

func (c *controller) hasFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for code := range c.active {
		if code.Fatal() {
			return true
		}
	}
	return false
}

func (c *controller) clearError(code Code) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[code]; !ok {
		return false
	}
	delete(c.active, code)
	return true
}

func (c *controller) activeErrors() []ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ErrorRecord, 0, len(c.active))
	for _, rec := range c.active {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func (c *controller) errorHistory(limit int) []ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ErrorRecord, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

func (c *controller) stats() ErrorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := ErrorStats{
		Total:     c.total,
		Recovered: c.recovered,
		Fatal:     c.fatal,
		PerCode:   make(map[Code]uint64, len(c.perCode)),
	}
	for code, n := range c.perCode {
		stats.PerCode[code] = n
	}
	if c.total > 0 {
		stats.RecoveryRate = float64(c.recovered) / float64(c.total)
	}
	return stats
}

// breakerSnapshot exposes per-code breaker stats for dashboards.
func (c *controller) breakerSnapshot() map[string]breaker.Stats {
	return c.breakers.Snapshot()
}

func (c *controller) resetBreakers() {
	c.breakers.ResetAll()
}

func breakerManaged(code Code) bool {
	for _, managed := range breakerCodes {
		if code == managed {
			return true
		}
	}
	return false
}
