// Package refresh implements the shared refresh clock. The clock produces a
// strictly increasing tick on manual triggers and, when an interval is set,
// on a timer. Subscribers observe every tick; the cluster service uses it to
// re-fetch topology and the time series tracker to sample.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/utils"
)

// DefaultSettleWindow is how long the clock stays Refreshing after a trigger
const DefaultSettleWindow = utils.DefaultSettleWindow

// State is the refresh clock state
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON responses
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Tick marks one refresh. Seq increases by one per tick and Time strictly
// increases between ticks of the same clock.
type Tick struct {
	Seq   uint64    `json:"seq"`
	Scope string    `json:"scope,omitempty"`
	Time  time.Time `json:"time"`
}

// IsZero reports whether no refresh has happened yet
func (t Tick) IsZero() bool {
	return t.Seq == 0
}

// Invalidator drops cached fetch data. Scope names a cache partition.
type Invalidator interface {
	Invalidate(scope string)
	InvalidateAll()
}

// Listener is called synchronously for every tick, outside the clock lock
type Listener func(Tick)

// Status is a point-in-time view of the clock
type Status struct {
	State       State         `json:"state"`
	Interval    time.Duration `json:"-"`
	IntervalMs  int64         `json:"interval_ms"`
	Running     bool          `json:"running"`
	LastRefresh Tick          `json:"last_refresh"`
}

// Options configures a Clock
type Options struct {
	// Interval is the fallback interval used when none is persisted
	Interval     time.Duration
	SettleWindow time.Duration
	Clock        clockwork.Clock
	Invalidator  Invalidator
	Store        IntervalStore
	StoreKey     string
	Logger       *logging.Logger
}

// Clock is the refresh state machine. It is safe for concurrent use.
type Clock struct {
	mu sync.Mutex

	clock       clockwork.Clock
	settle      time.Duration
	fallback    time.Duration
	invalidator Invalidator
	store       IntervalStore
	storeKey    string
	logger      *logging.Logger

	state     State
	interval  time.Duration
	last      Tick
	listeners []Listener
	running   bool

	settleTimer clockwork.Timer
	settleGen   uint64

	loopStop chan struct{}
	wg       sync.WaitGroup
}

// New creates a stopped clock. Call Start to load the persisted interval and
// begin scheduling.
func New(opts Options) *Clock {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SettleWindow <= 0 {
		opts.SettleWindow = DefaultSettleWindow
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	if opts.StoreKey == "" {
		opts.StoreKey = DefaultIntervalKey
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}

	c := &Clock{
		clock:       opts.Clock,
		settle:      opts.SettleWindow,
		fallback:    opts.Interval,
		invalidator: opts.Invalidator,
		store:       opts.Store,
		storeKey:    opts.StoreKey,
		logger:      opts.Logger,
		interval:    opts.Interval,
	}
	c.state = c.restingState()
	return c
}

// Subscribe registers a listener for future ticks
func (c *Clock) Subscribe(l Listener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Start reads the persisted interval (falling back to the configured one)
// and arms the interval timer.
func (c *Clock) Start(ctx context.Context) {
	interval, err := LoadInterval(ctx, c.store, c.storeKey, c.fallback)
	if err != nil && !errors.Is(err, ErrNoStore) {
		c.logger.Warn("Using default refresh interval",
			"key", c.storeKey,
			"interval", c.fallback,
			"error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.interval = interval
	if c.state != StateRefreshing {
		c.state = c.restingState()
	}
	c.startLoopLocked()

	c.logger.Info("Refresh clock started", "interval", c.interval)
}

// Stop halts the interval timer and any pending settle timer
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.stopLoopLocked()
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	c.settleGen++
	c.state = c.restingState()
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("Refresh clock stopped")
}

// SetInterval changes the refresh interval. Zero disables scheduling. The new
// value is persisted; persistence failures are logged and do not undo the
// change.
func (c *Clock) SetInterval(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", d)
	}

	c.mu.Lock()
	c.interval = d
	if c.running {
		c.stopLoopLocked()
		c.startLoopLocked()
	}
	if c.state != StateRefreshing {
		c.state = c.restingState()
	}
	c.mu.Unlock()

	if err := SaveInterval(ctx, c.store, c.storeKey, d); err != nil && !errors.Is(err, ErrNoStore) {
		c.logger.Warn("Failed to persist refresh interval",
			"key", c.storeKey,
			"interval", d,
			"error", err)
	}
	return nil
}

// TriggerRefresh moves the clock to Refreshing, invalidates cached data for
// scope (everything when scope is empty), stamps a new tick and notifies
// subscribers. A trigger while already Refreshing restarts the settle window.
func (c *Clock) TriggerRefresh(scope string) Tick {
	c.mu.Lock()
	now := c.clock.Now()
	if !c.last.IsZero() && !now.After(c.last.Time) {
		now = c.last.Time.Add(time.Millisecond)
	}
	tick := Tick{Seq: c.last.Seq + 1, Scope: scope, Time: now}
	c.last = tick
	c.state = StateRefreshing

	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.settleGen++
	gen := c.settleGen
	c.settleTimer = c.clock.AfterFunc(c.settle, func() { c.settled(gen) })

	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	if c.invalidator != nil {
		if scope == "" {
			c.invalidator.InvalidateAll()
		} else {
			c.invalidator.Invalidate(scope)
		}
	}

	for _, l := range listeners {
		l(tick)
	}
	return tick
}

// LastRefresh returns the most recent tick
func (c *Clock) LastRefresh() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Status returns the current state, interval and last tick
func (c *Clock) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:       c.state,
		Interval:    c.interval,
		IntervalMs:  c.interval.Milliseconds(),
		Running:     c.running,
		LastRefresh: c.last,
	}
}

func (c *Clock) settled(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.settleGen {
		return
	}
	c.settleTimer = nil
	c.state = c.restingState()
}

// restingState is the state implied by the current interval. Caller holds mu.
func (c *Clock) restingState() State {
	if c.interval > 0 {
		return StateScheduled
	}
	return StateIdle
}

// startLoopLocked arms the interval ticker. The ticker is created here, not
// in the goroutine, so a tick period starts exactly when the interval is set.
func (c *Clock) startLoopLocked() {
	if c.interval <= 0 {
		return
	}
	ticker := c.clock.NewTicker(c.interval)
	stop := make(chan struct{})
	c.loopStop = stop

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				select {
				case <-stop:
					return
				default:
				}
				c.logger.Debug("Scheduled refresh")
				c.TriggerRefresh("")
			}
		}
	}()
}

func (c *Clock) stopLoopLocked() {
	if c.loopStop != nil {
		close(c.loopStop)
		c.loopStop = nil
	}
}
