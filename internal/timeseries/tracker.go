package timeseries

import (
	"sort"
	"sync"
	"time"
)

// Metric names sampled from topology snapshots
const (
	MetricHeapPercent    = "heap_percent"
	MetricDiskPercent    = "disk_percent"
	MetricShardCount     = "shard_count"
	MetricDocsCount      = "docs_count"
	MetricStoreSizeBytes = "store_size_bytes"
)

// Key identifies a series
type Key struct {
	Entity string `json:"entity"`
	Metric string `json:"metric"`
}

func (k Key) String() string {
	return k.Entity + "/" + k.Metric
}

// Entity prefixes
const (
	NodeEntityPrefix  = "node:"
	IndexEntityPrefix = "index:"
)

// NodeEntity returns the entity id of a node
func NodeEntity(id string) string { return NodeEntityPrefix + id }

// IndexEntity returns the entity id of an index
func IndexEntity(name string) string { return IndexEntityPrefix + name }

// Tracker owns one Series per key. It is safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	capacity int
	series   map[Key]*Series
}

// NewTracker creates a tracker whose series hold capacity points each
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		series:   make(map[Key]*Series),
	}
}

// Observe records one value for key at tick time now
func (t *Tracker) Observe(key Key, now time.Time, value float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreate(key).Observe(now, value)
}

// ObserveAll records every sample at the same tick time and returns how many
// points were appended
func (t *Tracker) ObserveAll(now time.Time, samples map[Key]float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	recorded := 0
	for key, value := range samples {
		if t.getOrCreate(key).Observe(now, value) {
			recorded++
		}
	}
	return recorded
}

// SetResetKey applies a reset key to one series, clearing it when the key
// changed
func (t *Tracker) SetResetKey(key Key, resetKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreate(key).SetResetKey(resetKey)
}

// ApplyResetKey is SetResetKey restricted to tracked series. found is false,
// and nothing is created, when key is not tracked.
func (t *Tracker) ApplyResetKey(key Key, resetKey string) (cleared, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.series[key]
	if !ok {
		return false, false
	}
	return s.SetResetKey(resetKey), true
}

// Reset clears one series. Unknown keys are ignored.
func (t *Tracker) Reset(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.series[key]; ok {
		s.Reset()
	}
}

// Points returns a copy of the series for key
func (t *Tracker) Points(key Key) ([]Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.series[key]
	if !ok {
		return nil, false
	}
	return s.Points(), true
}

// Keys returns every tracked key ordered by entity then metric
func (t *Tracker) Keys() []Key {
	t.mu.RLock()
	keys := make([]Key, 0, len(t.series))
	for k := range t.series {
		keys = append(keys, k)
	}
	t.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Entity != keys[j].Entity {
			return keys[i].Entity < keys[j].Entity
		}
		return keys[i].Metric < keys[j].Metric
	})
	return keys
}

// Prune drops every series for which keep returns false and returns how many
// were removed
func (t *Tracker) Prune(keep func(Key) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k := range t.series {
		if !keep(k) {
			delete(t.series, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked series
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.series)
}

// Capacity returns the per-series capacity
func (t *Tracker) Capacity() int {
	return t.capacity
}

func (t *Tracker) getOrCreate(key Key) *Series {
	s, ok := t.series[key]
	if !ok {
		s = NewSeries(t.capacity)
		t.series[key] = s
	}
	return s
}
