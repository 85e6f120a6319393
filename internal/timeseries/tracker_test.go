package timeseries

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := NewTracker(3)
	heap := Key{Entity: "node:n1", Metric: MetricHeapPercent}
	disk := Key{Entity: "node:n1", Metric: MetricDiskPercent}

	tr.Observe(heap, at(0), 40)
	tr.Observe(heap, at(1), 41)
	tr.Observe(disk, at(1), 70)

	heapPoints, ok := tr.Points(heap)
	require.True(t, ok)
	assert.Len(t, heapPoints, 3)

	diskPoints, ok := tr.Points(disk)
	require.True(t, ok)
	assert.Len(t, diskPoints, 2)

	tr.Reset(heap)
	heapPoints, _ = tr.Points(heap)
	assert.Empty(t, heapPoints)
	diskPoints, _ = tr.Points(disk)
	assert.Len(t, diskPoints, 2)
}

func TestTracker_ObserveAll(t *testing.T) {
	tr := NewTracker(0)
	samples := map[Key]float64{
		{Entity: "index:logs", Metric: MetricDocsCount}:      100,
		{Entity: "index:logs", Metric: MetricStoreSizeBytes}: 2048,
	}

	assert.Equal(t, 2, tr.ObserveAll(at(0), samples))
	assert.Equal(t, 0, tr.ObserveAll(at(0), samples), "same tick twice")
	assert.Equal(t, 2, tr.ObserveAll(at(1), samples))
	assert.Equal(t, DefaultCapacity, tr.Capacity())
}

func TestTracker_SetResetKey(t *testing.T) {
	tr := NewTracker(5)
	k := Key{Entity: "node:n1", Metric: MetricShardCount}

	tr.SetResetKey(k, "a")
	tr.Observe(k, at(0), 3)
	tr.Observe(k, at(1), 4)

	assert.True(t, tr.SetResetKey(k, "b"))
	points, _ := tr.Points(k)
	assert.Empty(t, points)

	tr.Observe(k, at(2), 4)
	points, _ = tr.Points(k)
	assert.Equal(t, []Point{{Time: at(1), Value: 0}, {Time: at(2), Value: 4}}, points)
}

func TestTracker_ApplyResetKey(t *testing.T) {
	tr := NewTracker(5)
	k := Key{Entity: "node:n1", Metric: MetricHeapPercent}

	cleared, found := tr.ApplyResetKey(k, "a")
	assert.False(t, found)
	assert.False(t, cleared)
	assert.Equal(t, 0, tr.Len(), "unknown keys must not be created")

	tr.Observe(k, at(0), 10)
	cleared, found = tr.ApplyResetKey(k, "a")
	assert.True(t, found)
	assert.True(t, cleared)
	points, _ := tr.Points(k)
	assert.Empty(t, points)

	cleared, found = tr.ApplyResetKey(k, "a")
	assert.True(t, found)
	assert.False(t, cleared)
}

func TestTracker_KeysSortedAndPrune(t *testing.T) {
	tr := NewTracker(2)
	tr.Observe(Key{"node:b", MetricHeapPercent}, at(0), 1)
	tr.Observe(Key{"node:a", MetricShardCount}, at(0), 1)
	tr.Observe(Key{"node:a", MetricDiskPercent}, at(0), 1)

	assert.Equal(t, []Key{
		{"node:a", MetricDiskPercent},
		{"node:a", MetricShardCount},
		{"node:b", MetricHeapPercent},
	}, tr.Keys())

	removed := tr.Prune(func(k Key) bool { return k.Entity == "node:a" })
	assert.Equal(t, 1, removed)
	assert.Len(t, tr.Keys(), 2)

	_, ok := tr.Points(Key{"node:b", MetricHeapPercent})
	assert.False(t, ok)
}

func TestTracker_UnknownKey(t *testing.T) {
	tr := NewTracker(2)
	tr.Reset(Key{"x", "y"})

	_, ok := tr.Points(Key{"x", "y"})
	assert.False(t, ok)
	assert.Equal(t, "x/y", Key{"x", "y"}.String())
}

func TestTracker_ConcurrentObserve(t *testing.T) {
	tr := NewTracker(10)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			k := Key{Entity: fmt.Sprintf("node:%d", w), Metric: MetricHeapPercent}
			for i := 0; i < 100; i++ {
				tr.Observe(k, at(i), float64(i))
				tr.Points(k)
			}
		}(w)
	}
	wg.Wait()

	for _, k := range tr.Keys() {
		points, _ := tr.Points(k)
		assert.Len(t, points, 10)
	}
}

func TestEntityHelpers(t *testing.T) {
	tr := NewTracker(0)
	tr.Observe(Key{NodeEntity("n1"), MetricHeapPercent}, at(0), 1)
	tr.Observe(Key{IndexEntity("logs"), MetricDocsCount}, at(0), 1)

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, DefaultCapacity, tr.Capacity())
	assert.Equal(t, "node:n1/heap_percent", Key{NodeEntity("n1"), MetricHeapPercent}.String())
}
