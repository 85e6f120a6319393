// Package timeseries keeps small bounded sample buffers per (entity, metric),
// advanced by refresh ticks.
package timeseries

import "time"

const (
	// DefaultCapacity is the number of points a series keeps
	DefaultCapacity = 20

	// BaselineOffset is how far before the first real point the synthetic
	// zero baseline is placed
	BaselineOffset = time.Second
)

// Point is one sample
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is a capacity-bounded sequence of points in strictly ascending time
// order. A Series is not safe for concurrent use; Tracker serializes access.
type Series struct {
	capacity int
	points   []Point
	resetKey string
}

// NewSeries creates an empty series. A non-positive capacity selects
// DefaultCapacity.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		capacity: capacity,
		points:   make([]Point, 0, capacity+1),
	}
}

// Observe records value at tick time now. The first observation seeds a
// zero baseline one second earlier followed by the real point. Later
// observations append unconditionally when now is strictly newer than the
// last point; older or equal ticks are ignored. Returns whether a point was
// recorded.
func (s *Series) Observe(now time.Time, value float64) bool {
	if len(s.points) == 0 {
		s.points = append(s.points,
			Point{Time: now.Add(-BaselineOffset), Value: 0},
			Point{Time: now, Value: value},
		)
		s.trim()
		return true
	}

	if !now.After(s.points[len(s.points)-1].Time) {
		return false
	}
	s.points = append(s.points, Point{Time: now, Value: value})
	s.trim()
	return true
}

// SetResetKey clears the series when key differs from the current reset key.
// The next observation then reseeds the baseline. Returns whether the series
// was cleared.
func (s *Series) SetResetKey(key string) bool {
	if key == s.resetKey {
		return false
	}
	s.resetKey = key
	s.Reset()
	return true
}

// ResetKey returns the current reset key
func (s *Series) ResetKey() string {
	return s.resetKey
}

// Reset drops every point
func (s *Series) Reset() {
	s.points = s.points[:0]
}

// Points returns a copy of the buffered points, oldest first
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of buffered points
func (s *Series) Len() int {
	return len(s.points)
}

// Capacity returns the maximum number of points kept
func (s *Series) Capacity() int {
	return s.capacity
}

// Latest returns the newest point
func (s *Series) Latest() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// trim drops the oldest points beyond capacity
func (s *Series) trim() {
	if excess := len(s.points) - s.capacity; excess > 0 {
		s.points = append(s.points[:0], s.points[excess:]...)
	}
}
