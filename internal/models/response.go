package models

import "time"

// HealthResponse represents health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version"`
	SnapshotReady bool   `json:"snapshot_ready"`
	SnapshotSeq   uint64 `json:"snapshot_seq,omitempty"`
}

// TickResponse identifies the refresh a response was built from
type TickResponse struct {
	Seq   uint64    `json:"seq"`
	Scope string    `json:"scope,omitempty"`
	Time  time.Time `json:"time"`
}

// TopologyResponse represents the full topology snapshot
type TopologyResponse struct {
	Tick     TickResponse             `json:"tick"`
	Snapshot *ClusterTopologySnapshot `json:"snapshot"`
}

// TopologySummaryResponse represents aggregate counts over the snapshot
type TopologySummaryResponse struct {
	Tick    TickResponse    `json:"tick"`
	Summary TopologySummary `json:"summary"`
}

// NodeResponse represents one node and its shards
type NodeResponse struct {
	Tick       TickResponse  `json:"tick"`
	Node       *NodeTopology `json:"node"`
	ShardCount int           `json:"shard_count"`
}

// IndexListResponse represents list indices response
type IndexListResponse struct {
	Tick    TickResponse   `json:"tick"`
	Indices []IndexSummary `json:"indices"`
	Count   int            `json:"count"`
}

// TriggerRefreshResponse represents the tick produced by a manual refresh
type TriggerRefreshResponse struct {
	Tick TickResponse `json:"tick"`
}

// PointResponse is one time series sample
type PointResponse struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesResponse represents one series
type TimeSeriesResponse struct {
	Entity   string          `json:"entity"`
	Metric   string          `json:"metric"`
	Capacity int             `json:"capacity"`
	Points   []PointResponse `json:"points"`
}

// SeriesKeyResponse names one tracked series
type SeriesKeyResponse struct {
	Entity string `json:"entity"`
	Metric string `json:"metric"`
}

// SeriesListResponse represents the list of tracked series
type SeriesListResponse struct {
	Series []SeriesKeyResponse `json:"series"`
}

// ResetSeriesResponse reports whether a reset cleared the series
type ResetSeriesResponse struct {
	Cleared bool `json:"cleared"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
