package models

// RelocateShardRequest represents a shard relocation request
type RelocateShardRequest struct {
	Index      string `json:"index"`
	Shard      *int   `json:"shard"`
	SourceNode string `json:"source_node"`
	DestNode   string `json:"dest_node"`
}

// BulkOperationRequest represents a bulk index operation request
type BulkOperationRequest struct {
	Operation string   `json:"operation"`
	Indices   []string `json:"indices"`
}

// TriggerRefreshRequest represents a manual refresh request. An empty scope
// invalidates everything.
type TriggerRefreshRequest struct {
	Scope string `json:"scope,omitempty"`
}

// SetIntervalRequest represents a refresh interval change. Zero disables
// scheduled refreshes.
type SetIntervalRequest struct {
	IntervalMs *int64 `json:"interval_ms"`
}

// ResetSeriesRequest applies an external reset key to one series
type ResetSeriesRequest struct {
	Entity   string `json:"entity"`
	Metric   string `json:"metric"`
	ResetKey string `json:"reset_key"`
}
