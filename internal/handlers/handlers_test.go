package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/admission"
	"github.com/soltixdb/clusterview/internal/dispatch"
	"github.com/soltixdb/clusterview/internal/fetch"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metadata"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/refresh"
	"github.com/soltixdb/clusterview/internal/services"
	"github.com/soltixdb/clusterview/internal/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	data *fetch.ClusterData
}

func (s *staticSource) Fetch(context.Context) (*fetch.ClusterData, error) {
	return s.data, nil
}

type stubExecutor struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []string
}

func (e *stubExecutor) Relocate(_ context.Context, index string, shard int, from, to string) dispatch.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, "relocate:"+index)
	return dispatch.Result{Success: true, CommandID: "cmd-1"}
}

func (e *stubExecutor) ApplyIndex(_ context.Context, op, index string) dispatch.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, op+":"+index)
	if e.fail[index] {
		return dispatch.Result{Success: false, Message: "publish failed"}
	}
	return dispatch.Result{Success: true, CommandID: "cmd-" + index}
}

func handlerCluster() *fetch.ClusterData {
	return &fetch.ClusterData{
		Nodes: []models.NodeRecord{
			{ID: "n1", Name: "node-1", Roles: []models.NodeRole{models.RoleData, models.RoleMaster}, HeapUsed: 50, HeapMax: 100},
			{ID: "n2", Name: "node-2", Roles: []models.NodeRole{models.RoleData}},
			{ID: "n4", Name: "node-4", Roles: []models.NodeRole{models.RoleData}},
		},
		Shards: []models.ShardRecord{
			{Index: "logs", ShardID: 0, Primary: true, State: models.ShardStarted, Node: "n1"},
			{Index: "logs", ShardID: 0, Primary: false, State: models.ShardStarted, Node: "n2"},
			{Index: "metrics", ShardID: 0, Primary: true, State: models.ShardStarted, Node: "n2"},
		},
		Indices: []models.IndexSummary{
			{Name: "logs", Status: models.IndexOpen, PrimaryShardCount: 1, ReplicaShardCount: 1, DocsCount: 10},
			{Name: "metrics", Status: models.IndexClosed, PrimaryShardCount: 1},
		},
	}
}

type handlerFixture struct {
	app      *fiber.App
	cluster  *services.ClusterService
	clock    *refresh.Clock
	store    *metadata.MemoryStore
	executor *stubExecutor
	fake     *clockwork.FakeClock
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		store:    metadata.NewMemoryStore(),
		executor: &stubExecutor{fail: map[string]bool{}},
		fake:     clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	logger := logging.NewNop()

	f.cluster = services.NewClusterService(services.ClusterServiceOptions{
		Source:   &staticSource{data: handlerCluster()},
		Executor: f.executor,
		Tracker:  timeseries.NewTracker(4),
		Clock:    f.fake,
		Logger:   logger,
	})
	t.Cleanup(f.cluster.Close)

	f.clock = refresh.New(refresh.Options{
		Interval: 30 * time.Second,
		Clock:    f.fake,
		Store:    f.store,
		Logger:   logger,
	})

	h := New(logger, f.cluster, f.clock)
	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/v1/topology", h.GetTopology)
	app.Get("/v1/topology/summary", h.GetTopologySummary)
	app.Get("/v1/nodes/:node_id", h.GetNode)
	app.Get("/v1/indices", h.ListIndices)
	app.Post("/v1/indices/bulk", h.BulkOperation)
	app.Post("/v1/shards/relocate", h.RelocateShard)
	app.Get("/v1/refresh", h.GetRefreshStatus)
	app.Post("/v1/refresh", h.TriggerRefresh)
	app.Put("/v1/refresh/interval", h.SetRefreshInterval)
	app.Get("/v1/timeseries", h.GetTimeSeries)
	app.Post("/v1/timeseries/reset", h.ResetTimeSeries)
	app.Use(h.NotFound)
	f.app = app
	return f
}

func (f *handlerFixture) refreshed(t *testing.T) {
	t.Helper()
	_, err := f.cluster.Refresh(context.Background(), refresh.Tick{Seq: 1, Time: f.fake.Now()})
	require.NoError(t, err)
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// statusBody mirrors refresh.Status on the wire
type statusBody struct {
	State       string       `json:"state"`
	IntervalMs  int64        `json:"interval_ms"`
	LastRefresh refresh.Tick `json:"last_refresh"`
}

func decodeError(t *testing.T, data []byte) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	f := setupHandler(t)

	status, body := doRequest(t, f.app, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, Version, resp.Version)
	assert.False(t, resp.SnapshotReady)

	f.refreshed(t)
	_, body = doRequest(t, f.app, "GET", "/health", nil)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.SnapshotReady)
	assert.Equal(t, uint64(1), resp.SnapshotSeq)
}

func TestNotFound(t *testing.T) {
	f := setupHandler(t)

	status, body := doRequest(t, f.app, "GET", "/v1/nothing", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	detail := decodeError(t, body)
	assert.Equal(t, "NOT_FOUND", detail.Code)
	assert.Equal(t, "/v1/nothing", detail.Path)
}

func TestTopology_NoSnapshot(t *testing.T) {
	f := setupHandler(t)

	for _, path := range []string{"/v1/topology", "/v1/topology/summary", "/v1/indices"} {
		status, body := doRequest(t, f.app, "GET", path, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, status, path)
		assert.Equal(t, services.CodeSnapshotUnavailable, decodeError(t, body).Code, path)
	}
}

func TestGetTopology(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "GET", "/v1/topology", nil)
	require.Equal(t, fiber.StatusOK, status)

	var resp models.TopologyResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, uint64(1), resp.Tick.Seq)
	require.NotNil(t, resp.Snapshot)
	assert.Len(t, resp.Snapshot.Nodes, 3)
	assert.Len(t, resp.Snapshot.Indices, 2)
}

func TestGetTopologySummary(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "GET", "/v1/topology/summary", nil)
	require.Equal(t, fiber.StatusOK, status)

	var resp models.TopologySummaryResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 3, resp.Summary.Nodes)
	assert.Equal(t, 3, resp.Summary.DataNodes)
	assert.Equal(t, 2, resp.Summary.Indices)
	assert.Equal(t, 1, resp.Summary.OpenIndices)
	assert.Equal(t, 3, resp.Summary.Shards)
}

func TestGetNode(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "GET", "/v1/nodes/n2", nil)
	require.Equal(t, fiber.StatusOK, status)
	var resp models.NodeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "n2", resp.Node.ID)
	assert.Equal(t, 2, resp.ShardCount)

	status, body = doRequest(t, f.app, "GET", "/v1/nodes/n9", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, services.CodeNodeNotFound, decodeError(t, body).Code)
}

func TestListIndices(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	tests := []struct {
		query string
		names []string
	}{
		{"", []string{"logs", "metrics"}},
		{"?status=open", []string{"logs"}},
		{"?status=close", []string{"metrics"}},
	}
	for _, tt := range tests {
		t.Run("filter"+tt.query, func(t *testing.T) {
			status, body := doRequest(t, f.app, "GET", "/v1/indices"+tt.query, nil)
			require.Equal(t, fiber.StatusOK, status)

			var resp models.IndexListResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, len(tt.names), resp.Count)
			var names []string
			for _, idx := range resp.Indices {
				names = append(names, idx.Name)
			}
			assert.ElementsMatch(t, tt.names, names)
		})
	}

	status, body := doRequest(t, f.app, "GET", "/v1/indices?status=frozen", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", decodeError(t, body).Code)
}

func TestRelocateShard(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	shard := 0
	status, body := doRequest(t, f.app, "POST", "/v1/shards/relocate", models.RelocateShardRequest{
		Index: "logs", Shard: &shard, SourceNode: "n1", DestNode: "n4",
	})
	require.Equal(t, fiber.StatusOK, status)
	var approved services.RelocationOutcome
	require.NoError(t, json.Unmarshal(body, &approved))
	assert.True(t, approved.Admission.Approved)
	require.NotNil(t, approved.Dispatch)
	assert.True(t, approved.Dispatch.Success)
	assert.Equal(t, []string{"relocate:logs"}, f.executor.sent)

	status, body = doRequest(t, f.app, "POST", "/v1/shards/relocate", models.RelocateShardRequest{
		Index: "logs", Shard: &shard, SourceNode: "n1", DestNode: "n2",
	})
	require.Equal(t, fiber.StatusOK, status)
	var rejected services.RelocationOutcome
	require.NoError(t, json.Unmarshal(body, &rejected))
	assert.False(t, rejected.Admission.Approved)
	assert.Equal(t, admission.ReasonDuplicateOnDestination, rejected.Admission.Reason)
	assert.Nil(t, rejected.Dispatch)
	assert.Len(t, f.executor.sent, 1)
}

func TestRelocateShard_InvalidRequest(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "POST", "/v1/shards/relocate", models.RelocateShardRequest{Index: "logs"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, body).Code)

	req := httptest.NewRequest("POST", "/v1/shards/relocate", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBulkOperation(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "POST", "/v1/indices/bulk", models.BulkOperationRequest{
		Operation: "close", Indices: []string{"logs", "metrics"},
	})
	require.Equal(t, fiber.StatusOK, status)
	var out services.BulkOutcome
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"logs"}, out.Approved)
	assert.Equal(t, admission.ReasonAlreadyClosed, out.Rejected["metrics"])
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 0, out.Failed)
}

func TestBulkOperation_PartialFailure(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)
	f.executor.fail["metrics"] = true

	status, body := doRequest(t, f.app, "POST", "/v1/indices/bulk", models.BulkOperationRequest{
		Operation: "open", Indices: []string{"metrics"},
	})
	require.Equal(t, fiber.StatusMultiStatus, status)
	var out services.BulkOutcome
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Dispatched, 1)
	assert.Equal(t, "publish failed", out.Dispatched[0].Result.Message)
}

func TestBulkOperation_UnknownOperation(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "POST", "/v1/indices/bulk", models.BulkOperationRequest{
		Operation: "shrink", Indices: []string{"logs"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.CodeUnknownOperation, decodeError(t, body).Code)
}

func TestTriggerRefresh(t *testing.T) {
	f := setupHandler(t)

	status, body := doRequest(t, f.app, "POST", "/v1/refresh", models.TriggerRefreshRequest{Scope: "shards"})
	require.Equal(t, fiber.StatusAccepted, status)
	var resp models.TriggerRefreshResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, uint64(1), resp.Tick.Seq)
	assert.Equal(t, "shards", resp.Tick.Scope)

	status, body = doRequest(t, f.app, "POST", "/v1/refresh?scope=everything", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidScope, decodeError(t, body).Code)

	status, body = doRequest(t, f.app, "GET", "/v1/refresh", nil)
	require.Equal(t, fiber.StatusOK, status)
	var st statusBody
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, uint64(1), st.LastRefresh.Seq)
	assert.Equal(t, int64(30000), st.IntervalMs)
	assert.Equal(t, "refreshing", st.State)
}

func TestSetRefreshInterval(t *testing.T) {
	f := setupHandler(t)

	ms := int64(5000)
	status, body := doRequest(t, f.app, "PUT", "/v1/refresh/interval", models.SetIntervalRequest{IntervalMs: &ms})
	require.Equal(t, fiber.StatusOK, status)
	var st statusBody
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, int64(5000), st.IntervalMs)

	stored, err := f.store.Get(context.Background(), refresh.DefaultIntervalKey)
	require.NoError(t, err)
	assert.Equal(t, "5000", stored)

	tooLong := int64((2 * time.Hour).Milliseconds())
	status, body = doRequest(t, f.app, "PUT", "/v1/refresh/interval", models.SetIntervalRequest{IntervalMs: &tooLong})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidInterval, decodeError(t, body).Code)

	// Values whose nanosecond form wraps around must still be rejected
	for _, ms := range []int64{18446744073710, math.MaxInt64, -1} {
		status, body = doRequest(t, f.app, "PUT", "/v1/refresh/interval", models.SetIntervalRequest{IntervalMs: &ms})
		assert.Equal(t, fiber.StatusBadRequest, status, "interval_ms=%d", ms)
		assert.Equal(t, services.CodeInvalidInterval, decodeError(t, body).Code)
	}
	assert.Equal(t, 5*time.Second, f.clock.Status().Interval)
	stored, err = f.store.Get(context.Background(), refresh.DefaultIntervalKey)
	require.NoError(t, err)
	assert.Equal(t, "5000", stored)

	status, body = doRequest(t, f.app, "PUT", "/v1/refresh/interval", models.SetIntervalRequest{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidRequest, decodeError(t, body).Code)
}

func TestTimeSeries(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	status, body := doRequest(t, f.app, "GET", "/v1/timeseries", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list models.SeriesListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Contains(t, list.Series, models.SeriesKeyResponse{
		Entity: timeseries.NodeEntity("n1"), Metric: timeseries.MetricHeapPercent,
	})

	status, body = doRequest(t, f.app, "GET", "/v1/timeseries?entity=node:n1&metric=heap_percent", nil)
	require.Equal(t, fiber.StatusOK, status)
	var series models.TimeSeriesResponse
	require.NoError(t, json.Unmarshal(body, &series))
	assert.Equal(t, 4, series.Capacity)
	// First observation seeds a zero baseline one second earlier
	require.Len(t, series.Points, 2)
	assert.Equal(t, 0.0, series.Points[0].Value)
	assert.InDelta(t, 50.0, series.Points[1].Value, 0.001)
	assert.True(t, series.Points[0].Time.Before(series.Points[1].Time))

	status, body = doRequest(t, f.app, "GET", "/v1/timeseries?entity=node:n1", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidRequest, decodeError(t, body).Code)

	status, body = doRequest(t, f.app, "GET", "/v1/timeseries?entity=node:n9&metric=heap_percent", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, services.CodeSeriesNotFound, decodeError(t, body).Code)
}

func TestResetTimeSeries(t *testing.T) {
	f := setupHandler(t)
	f.refreshed(t)

	reset := models.ResetSeriesRequest{Entity: "node:n1", Metric: "heap_percent", ResetKey: "epoch-2"}
	status, body := doRequest(t, f.app, "POST", "/v1/timeseries/reset", reset)
	require.Equal(t, fiber.StatusOK, status)
	var resp models.ResetSeriesResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Cleared)

	points, err := f.cluster.Series(timeseries.Key{Entity: "node:n1", Metric: "heap_percent"})
	require.NoError(t, err)
	assert.Empty(t, points)

	// Same key again is a no-op
	_, body = doRequest(t, f.app, "POST", "/v1/timeseries/reset", reset)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Cleared)

	status, _ = doRequest(t, f.app, "POST", "/v1/timeseries/reset", models.ResetSeriesRequest{Entity: "node:n1"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doRequest(t, f.app, "POST", "/v1/timeseries/reset",
		models.ResetSeriesRequest{Entity: "node:ghost", Metric: "heap_percent", ResetKey: "x"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, services.CodeSeriesNotFound, decodeError(t, body).Code)

	status, _ = doRequest(t, f.app, "GET", "/v1/timeseries?entity=node:ghost&metric=heap_percent", nil)
	assert.Equal(t, fiber.StatusNotFound, status, "a rejected reset must not create the series")
}
