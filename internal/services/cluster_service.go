package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/admission"
	"github.com/soltixdb/clusterview/internal/dispatch"
	"github.com/soltixdb/clusterview/internal/fetch"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metrics"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/refresh"
	"github.com/soltixdb/clusterview/internal/timeseries"
	"github.com/soltixdb/clusterview/internal/topology"
)

// CommandExecutor performs approved operations against the cluster. Each call
// issues exactly one command and reports its own outcome.
type CommandExecutor interface {
	Relocate(ctx context.Context, index string, shard int, from, to string) dispatch.Result
	ApplyIndex(ctx context.Context, op, index string) dispatch.Result
}

// view is the unit of atomic replacement: a snapshot and the tick it was
// built for always move together.
type view struct {
	snapshot *models.ClusterTopologySnapshot
	tick     refresh.Tick
}

// ClusterService owns the current topology snapshot and routes operator
// requests through admission control before dispatching them.
type ClusterService struct {
	source   fetch.Source
	executor CommandExecutor
	tracker  *timeseries.Tracker
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	logger   *logging.Logger

	current atomic.Pointer[view]

	mu       sync.Mutex
	gen      uint64
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
}

// ClusterServiceOptions configures a ClusterService
type ClusterServiceOptions struct {
	Source   fetch.Source
	Executor CommandExecutor
	Tracker  *timeseries.Tracker
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
	Logger   *logging.Logger
}

// NewClusterService creates a new ClusterService
func NewClusterService(opts ClusterServiceOptions) *ClusterService {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Tracker == nil {
		opts.Tracker = timeseries.NewTracker(timeseries.DefaultCapacity)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &ClusterService{
		source:   opts.Source,
		executor: opts.Executor,
		tracker:  opts.Tracker,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		logger:   opts.Logger.With("component", "cluster_service"),
	}
}

// Current returns the last complete snapshot and the tick it belongs to
func (s *ClusterService) Current() (*models.ClusterTopologySnapshot, refresh.Tick, bool) {
	v := s.current.Load()
	if v == nil {
		return nil, refresh.Tick{}, false
	}
	return v.snapshot, v.tick, true
}

// OnTick is a refresh.Listener. It starts a refresh in the background; a
// refresh already in flight is cancelled and superseded.
func (s *ClusterService) OnTick(tick refresh.Tick) {
	s.metrics.ObserveTick(tick.Scope)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Refresh(context.Background(), tick); err != nil && !errors.Is(err, ErrRefreshSuperseded) {
			s.logger.Error("Topology refresh failed", "seq", tick.Seq, "error", err)
		}
	}()
}

// Refresh fetches cluster state, builds a snapshot and installs it for tick.
// Starting a refresh cancels any refresh still in flight; the older one then
// returns ErrRefreshSuperseded and never installs its result. On fetch
// failure the previous snapshot stays current.
func (s *ClusterService) Refresh(ctx context.Context, tick refresh.Tick) (*models.ClusterTopologySnapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.gen++
	gen := s.gen
	s.cancelFn = cancel
	s.mu.Unlock()

	start := s.clock.Now()
	data, err := s.source.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.staleLocked(tick) {
		s.metrics.ObserveRefresh(metrics.OutcomeSuperseded, 0)
		return nil, ErrRefreshSuperseded
	}
	s.cancelFn = nil

	if err != nil {
		s.metrics.ObserveRefresh(metrics.OutcomeFailure, 0)
		return nil, &CollaboratorError{Op: "fetch", Err: err}
	}

	snap := topology.Build(data.Nodes, data.Shards, data.Indices)
	s.current.Store(&view{snapshot: snap, tick: tick})

	summary := snap.Summary()
	s.metrics.ObserveRefresh(metrics.OutcomeSuccess, s.clock.Since(start))
	s.metrics.SetSnapshot(summary, tick.Time)

	recorded := s.sample(snap, tick)
	s.metrics.SetTrackedSeries(s.tracker.Len())

	s.logger.Info("Topology refreshed",
		"seq", tick.Seq,
		"scope", tick.Scope,
		"nodes", summary.Nodes,
		"shards", summary.Shards,
		"unknown_node_shards", summary.UnknownShards,
		"unassigned", summary.Unassigned,
		"points", recorded)

	return snap, nil
}

// staleLocked reports whether a snapshot for a newer tick is already current
func (s *ClusterService) staleLocked(tick refresh.Tick) bool {
	v := s.current.Load()
	return v != nil && v.tick.Seq > tick.Seq
}

// sample records node and index metrics at the tick time and drops series
// whose entity no longer exists
func (s *ClusterService) sample(snap *models.ClusterTopologySnapshot, tick refresh.Tick) int {
	samples := make(map[timeseries.Key]float64, len(snap.Nodes)*3+len(snap.Indices)*2)
	entities := make(map[string]struct{}, len(snap.Nodes)+len(snap.Indices))

	for _, n := range snap.Nodes {
		entity := timeseries.NodeEntity(n.ID)
		entities[entity] = struct{}{}
		samples[timeseries.Key{Entity: entity, Metric: timeseries.MetricHeapPercent}] = n.HeapPercent()
		samples[timeseries.Key{Entity: entity, Metric: timeseries.MetricDiskPercent}] = n.DiskPercent()
		samples[timeseries.Key{Entity: entity, Metric: timeseries.MetricShardCount}] = float64(n.ShardCount())
	}
	for _, idx := range snap.Indices {
		entity := timeseries.IndexEntity(idx.Name)
		entities[entity] = struct{}{}
		samples[timeseries.Key{Entity: entity, Metric: timeseries.MetricDocsCount}] = float64(idx.DocsCount)
		samples[timeseries.Key{Entity: entity, Metric: timeseries.MetricStoreSizeBytes}] = float64(idx.StoreSizeBytes)
	}

	recorded := s.tracker.ObserveAll(tick.Time, samples)
	s.tracker.Prune(func(k timeseries.Key) bool {
		_, ok := entities[k.Entity]
		return ok
	})
	return recorded
}

// Close cancels an in-flight refresh and waits for background refreshes
func (s *ClusterService) Close() {
	s.mu.Lock()
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Node returns one node's topology from the current snapshot
func (s *ClusterService) Node(id string) (*models.NodeTopology, error) {
	snap, _, ok := s.Current()
	if !ok {
		return nil, ErrNoSnapshot
	}
	if id == models.UnknownNodeID {
		return &snap.UnknownNode, nil
	}
	node, found := snap.Node(id)
	if !found {
		return nil, NewServiceErrorWithDetails(CodeNodeNotFound, fmt.Sprintf("node %s not found", id),
			map[string]interface{}{"node_id": id})
	}
	return node, nil
}

// RelocationRequest asks to move one shard copy between nodes
type RelocationRequest struct {
	Index      string
	Shard      int
	SourceNode string
	DestNode   string
}

// RelocationOutcome is the admission decision and, when approved, the
// dispatch result
type RelocationOutcome struct {
	Admission admission.Result `json:"admission"`
	Dispatch  *dispatch.Result `json:"dispatch,omitempty"`
	Tick      refresh.Tick     `json:"tick"`
}

// RelocateShard validates a relocation against the current snapshot and
// dispatches exactly one command when it is approved
func (s *ClusterService) RelocateShard(ctx context.Context, req RelocationRequest) (*RelocationOutcome, error) {
	snap, tick, ok := s.Current()
	if !ok {
		return nil, ErrNoSnapshot
	}

	shard := resolveShard(snap, req.Index, req.Shard, req.SourceNode)
	result := admission.ValidateRelocation(shard, req.SourceNode, req.DestNode, snap)
	s.metrics.ObserveAdmission("relocate", result.Approved, string(result.Reason))

	outcome := &RelocationOutcome{Admission: result, Tick: tick}
	if !result.Approved {
		logging.FromContext(ctx).WithContext(ctx).Info("Relocation rejected",
			"index", req.Index,
			"shard", req.Shard,
			"source", req.SourceNode,
			"dest", req.DestNode,
			"reason", result.Reason)
		return outcome, nil
	}

	res := s.executor.Relocate(ctx, shard.Index, shard.ShardID, req.SourceNode, req.DestNode)
	outcome.Dispatch = &res
	return outcome, nil
}

// resolveShard finds the copy the request refers to. When the source node is
// known its own copy counts, falling back to an unassigned copy which lives on
// no node; otherwise any copy with the same identity is returned so the
// validator can report why it cannot move.
func resolveShard(snap *models.ClusterTopologySnapshot, index string, shardID int, source string) *models.ShardRecord {
	if node, ok := snap.Node(source); ok {
		if sh, found := node.Shard(index, shardID); found {
			return &sh
		}
		return unassignedShard(snap, index, shardID)
	}

	for _, n := range snap.Nodes {
		if sh, found := n.Shard(index, shardID); found {
			return &sh
		}
	}
	if sh, found := snap.UnknownNode.Shard(index, shardID); found {
		return &sh
	}
	return unassignedShard(snap, index, shardID)
}

func unassignedShard(snap *models.ClusterTopologySnapshot, index string, shardID int) *models.ShardRecord {
	for _, sh := range snap.Unassigned {
		if sh.Index == index && sh.ShardID == shardID {
			sh := sh
			return &sh
		}
	}
	return nil
}

// BulkItem is the dispatch result for one approved index
type BulkItem struct {
	Index  string          `json:"index"`
	Result dispatch.Result `json:"result"`
}

// BulkOutcome reports the admission partition and per-item dispatch results
type BulkOutcome struct {
	Operation  admission.Operation         `json:"operation"`
	Approved   []string                    `json:"approved"`
	Rejected   map[string]admission.Reason `json:"rejected"`
	Dispatched []BulkItem                  `json:"dispatched"`
	Succeeded  int                         `json:"succeeded"`
	Failed     int                         `json:"failed"`
	Tick       refresh.Tick                `json:"tick"`
}

// ApplyBulk validates op for every name and dispatches one independent
// command per approved index. A failed dispatch never stops the rest.
func (s *ClusterService) ApplyBulk(ctx context.Context, opName string, names []string) (*BulkOutcome, error) {
	op, err := admission.ParseOperation(opName)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeUnknownOperation, err.Error(),
			map[string]interface{}{"operation": opName, "supported": operationNames()})
	}
	snap, tick, ok := s.Current()
	if !ok {
		return nil, ErrNoSnapshot
	}

	partition := admission.ValidateBulk(op, names, snap.Indices)
	for range partition.Approved {
		s.metrics.ObserveAdmission(string(op), true, "")
	}
	for _, reason := range partition.Rejected {
		s.metrics.ObserveAdmission(string(op), false, string(reason))
	}

	outcome := &BulkOutcome{
		Operation:  op,
		Approved:   partition.Approved,
		Rejected:   partition.Rejected,
		Dispatched: make([]BulkItem, 0, len(partition.Approved)),
		Tick:       tick,
	}

	for _, name := range partition.Approved {
		res := s.executor.ApplyIndex(ctx, string(op), name)
		outcome.Dispatched = append(outcome.Dispatched, BulkItem{Index: name, Result: res})
		if res.Success {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}

	logging.FromContext(ctx).WithContext(ctx).Info("Bulk operation processed",
		"operation", op,
		"selected", len(names),
		"approved", len(partition.Approved),
		"rejected", len(partition.Rejected),
		"failed", outcome.Failed)

	return outcome, nil
}

func operationNames() string {
	names := make([]string, len(admission.Operations))
	for i, op := range admission.Operations {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

// Series returns the points of one tracked series
func (s *ClusterService) Series(key timeseries.Key) ([]timeseries.Point, error) {
	points, ok := s.tracker.Points(key)
	if !ok {
		return nil, NewServiceErrorWithDetails(CodeSeriesNotFound, fmt.Sprintf("series %s not found", key),
			map[string]interface{}{"entity": key.Entity, "metric": key.Metric})
	}
	return points, nil
}

// SeriesKeys lists every tracked series
func (s *ClusterService) SeriesKeys() []timeseries.Key {
	return s.tracker.Keys()
}

// ResetSeries applies an external reset key to one tracked series and
// reports whether it was cleared. Untracked keys are a SERIES_NOT_FOUND error.
func (s *ClusterService) ResetSeries(key timeseries.Key, resetKey string) (bool, error) {
	cleared, found := s.tracker.ApplyResetKey(key, resetKey)
	if !found {
		return false, NewServiceErrorWithDetails(CodeSeriesNotFound, fmt.Sprintf("series %s not found", key),
			map[string]interface{}{"entity": key.Entity, "metric": key.Metric})
	}
	return cleared, nil
}

// SeriesCapacity returns the per-series point capacity
func (s *ClusterService) SeriesCapacity() int {
	return s.tracker.Capacity()
}
