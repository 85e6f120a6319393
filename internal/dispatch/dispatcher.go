package dispatch

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metrics"
	"github.com/soltixdb/clusterview/internal/utils"
)

// Command labels used in logs and metrics
const (
	CommandRelocate = "relocate"
	CommandIndex    = "index"
)

// Dispatcher turns approved operations into published commands. Every call
// publishes exactly one command and reports its own outcome.
type Dispatcher struct {
	publisher Publisher
	prefix    string
	cluster   string
	timeout   time.Duration
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// Options configures a Dispatcher
type Options struct {
	SubjectPrefix string
	Cluster       string
	Timeout       time.Duration
	Clock         clockwork.Clock
	Metrics       *metrics.Metrics
	Logger        *logging.Logger
}

// NewDispatcher creates a dispatcher on top of publisher
func NewDispatcher(publisher Publisher, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = utils.DispatchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Dispatcher{
		publisher: publisher,
		prefix:    opts.SubjectPrefix,
		cluster:   opts.Cluster,
		timeout:   opts.Timeout,
		clock:     opts.Clock,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With("component", "dispatch"),
	}
}

// Relocate publishes one relocation command
func (d *Dispatcher) Relocate(ctx context.Context, index string, shard int, from, to string) Result {
	cmd := newRelocationCommand(index, shard, from, to, d.clock.Now())
	return d.publish(ctx, CommandRelocate, RelocateSubject(d.prefix, d.cluster), cmd.ID, cmd)
}

// ApplyIndex publishes one index command for op
func (d *Dispatcher) ApplyIndex(ctx context.Context, op, index string) Result {
	cmd := newIndexCommand(op, index, d.clock.Now())
	return d.publish(ctx, CommandIndex+"_"+op, IndexSubject(d.prefix, d.cluster, op), cmd.ID, cmd)
}

func (d *Dispatcher) publish(ctx context.Context, label, subject, id string, cmd interface{}) Result {
	data, err := encode(cmd)
	if err != nil {
		return Result{Success: false, Message: err.Error(), CommandID: id}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := d.clock.Now()
	err = d.publisher.Publish(ctx, subject, data)
	d.metrics.ObserveDispatch(label, err == nil, d.clock.Since(start))

	if err != nil {
		d.logger.WithContext(ctx).Warn("Command dispatch failed",
			"command", label,
			"command_id", id,
			"subject", subject,
			"error", err)
		return Result{Success: false, Message: err.Error(), CommandID: id}
	}

	d.logger.WithContext(ctx).Info("Command dispatched",
		"command", label,
		"command_id", id,
		"subject", subject)
	return Result{Success: true, CommandID: id}
}

// Close closes the underlying publisher
func (d *Dispatcher) Close() error {
	return d.publisher.Close()
}
