package purge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/metrics"
)

// SystemOwner owns purges started by the server itself rather than a player.
const SystemOwner = "system"

// DefaultChunkSize is the primary-key window used when none is configured.
const DefaultChunkSize = 1000

// ErrBusy means the owner already has a purge running.
var ErrBusy = errors.New("purge already running")

// Deleter is the storage the cycler drives.
type Deleter interface {
	ActivitiesPKBounds(ctx context.Context, q activity.Query) (int64, int64, error)
	DeleteActivities(ctx context.Context, q activity.Query, low, high int64) (int64, error)
}

// Progress describes one completed chunk.
type Progress struct {
	Cycle   int   `json:"cycle"`
	Low     int64 `json:"low"`
	High    int64 `json:"high"`
	Deleted int64 `json:"deleted"`
	Total   int64 `json:"total"`
}

// Result is the cumulative outcome of a purge. It is valid even when
// PurgeInChunks returns an error.
type Result struct {
	Deleted int64 `json:"deleted"`
	Cycles  int   `json:"cycles"`
}

// Cycler runs chunked purges. Safe for concurrent use.
type Cycler struct {
	store   Deleter
	delay   time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// Option customizes a Cycler.
type Option func(*Cycler)

// WithCycleDelay pauses between chunks.
func WithCycleDelay(d time.Duration) Option {
	return func(c *Cycler) { c.delay = d }
}

// WithMetrics records deleted rows and chunk counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cycler) { c.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cycler) { c.logger = l }
}

// NewCycler creates a cycler deleting through store.
func NewCycler(store Deleter, opts ...Option) *Cycler {
	c := &Cycler{
		store:   store,
		logger:  slog.Default(),
		running: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether owner has a purge in flight.
func (c *Cycler) Busy(owner string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running[owner]
}

func (c *Cycler) acquire(owner string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[owner] {
		return false
	}
	c.running[owner] = true
	return true
}

func (c *Cycler) release(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, owner)
}

// PurgeInChunks deletes every activity matching q that exists when the
// cycle starts. Bounds are read once; rows inserted above the observed
// maximum during the cycle are left alone.
//
// onCycle, when non-nil, is called after each chunk from the calling
// goroutine.
func (c *Cycler) PurgeInChunks(ctx context.Context, owner string, q activity.Query, chunkSize int64, onCycle func(Progress)) (Result, error) {
	if chunkSize <= 0 {
		return Result{}, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	if !c.acquire(owner) {
		return Result{}, fmt.Errorf("%w for %s", ErrBusy, owner)
	}
	defer c.release(owner)

	var res Result
	minID, maxID, err := c.store.ActivitiesPKBounds(ctx, q)
	if err != nil {
		return res, fmt.Errorf("purge bounds: %w", err)
	}
	if minID == 0 && maxID == 0 {
		c.logger.Info("purge found nothing to delete", "owner", owner)
		return res, nil
	}

	c.logger.Info("purge starting",
		"owner", owner,
		"min_id", minID,
		"max_id", maxID,
		"chunk_size", chunkSize,
	)

	for low := minID; low <= maxID; {
		if err := ctx.Err(); err != nil {
			c.stopped(owner, res, err)
			return res, fmt.Errorf("purge cancelled: %w", err)
		}

		high := maxID
		if maxID-low >= chunkSize {
			high = low + chunkSize - 1
		}

		n, err := c.store.DeleteActivities(ctx, q, low, high)
		if err != nil {
			c.stopped(owner, res, err)
			return res, fmt.Errorf("purge chunk [%d, %d]: %w", low, high, err)
		}
		res.Deleted += n
		res.Cycles++
		c.metrics.PurgeCycle(n)

		if onCycle != nil {
			onCycle(Progress{Cycle: res.Cycles, Low: low, High: high, Deleted: n, Total: res.Deleted})
		}
		if high == maxID {
			break
		}
		low = high + 1

		if c.delay > 0 {
			select {
			case <-ctx.Done():
				c.stopped(owner, res, ctx.Err())
				return res, fmt.Errorf("purge cancelled: %w", ctx.Err())
			case <-time.After(c.delay):
			}
		}
	}

	c.logger.Info("purge finished",
		"owner", owner,
		"deleted", res.Deleted,
		"cycles", res.Cycles,
	)
	return res, nil
}

func (c *Cycler) stopped(owner string, res Result, err error) {
	c.logger.Warn("purge stopped early",
		"owner", owner,
		"deleted", res.Deleted,
		"cycles", res.Cycles,
		"error", err,
	)
}
