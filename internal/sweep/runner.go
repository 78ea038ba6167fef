// ABOUTME: Run controller for a sweep: subscribes the sweeper to the stream
// ABOUTME: and ends the run at a fixed deadline, its sole terminator.

package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/mesh"
)

// DefaultWindow is how long a sweep runs when no window is configured.
const DefaultWindow = 30 * time.Second

// RunConfig bounds one sweep run.
type RunConfig struct {
	// Collection is the collection to stream. Empty means papers.
	Collection string

	// Window is the fixed run length. Zero means DefaultWindow.
	Window time.Duration
}

// Runner drives one sweep: it subscribes the sweeper to the collection,
// waits out the window, then reports the final match count. A run moves
// RUNNING to STOPPED exactly once; runners are not reused.
type Runner struct {
	cfg     RunConfig
	store   mesh.Store
	sweeper *Sweeper
	clk     clock.Clock
	logger  *slog.Logger
}

// NewRunner creates a runner. Pass clock.WallClock outside tests.
func NewRunner(cfg RunConfig, store mesh.Store, sw *Sweeper, clk clock.Clock, logger *slog.Logger) *Runner {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Runner{
		cfg:     cfg,
		store:   store,
		sweeper: sw,
		clk:     clk,
		logger:  logger,
	}
}

// Run executes the sweep and returns the final match count. The deadline
// (or ctx cancellation) is the only thing that ends a run: there is no
// early exit on a match count and no quiesce detection. A failed
// subscription is logged and the run still waits out the window, reporting
// whatever was counted. Zero matches is a normal outcome.
func (r *Runner) Run(ctx context.Context) int64 {
	criteria := r.sweeper.Criteria()
	r.logger.Info("sweep started",
		"collection", r.cfg.Collection,
		"window", r.cfg.Window,
		"title_prefix", criteria.TitlePrefix,
		"author", criteria.Author)

	if err := r.store.Subscribe(ctx, r.cfg.Collection, r.sweeper.Handle); err != nil {
		r.logger.Warn("subscription failed, run will report zero matches", "error", err)
	}

	select {
	case <-r.clk.After(r.cfg.Window):
	case <-ctx.Done():
		r.logger.Info("sweep interrupted before the window elapsed")
	}

	matched := r.sweeper.Matched()
	r.logger.Info("sweep finished", "matched", matched, "collection", r.cfg.Collection)
	return matched
}
