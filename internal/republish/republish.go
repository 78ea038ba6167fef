// ABOUTME: Republish pipeline: fetch, normalize and re-post papers through
// ABOUTME: a gateway, token-bucket paced, with per-paper failure isolation

package republish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/ratelimit"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/gateway"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/paper"
)

const (
	// DefaultLimit is how many papers one run fetches.
	DefaultLimit = 20

	// DefaultInterval paces publishes so a run never floods the node.
	DefaultInterval = 1500 * time.Millisecond

	// DefaultMinContentLen rejects stub papers after HTML stripping.
	DefaultMinContentLen = 200

	// defaultAuthor stands in for papers published without one.
	defaultAuthor = "Hive-Agent"
)

// Publisher is the slice of the gateway client the pipeline needs.
type Publisher interface {
	LatestPapers(ctx context.Context, limit int) ([]paper.Paper, error)
	PublishPaper(ctx context.Context, title, content, author string) (gateway.PublishResult, error)
}

// Config controls one republish run.
type Config struct {
	// Limit is how many papers to fetch. Zero means DefaultLimit.
	Limit int

	// Interval paces publishes. Zero means DefaultInterval.
	Interval time.Duration

	// MinContentLen rejects papers shorter than this after stripping.
	// Zero means DefaultMinContentLen.
	MinContentLen int

	// SkipIDs are paper ids to leave alone: duplicates, test papers,
	// papers already handled by an earlier pass.
	SkipIDs []string

	// AuthorTag, when set, is appended to each republished author so
	// reprocessed papers stay distinguishable from originals.
	AuthorTag string

	// DryRun logs what would be republished without posting anything.
	DryRun bool
}

// Stats reports what one run did.
type Stats struct {
	Seen      int
	Published int
	Skipped   int
	Failed    int
}

// Republisher runs the fetch-normalize-publish pipeline.
type Republisher struct {
	cfg    Config
	gw     Publisher
	skip   map[string]bool
	bucket *ratelimit.Bucket
	logger *slog.Logger
}

// New creates a republisher publishing through gw.
func New(cfg Config, gw Publisher, logger *slog.Logger) *Republisher {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MinContentLen <= 0 {
		cfg.MinContentLen = DefaultMinContentLen
	}
	skip := make(map[string]bool, len(cfg.SkipIDs))
	for _, id := range cfg.SkipIDs {
		skip[id] = true
	}
	return &Republisher{
		cfg:    cfg,
		gw:     gw,
		skip:   skip,
		bucket: ratelimit.NewBucket(cfg.Interval, 1),
		logger: logger,
	}
}

// Run fetches one batch and republishes every salvageable paper in it.
// Per-paper publish failures are counted and logged, never fatal; the
// returned error is non-nil only when the fetch fails or ctx ends the
// run early.
func (r *Republisher) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	papers, err := r.gw.LatestPapers(ctx, r.cfg.Limit)
	if err != nil {
		return stats, fmt.Errorf("fetch papers: %w", err)
	}
	r.logger.Info("republish started",
		"papers", len(papers),
		"dry_run", r.cfg.DryRun)

	for _, p := range papers {
		stats.Seen++

		if r.skip[p.ID] {
			stats.Skipped++
			r.logger.Debug("paper on skip list", "paper_id", p.ID)
			continue
		}
		if p.Title == "" {
			stats.Skipped++
			r.logger.Debug("paper has no title", "paper_id", p.ID)
			continue
		}

		clean, err := paper.Normalize(p, r.cfg.MinContentLen)
		if err != nil {
			stats.Skipped++
			r.logger.Debug("paper not salvageable",
				"paper_id", p.ID,
				"title", p.Title,
				"error", err)
			continue
		}

		author := clean.Author
		if author == "" {
			author = defaultAuthor
		}
		if r.cfg.AuthorTag != "" {
			author += " " + r.cfg.AuthorTag
		}

		if r.cfg.DryRun {
			stats.Published++
			r.logger.Info("would republish",
				"paper_id", p.ID,
				"title", clean.Title,
				"author", author)
			continue
		}

		if err := r.pace(ctx); err != nil {
			return stats, err
		}
		res, err := r.gw.PublishPaper(ctx, clean.Title, clean.Content, author)
		if err != nil {
			stats.Failed++
			r.logger.Warn("republish failed",
				"paper_id", p.ID,
				"title", clean.Title,
				"error", err)
			continue
		}
		stats.Published++
		r.logger.Info("republished paper",
			"paper_id", p.ID,
			"new_id", res.PaperID,
			"title", clean.Title)
	}

	r.logger.Info("republish finished",
		"seen", stats.Seen,
		"published", stats.Published,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

// pace blocks until the bucket grants the next publish slot. The bucket
// starts full, so the first publish of a run goes out immediately.
func (r *Republisher) pace(ctx context.Context) error {
	d := r.bucket.Take(1)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
