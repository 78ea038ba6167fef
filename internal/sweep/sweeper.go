// ABOUTME: Stream handler that counts, logs and tombstones papers matching
// ABOUTME: the configured criteria. Writes are fire-and-forget merge updates.

package sweep

import (
	"log/slog"
	"sync/atomic"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/mesh"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/paper"
)

const (
	// DefaultCollection is the collection a sweep streams.
	DefaultCollection = "papers"

	// DefaultMempoolCollection receives the REJECTED tombstone for each
	// purged paper.
	DefaultMempoolCollection = "mempool"
)

// Recorder receives a best-effort record of each tombstoned paper. Failures
// are logged and never affect the sweep.
type Recorder interface {
	RecordPurge(paperID, title, author, reason string) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(paperID, title, author, reason string) error

// RecordPurge calls f.
func (f RecorderFunc) RecordPurge(paperID, title, author, reason string) error {
	return f(paperID, title, author, reason)
}

// SweeperConfig selects what a sweep matches and where tombstones land.
type SweeperConfig struct {
	Match             paper.Matcher
	PapersCollection  string
	MempoolCollection string

	// DryRun counts and logs matches but skips the tombstone writes.
	DryRun bool
}

// Sweeper handles streamed entries: entries with absent content are
// skipped, matches are counted, logged and tombstoned. Handle is safe for
// concurrent invocation from several peer readers, and tolerates redelivery:
// re-applying a tombstone is harmless and a redelivered match counts again.
type Sweeper struct {
	cfg      SweeperConfig
	store    mesh.Store
	recorder Recorder
	logger   *slog.Logger
	matched  atomic.Int64
}

// NewSweeper creates a sweeper writing tombstones through store. recorder
// may be nil when no purge journal is kept.
func NewSweeper(cfg SweeperConfig, store mesh.Store, recorder Recorder, logger *slog.Logger) *Sweeper {
	if cfg.PapersCollection == "" {
		cfg.PapersCollection = DefaultCollection
	}
	if cfg.MempoolCollection == "" {
		cfg.MempoolCollection = DefaultMempoolCollection
	}
	return &Sweeper{
		cfg:      cfg,
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// Criteria returns the configured matcher.
func (s *Sweeper) Criteria() paper.Matcher { return s.cfg.Match }

// Matched returns the number of matches handled so far.
func (s *Sweeper) Matched() int64 { return s.matched.Load() }

// Handle processes one delivered entry. On a match it increments the
// counter, logs the hit, then merge-writes the PURGED marker into the
// papers collection followed by the REJECTED marker into the mempool
// collection. The writes carry no title or author, so their own redelivery
// never re-matches.
func (s *Sweeper) Handle(id string, fields map[string]any) {
	if fields == nil {
		s.logger.Debug("skipping entry with absent content", "id", id)
		return
	}

	p := paper.FromFields(fields)
	if !s.cfg.Match.Match(p) {
		return
	}

	matched := s.matched.Add(1)
	s.logger.Info("matched paper",
		"paper_id", id,
		"title", p.Title,
		"author", p.Author,
		"total_matched", matched)

	if s.cfg.DryRun {
		return
	}

	s.store.MergeWrite(s.cfg.PapersCollection, id, map[string]any{
		"status":          paper.StatusPurged,
		"rejected_reason": paper.ReasonUserCleanup,
	})
	s.store.MergeWrite(s.cfg.MempoolCollection, id, map[string]any{
		"status":          paper.StatusRejected,
		"rejected_reason": paper.ReasonUserCleanup,
	})

	if s.recorder != nil {
		if err := s.recorder.RecordPurge(id, p.Title, p.Author, paper.ReasonUserCleanup); err != nil {
			s.logger.Warn("purge record failed", "paper_id", id, "error", err)
		}
	}
}
