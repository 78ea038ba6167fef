// ABOUTME: Tests for the republish pipeline using a stub gateway.
// ABOUTME: Covers normalization, skip rules, failure isolation and pacing.

package republish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/gateway"
	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/paper"
)

type publishCall struct {
	title   string
	content string
	author  string
}

// fakeGateway implements Publisher in memory.
type fakeGateway struct {
	papers     []paper.Paper
	fetchErr   error
	publishErr error
	gotLimit   int
	calls      []publishCall

	// onPublish, when set, runs before each publish is recorded.
	onPublish func()
}

func (f *fakeGateway) LatestPapers(ctx context.Context, limit int) ([]paper.Paper, error) {
	f.gotLimit = limit
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.papers, nil
}

func (f *fakeGateway) PublishPaper(ctx context.Context, title, content, author string) (gateway.PublishResult, error) {
	if f.onPublish != nil {
		f.onPublish()
	}
	if f.publishErr != nil {
		return gateway.PublishResult{}, f.publishErr
	}
	f.calls = append(f.calls, publishCall{title: title, content: content, author: author})
	return gateway.PublishResult{PaperID: "new-" + title}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// longContent is a paper body comfortably past the minimum length, with
// one real section so normalization has something to carry over.
func longContent() string {
	body := strings.Repeat("Distributed agents exchange verified findings across the mesh. ", 5)
	return "## Abstract\n\n" + body
}

func newRepublisher(t *testing.T, cfg Config, gw Publisher) *Republisher {
	t.Helper()
	if cfg.Interval == 0 {
		cfg.Interval = time.Millisecond
	}
	return New(cfg, gw, testLogger())
}

func TestRunPublishesNormalizedPapers(t *testing.T) {
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "p1", Title: "Swarm Consensus", Author: "Dr. Node", Content: longContent()},
		{ID: "p2", Title: "Mesh Gossip", Author: "Agent Seven", Content: "<div>" + longContent() + "</div>"},
	}}
	r := newRepublisher(t, Config{}, gw)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Seen: 2, Published: 2}, stats)
	require.Len(t, gw.calls, 2)
	assert.Equal(t, DefaultLimit, gw.gotLimit)

	first := gw.calls[0]
	assert.Equal(t, "Swarm Consensus", first.title)
	assert.Equal(t, "Dr. Node", first.author)
	assert.Contains(t, first.content, "## Abstract\n\nDistributed agents")
	// Missing sections come back as placeholder stubs in canonical order.
	assert.Contains(t, first.content, "## References")
	assert.Less(t, strings.Index(first.content, "## Abstract"), strings.Index(first.content, "## Conclusion"))

	// HTML leaked into the second paper must not survive.
	assert.NotContains(t, gw.calls[1].content, "<div>")
}

func TestRunAuthorTagAndFallback(t *testing.T) {
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "p1", Title: "Tagged", Author: "Dr. Node", Content: longContent()},
		{ID: "p2", Title: "Anonymous", Content: longContent()},
	}}
	r := newRepublisher(t, Config{AuthorTag: "[Reindexed]"}, gw)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, gw.calls, 2)
	assert.Equal(t, "Dr. Node [Reindexed]", gw.calls[0].author)
	assert.Equal(t, "Hive-Agent [Reindexed]", gw.calls[1].author)
}

func TestRunSkipRules(t *testing.T) {
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "junk-1", Title: "Skip Listed", Content: longContent()},
		{ID: "p2", Content: longContent()},
		{ID: "p3", Title: "Stub", Content: "too short"},
		{ID: "p4", Title: "Keeper", Author: "A", Content: longContent()},
	}}
	r := newRepublisher(t, Config{SkipIDs: []string{"junk-1"}}, gw)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Seen: 4, Published: 1, Skipped: 3}, stats)
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "Keeper", gw.calls[0].title)
}

func TestRunCountsFailuresAndContinues(t *testing.T) {
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "p1", Title: "First", Author: "A", Content: longContent()},
		{ID: "p2", Title: "Second", Author: "B", Content: longContent()},
	}}
	// Fail only the first publish.
	calls := 0
	gw.onPublish = func() {
		calls++
		if calls == 1 {
			gw.publishErr = errors.New("node overloaded")
		} else {
			gw.publishErr = nil
		}
	}
	r := newRepublisher(t, Config{}, gw)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Seen: 2, Published: 1, Failed: 1}, stats)
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "Second", gw.calls[0].title)
}

func TestRunDryRun(t *testing.T) {
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "p1", Title: "Dry", Author: "A", Content: longContent()},
	}}
	r := newRepublisher(t, Config{DryRun: true}, gw)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Seen: 1, Published: 1}, stats)
	assert.Empty(t, gw.calls)
}

func TestRunFetchError(t *testing.T) {
	fetchErr := errors.New("gateway down")
	r := newRepublisher(t, Config{}, &fakeGateway{fetchErr: fetchErr})

	stats, err := r.Run(context.Background())
	require.ErrorIs(t, err, fetchErr)
	assert.Equal(t, Stats{}, stats)
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gw := &fakeGateway{papers: []paper.Paper{
		{ID: "p1", Title: "First", Author: "A", Content: longContent()},
		{ID: "p2", Title: "Second", Author: "B", Content: longContent()},
	}}
	// Cancel during the first publish; the pre-publish pacing of the
	// second paper must then abort the run.
	gw.onPublish = func() { cancel() }
	r := newRepublisher(t, Config{Interval: time.Hour}, gw)

	stats, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, Stats{Seen: 2, Published: 1}, stats)
	require.Len(t, gw.calls, 1)
}
