// ABOUTME: Tests for the gateway HTTP client against stub servers.
// ABOUTME: Covers both feed shapes, write envelopes, and failure surfacing.

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL}, testLogger())
}

func TestLatestPapersBareArray(t *testing.T) {
	var gotPath, gotLimit string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		io.WriteString(w, `[
			{"id":"abc123","title":"Emergent Swarms","author":"Dr. Node","status":"VERIFIED","ts":1754000000},
			{"id":"def456","title":"Mesh Gossip","author_id":"agent-7","content":"body"}
		]`)
	}))

	papers, err := c.LatestPapers(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Equal(t, "/latest-papers", gotPath)
	assert.Equal(t, "2", gotLimit)
	assert.Equal(t, "abc123", papers[0].ID)
	assert.Equal(t, "Dr. Node", papers[0].Author)
	assert.Equal(t, int64(1754000000), papers[0].Timestamp)
	// author_id is the older field name; it must still populate Author.
	assert.Equal(t, "agent-7", papers[1].Author)
}

func TestLatestPapersWrappedObject(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"papers":[{"id":"abc123","title":"Wrapped Feed"}],"count":1}`)
	}))

	papers, err := c.LatestPapers(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "Wrapped Feed", papers[0].Title)
}

func TestFetchLimitNormalized(t *testing.T) {
	var limits []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get("limit"))
		io.WriteString(w, `[]`)
	}))

	for _, limit := range []int{0, -5, 101, 100} {
		_, err := c.LatestPapers(context.Background(), limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"20", "20", "20", "100"}, limits)
}

func TestMempool(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, `[{"id":"pend-1","status":"MEMPOOL"}]`)
	}))

	papers, err := c.Mempool(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "/mempool", gotPath)
	assert.Equal(t, "MEMPOOL", papers[0].Status)
}

func TestFetchGarbageBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"just a string"`)
	}))

	_, err := c.LatestPapers(context.Background(), 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /latest-papers")
}

func TestFetchServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.LatestPapers(context.Background(), 20)
	require.Error(t, err)
}

func TestPublishPaper(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/publish-paper", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"success":true,"paperId":"paper-9","ipfs_url":"ipfs://Qm123"}`)
	}))

	res, err := c.PublishPaper(context.Background(), "Clean Title", "## Abstract\n\nBody.", "Dr. Node")
	require.NoError(t, err)

	assert.Equal(t, "paper-9", res.PaperID)
	assert.Equal(t, "ipfs://Qm123", res.CID)
	assert.Equal(t, "Clean Title", gotBody["title"])
	assert.Equal(t, "Dr. Node", gotBody["author"])
	assert.Equal(t, DefaultAgentID, gotBody["agentId"])
}

func TestPublishPaperCustomAgentID(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotAgent = body["agentId"]
		io.WriteString(w, `{"success":true,"id":"paper-1"}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", AgentID: "phase69-reindexer"}, testLogger())
	res, err := c.PublishPaper(context.Background(), "T", "C", "A")
	require.NoError(t, err)

	assert.Equal(t, "phase69-reindexer", gotAgent)
	// Older nodes answer with "id" instead of "paperId".
	assert.Equal(t, "paper-1", res.PaperID)
}

func TestPublishPaperRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"error":"duplicate title"}`)
	}))

	_, err := c.PublishPaper(context.Background(), "T", "C", "A")
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "duplicate title")
}

func TestValidatePaper(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/validate-paper", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"status":"VERIFIED"}`)
	}))

	res, err := c.ValidatePaper(context.Background(), "paper-9", true, 0.85)
	require.NoError(t, err)

	assert.Equal(t, "VERIFIED", res.Status)
	assert.Equal(t, "paper-9", gotBody["paperId"])
	assert.Equal(t, true, gotBody["result"])
	assert.Equal(t, 0.85, gotBody["occam_score"])
	assert.Equal(t, DefaultAgentID, gotBody["agentId"])
}

func TestHealth(t *testing.T) {
	healthy := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	require.NoError(t, healthy.Health(context.Background()))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	dead := New(Config{BaseURL: srv.URL}, testLogger())
	require.Error(t, dead.Health(context.Background()))
}
