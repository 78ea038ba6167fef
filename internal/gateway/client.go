// ABOUTME: HTTP client for a mesh node's REST endpoints (feed, mempool,
// ABOUTME: publish, validate) built on the requests builder with per-call timeouts

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/paper"
)

const (
	// DefaultTimeout bounds each gateway call.
	DefaultTimeout = 15 * time.Second

	// DefaultAgentID identifies this tool to the gateway on writes.
	DefaultAgentID = "p2pclaw-cleanup"

	defaultLimit = 20
	maxLimit     = 100
)

// ErrRejected reports a 2xx response whose envelope carries success=false.
// The gateway's reason is wrapped alongside it.
var ErrRejected = errors.New("gateway rejected request")

// Config carries the connection settings for a Client.
type Config struct {
	// BaseURL is the gateway root, e.g. https://node.example/api.
	BaseURL string

	// AgentID is stamped on publishes and validations.
	// Defaults to DefaultAgentID.
	AgentID string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Transport overrides the HTTP client, mainly for tests.
	Transport *http.Client
}

// Client talks to one gateway node over HTTP.
type Client struct {
	baseURL string
	agentID string
	timeout time.Duration
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a gateway client. BaseURL is normalized to carry no
// trailing slash.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.AgentID == "" {
		cfg.AgentID = DefaultAgentID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		agentID: cfg.AgentID,
		timeout: cfg.Timeout,
		httpc:   cfg.Transport,
		logger:  logger,
	}
}

// publishEnvelope is the response shape of the gateway's write endpoints.
// Field names drifted across node versions, so ids and reasons each have
// two aliases.
type publishEnvelope struct {
	Success bool   `json:"success"`
	PaperID string `json:"paperId"`
	ID      string `json:"id"`
	CID     string `json:"cid"`
	IPFSURL string `json:"ipfs_url"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e publishEnvelope) paperID() string {
	if e.PaperID != "" {
		return e.PaperID
	}
	return e.ID
}

func (e publishEnvelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// PublishResult reports a successful publish.
type PublishResult struct {
	PaperID string
	CID     string
}

// ValidateResult reports the paper's status after a validation was cast.
type ValidateResult struct {
	Status string `json:"status"`
}

// Health probes the gateway by fetching a single paper from the feed.
// There is no dedicated health endpoint; a node that serves its feed is
// taken as live.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.LatestPapers(ctx, 1); err != nil {
		return fmt.Errorf("gateway unhealthy: %w", err)
	}
	return nil
}

// LatestPapers fetches up to limit recent papers, newest first. Limits
// outside 1..100 fall back to 20.
func (c *Client) LatestPapers(ctx context.Context, limit int) ([]paper.Paper, error) {
	return c.fetchPapers(ctx, "/latest-papers", limit)
}

// Mempool fetches up to limit papers awaiting validation.
func (c *Client) Mempool(ctx context.Context, limit int) ([]paper.Paper, error) {
	return c.fetchPapers(ctx, "/mempool", limit)
}

func (c *Client) fetchPapers(ctx context.Context, path string, limit int) ([]paper.Paper, error) {
	var raw json.RawMessage
	r := c.build(path).
		Param("limit", strconv.Itoa(normalizeLimit(limit))).
		ToJSON(&raw)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := r.Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	papers, err := decodePapers(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	c.logger.Debug("fetched papers", "path", path, "count", len(papers))
	return papers, nil
}

// PublishPaper publishes a paper into the gateway's mempool and returns
// the assigned id (and content hash, when the node reports one).
func (c *Client) PublishPaper(ctx context.Context, title, content, author string) (PublishResult, error) {
	body := map[string]string{
		"title":   title,
		"content": content,
		"author":  author,
		"agentId": c.agentID,
	}
	var env publishEnvelope
	r := c.build("/publish-paper").
		BodyJSON(body).
		ToJSON(&env)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := r.Fetch(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("publish paper: %w", err)
	}
	if !env.Success {
		return PublishResult{}, fmt.Errorf("publish paper: %w: %s", ErrRejected, env.reason())
	}

	res := PublishResult{PaperID: env.paperID(), CID: env.CID}
	if res.CID == "" {
		res.CID = env.IPFSURL
	}
	c.logger.Debug("published paper", "paper_id", res.PaperID, "title", title)
	return res, nil
}

// ValidatePaper casts a validation on a mempool paper. score is the
// occam score in 0..1; verdict reports whether the paper passed.
func (c *Client) ValidatePaper(ctx context.Context, paperID string, verdict bool, score float64) (ValidateResult, error) {
	body := map[string]any{
		"paperId":     paperID,
		"agentId":     c.agentID,
		"result":      verdict,
		"occam_score": score,
	}
	var res ValidateResult
	r := c.build("/validate-paper").
		BodyJSON(body).
		ToJSON(&res)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := r.Fetch(ctx); err != nil {
		return ValidateResult{}, fmt.Errorf("validate paper %s: %w", paperID, err)
	}
	c.logger.Debug("validated paper", "paper_id", paperID, "verdict", verdict, "status", res.Status)
	return res, nil
}

func (c *Client) build(path string) *requests.Builder {
	r := requests.URL(c.baseURL + path)
	if c.httpc != nil {
		r = r.Client(c.httpc)
	}
	return r
}

// decodePapers handles both feed shapes: a bare array, or an object
// wrapping the array under "papers". Entries go through the tolerant
// field-map decoder so loosely typed nodes cannot poison the batch.
func decodePapers(raw json.RawMessage) ([]paper.Paper, error) {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapped struct {
			Papers []map[string]any `json:"papers"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, err
		}
		entries = wrapped.Papers
	}
	papers := make([]paper.Paper, 0, len(entries))
	for _, fields := range entries {
		papers = append(papers, paper.FromFields(fields))
	}
	return papers, nil
}

func normalizeLimit(limit int) int {
	if limit < 1 || limit > maxLimit {
		return defaultLimit
	}
	return limit
}
