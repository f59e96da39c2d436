// Package agent forwards JSON-RPC task requests to the external agent
// services and interprets their free-form replies.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"otto/internal/extract"
	"otto/internal/httpclient"
	"otto/internal/jsonx"
	"otto/internal/logging"
	"otto/internal/observability"
	"otto/internal/rpc"
)

// Kind names one of the upstream agent services.
type Kind string

const (
	KindPublicData       Kind = "public-data"
	KindPreferenceCreate Kind = "preference-create"
	KindCalendar         Kind = "calendar"
	KindPreferenceQuery  Kind = "preference-query"
	KindGift             Kind = "gift"
)

// Kinds lists every agent the gateway knows about.
func Kinds() []Kind {
	return []Kind{KindPublicData, KindPreferenceCreate, KindCalendar, KindPreferenceQuery, KindGift}
}

// Options configures a Gateway.
type Options struct {
	HTTPClient *http.Client
	URLs       map[Kind]string
	// ResponseLimit caps upstream response bodies in bytes. Zero means 4 MiB.
	ResponseLimit int64
	// CacheSize bounds the reply cache used by SendCached. Zero means 128.
	CacheSize    int
	Logger       logging.Logger
	Metrics      *observability.MetricsCollector
	Tracer       *observability.TracerProvider
	// TokenCounter estimates prompt size for logging. Nil uses the built-in
	// estimator.
	TokenCounter func(string) int
}

// Gateway posts task requests to the configured agent services.
type Gateway struct {
	http    *http.Client
	urls    map[Kind]string
	limit   int64
	cache   *lru.Cache[string, jsonx.RawMessage]
	logger  logging.Logger
	metrics *observability.MetricsCollector
	tracer  *observability.TracerProvider
	tokens  func(string) int
}

func NewGateway(opts Options) (*Gateway, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(0, opts.Logger)
	}
	limit := opts.ResponseLimit
	if limit <= 0 {
		limit = 4 << 20
	}
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, jsonx.RawMessage](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply cache: %w", err)
	}
	tokens := opts.TokenCounter
	if tokens == nil {
		tokens = EstimateTokens
	}
	return &Gateway{
		http:    httpClient,
		urls:    opts.URLs,
		limit:   limit,
		cache:   cache,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		tokens:  tokens,
	}, nil
}

// Send wraps the prompt in a task envelope, posts it to the named agent and
// returns the raw reply bytes.
func (g *Gateway) Send(ctx context.Context, kind Kind, prompt, sessionID string) (jsonx.RawMessage, error) {
	body, err := jsonx.Marshal(rpc.NewTask(prompt, sessionID))
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Sending task to %s agent (~%d tokens)", kind, g.tokens(prompt))
	return g.post(ctx, kind, body)
}

// SendCached is Send with an LRU cache keyed on the agent and prompt. Only
// useful for idempotent queries.
func (g *Gateway) SendCached(ctx context.Context, kind Kind, prompt, sessionID string) (jsonx.RawMessage, error) {
	key := string(kind) + "\x00" + prompt
	if cached, ok := g.cache.Get(key); ok {
		g.logger.Debug("Reply cache hit for %s agent", kind)
		return cached, nil
	}
	reply, err := g.Send(ctx, kind, prompt, sessionID)
	if err != nil {
		return nil, err
	}
	g.cache.Add(key, reply)
	return reply, nil
}

// Forward posts a caller-supplied envelope verbatim to the named agent.
func (g *Gateway) Forward(ctx context.Context, kind Kind, body jsonx.RawMessage) (jsonx.RawMessage, error) {
	return g.post(ctx, kind, body)
}

// ReplyText extracts the assistant text from a raw agent reply.
func (g *Gateway) ReplyText(reply jsonx.RawMessage) string {
	return extract.Text(reply)
}

func (g *Gateway) post(ctx context.Context, kind Kind, body []byte) (jsonx.RawMessage, error) {
	url, ok := g.urls[kind]
	if !ok || url == "" {
		return nil, fmt.Errorf("no URL configured for %s agent", kind)
	}

	ctx, span := g.startSpan(ctx, kind)
	defer span()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s agent request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.http.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		g.metrics.RecordAgentCall(ctx, string(kind), elapsed, false)
		return nil, fmt.Errorf("%s agent request failed: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, g.limit)
	if err != nil {
		g.metrics.RecordAgentCall(ctx, string(kind), elapsed, false)
		return nil, fmt.Errorf("failed to read %s agent response: %w", kind, err)
	}
	if resp.StatusCode >= 400 {
		g.metrics.RecordAgentCall(ctx, string(kind), elapsed, false)
		return nil, upstreamError(kind, resp.StatusCode, data)
	}

	g.metrics.RecordAgentCall(ctx, string(kind), elapsed, true)
	return jsonx.RawMessage(data), nil
}

func (g *Gateway) startSpan(ctx context.Context, kind Kind) (context.Context, func()) {
	if g.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := g.tracer.StartSpan(ctx, "agent."+string(kind))
	return ctx, func() { span.End() }
}

// Probe checks that every configured agent endpoint is reachable. Any HTTP
// response counts as reachable; only transport failures are reported.
func (g *Gateway) Probe(ctx context.Context) map[Kind]error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	results := make(map[Kind]error, len(g.urls))
	var group errgroup.Group
	for kind, url := range g.urls {
		group.Go(func() error {
			err := g.probeOne(ctx, url)
			mu.Lock()
			results[kind] = err
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (g *Gateway) probeOne(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// upstreamError surfaces the agent's own message when the body carries one.
func upstreamError(kind Kind, status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = jsonx.Unmarshal(body, &payload)
	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
	}
	if msg == "" {
		return fmt.Errorf("%s agent returned status %d", kind, status)
	}
	return fmt.Errorf("%s agent returned status %d: %s", kind, status, msg)
}

// IsConflictReply reports whether the agent text describes a conflicting or
// already-existing record. Callers treat these as soft successes.
func IsConflictReply(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "conflict") || strings.Contains(text, "409")
}

// IsErrorReply reports whether the agent text describes a failure.
func IsErrorReply(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "error") || strings.Contains(text, "500")
}
