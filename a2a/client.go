package a2a

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"

	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/logging"
	"github.com/prediagent/prediagent/telemetry"
	"github.com/prediagent/prediagent/transport"
)

// DefaultCardTimeout bounds the card discovery request. Discovery is
// best-effort, so the budget is short.
const DefaultCardTimeout = 3 * time.Second

// ClientConfig configures a Client. The zero value is usable.
type ClientConfig struct {
	// HTTPClient is used for discovery and /invoke calls. Defaults to a
	// client with transport.DefaultCallTimeout.
	HTTPClient *http.Client

	// CardTimeout bounds the discovery request. Defaults to DefaultCardTimeout.
	CardTimeout time.Duration

	Logger *logging.Logger
}

// Client invokes an action on a remote agent without knowing in advance
// which transport the agent speaks. Each call discovers the agent card,
// probes JSON-RPC method candidates when the card prefers JSON-RPC, and
// falls back to the /invoke action protocol.
//
// A Client holds no per-call state and is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	rpc         *transport.HTTPClient
	cardTimeout time.Duration
	logger      *logging.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: transport.DefaultCallTimeout}
	}
	cardTimeout := cfg.CardTimeout
	if cardTimeout <= 0 {
		cardTimeout = DefaultCardTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}
	return &Client{
		httpClient:  httpClient,
		rpc:         transport.NewHTTPClient(httpClient),
		cardTimeout: cardTimeout,
		logger:      logger.WithComponent("a2a.client"),
	}
}

// FetchCard retrieves the agent card from the well-known path. Any
// network failure, non-200 status, or undecodable body yields an error;
// Invoke treats all of them as "no card".
func (c *Client) FetchCard(ctx context.Context, baseURL string) (*AgentCard, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cardTimeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + WellKnownCardPath
	c.logger.CardFetch(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "building card request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeNetworkErr, "fetching agent card")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeUnavailable, "agent card returned status %d", resp.StatusCode)
	}

	var card AgentCard
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeMalformed, "decoding agent card")
	}
	return &card, nil
}

// Invoke calls the named action on the agent at baseURL and returns the
// normalized result payload.
//
// Transports are tried in fixed priority. If the card prefers JSON-RPC,
// each method candidate is probed in order at the agent root; a
// method-not-found error or a network failure moves to the next
// candidate, while any other reply ends probing. When probing is skipped
// or exhausted, the action is posted to /invoke. If nothing answers, the
// error is UNAVAILABLE. Remote-reported errors are surfaced verbatim and
// never retried.
func (c *Client) Invoke(ctx context.Context, baseURL, action string, args map[string]interface{}) (result interface{}, err error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartRPCSpan(ctx, "a2a.invoke")
	opts := telemetry.RPCSpanOptions{Endpoint: baseURL}
	defer func() { tracer.EndRPCSpan(span, opts, err) }()

	card, cardErr := c.FetchCard(ctx, baseURL)
	c.logger.CardResult(cardPreference(card), cardErr)

	if card != nil && strings.EqualFold(card.PreferredTransport, "JSONRPC") {
		value, done, probes := c.probeJSONRPC(ctx, baseURL, card, action, args)
		opts.Transport = "jsonrpc"
		opts.Probes = probes
		if done.err != nil {
			return nil, done.err
		}
		if done.accepted {
			opts.Method = done.method
			return value, nil
		}
		// All candidates missed; fall through.
	}

	value, ok := c.invokeAction(ctx, baseURL, action, args)
	opts.Transport = "invoke"
	if ok {
		return value, nil
	}

	return nil, errors.Unavailable("no usable response")
}

// probeOutcome describes how JSON-RPC probing ended.
type probeOutcome struct {
	accepted bool
	method   string
	err      error
}

// probeJSONRPC tries each method candidate at the agent root. It returns
// the accepted value, the outcome, and how many candidates were tried.
func (c *Client) probeJSONRPC(ctx context.Context, baseURL string, card *AgentCard, action string, args map[string]interface{}) (interface{}, probeOutcome, int) {
	endpoint := strings.TrimRight(baseURL, "/") + "/"
	params := map[string]interface{}{
		"tool_inputs": map[string]interface{}{action: args},
	}

	probes := 0
	for _, method := range card.MethodCandidates() {
		probes++
		c.logger.Probe(method, endpoint)

		callCtx, cancel := context.WithTimeout(ctx, transport.DefaultCallTimeout)
		resp, err := c.rpc.Call(callCtx, endpoint, transport.NewRequest(1, method, params))
		cancel()

		if err != nil {
			c.logger.ProbeMiss(method, err.Error())
			continue
		}
		if resp.IsMethodNotFound() {
			c.logger.ProbeMiss(method, "method not found")
			continue
		}

		// Anything else is final: a remote error passes through, a
		// success ends probing.
		if resp.Error != nil {
			return nil, probeOutcome{
				method: method,
				err: errors.Remote(resp.Error.Code, resp.Error.Message,
					errors.WithMetadata("method", method)),
			}, probes
		}

		var value interface{}
		if len(resp.Result) > 0 {
			if err := jsonCodec.Unmarshal(resp.Result, &value); err != nil {
				return nil, probeOutcome{
					method: method,
					err:    errors.Malformed(fmt.Sprintf("decoding result of %s: %v", method, err)),
				}, probes
			}
		}
		return value, probeOutcome{accepted: true, method: method}, probes
	}

	return nil, probeOutcome{}, probes
}

// invokeAction posts {action, kwargs} to /invoke. ok=false means the
// endpoint produced nothing usable and the caller should report
// exhaustion; it is never a thrown failure.
func (c *Client) invokeAction(ctx context.Context, baseURL, action string, args map[string]interface{}) (interface{}, bool) {
	url := strings.TrimRight(baseURL, "/") + "/invoke"
	c.logger.Fallback(url)

	body, err := jsonCodec.Marshal(map[string]interface{}{
		"action": action,
		"kwargs": args,
	})
	if err != nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, transport.DefaultCallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	telemetry.InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("action endpoint unreachable", map[string]interface{}{"url": url, "error": err.Error()})
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Endpoint not implemented on this agent.
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("action endpoint error", map[string]interface{}{"url": url, "status": resp.StatusCode})
		return nil, false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}

	return decodeBody(raw).Normalize(), true
}

func cardPreference(card *AgentCard) string {
	if card == nil {
		return ""
	}
	return card.PreferredTransport
}
