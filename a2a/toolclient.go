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
)

// DefaultToolTimeout bounds a direct /invoke call.
const DefaultToolTimeout = 15 * time.Second

// ToolClient posts actions straight to one agent's /invoke endpoint.
// Unlike Client it skips discovery and probing entirely, for callers
// that already know the agent speaks the action protocol.
type ToolClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewToolClient creates a ToolClient for the agent at baseURL. A nil
// httpClient gets a client with DefaultToolTimeout.
func NewToolClient(baseURL string, httpClient *http.Client, logger *logging.Logger) *ToolClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultToolTimeout}
	}
	if logger == nil {
		logger = logging.New()
	}
	return &ToolClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.WithComponent("a2a.tool"),
	}
}

// Call posts {action, kwargs} to /invoke and returns the normalized
// result, unwrapping a result or output envelope when present. The
// agent's own errors come back typed: unknown action as NOT_FOUND,
// rejected arguments as INVALID_INPUT.
func (t *ToolClient) Call(ctx context.Context, action string, kwargs map[string]interface{}) (interface{}, error) {
	if action == "" {
		return nil, errors.InvalidInput("action is required")
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}

	url := t.baseURL + "/invoke"
	t.logger.ToolCall(action)

	body, err := jsonCodec.Marshal(invokeRequest{Action: action, Kwargs: kwargs})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "encoding invoke request")
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultToolTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "building invoke request")
	}
	req.Header.Set("Content-Type", "application/json")
	telemetry.InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeNetworkErr,
			fmt.Sprintf("calling %s", url))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeNetworkErr, "reading invoke response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := invokeErrorMessage(raw, resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, errors.NotFound(msg)
		case http.StatusBadRequest:
			return nil, errors.InvalidInput(msg)
		default:
			return nil, errors.Unavailable(msg)
		}
	}

	return decodeBody(raw).Normalize(), nil
}

// invokeErrorMessage prefers the structured error field of an error
// body over the raw bytes.
func invokeErrorMessage(raw []byte, status int) string {
	var out invokeResponse
	if err := jsonCodec.Unmarshal(raw, &out); err == nil && out.Error != "" {
		return out.Error
	}
	return fmt.Sprintf("invoke returned status %d", status)
}
