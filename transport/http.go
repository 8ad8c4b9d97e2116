package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/prediagent/prediagent/errors"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultCallTimeout bounds a single JSON-RPC attempt.
const DefaultCallTimeout = 15 * time.Second

// HTTPClient posts JSON-RPC 2.0 requests to an agent endpoint over HTTP.
// It is stateless and safe for concurrent use.
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient creates an HTTP JSON-RPC client. A nil httpClient gets a
// default with DefaultCallTimeout.
func NewHTTPClient(httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultCallTimeout}
	}
	return &HTTPClient{httpClient: httpClient}
}

// Call posts a single request to endpoint and decodes the response envelope.
// Any HTTP status is accepted as long as the body is a JSON-RPC envelope:
// servers in the wild pair -32601 with 404, -32602 with 400, and so on.
// Network failures surface as NETWORK_ERR, undecodable bodies as MALFORMED.
func (c *HTTPClient) Call(ctx context.Context, endpoint string, req Request) (*Response, error) {
	body, err := jsonCodec.Marshal(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInternal, "encoding jsonrpc request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "building jsonrpc request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeNetworkErr, "posting jsonrpc request",
			errors.WithMetadata("endpoint", endpoint),
			errors.WithMetadata("method", req.Method),
		)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeNetworkErr, "reading jsonrpc response")
	}

	var resp Response
	if err := jsonCodec.Unmarshal(raw, &resp); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeMalformed, "decoding jsonrpc response",
			errors.WithMetadata("status", httpResp.Status),
		)
	}
	return &resp, nil
}
