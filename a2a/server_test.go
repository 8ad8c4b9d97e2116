package a2a

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/transport"
)

// stubInvoker executes a fixed set of actions.
type stubInvoker struct {
	actions map[string]func(args map[string]interface{}) (interface{}, error)
}

func (s *stubInvoker) HasAction(action string) bool {
	_, ok := s.actions[action]
	return ok
}

func (s *stubInvoker) Execute(ctx context.Context, action string, args map[string]interface{}) (interface{}, error) {
	fn, ok := s.actions[action]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("unknown action %q", action))
	}
	return fn(args)
}

func predictInvoker() *stubInvoker {
	return &stubInvoker{
		actions: map[string]func(map[string]interface{}) (interface{}, error){
			"short_term_predict": func(args map[string]interface{}) (interface{}, error) {
				ticker, _ := args["ticker"].(string)
				if ticker == "" {
					return nil, errors.InvalidInput("ticker is required")
				}
				return map[string]interface{}{"2024-01-02": 101.5}, nil
			},
			"broken": func(map[string]interface{}) (interface{}, error) {
				return nil, errors.Internal("model blew up")
			},
		},
	}
}

func testServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	srv := NewServer(ServerConfig{
		Card: AgentCard{
			Name:               "stock-agent",
			PreferredTransport: "JSONRPC",
			Skills:             []Skill{{Name: "short_term_predict", ID: "stp-1"}},
		},
	}, predictInvoker())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv
}

func TestServerCard(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + WellKnownCardPath)
	if err != nil {
		t.Fatalf("GET card: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var card AgentCard
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if card.Name != "stock-agent" || card.PreferredTransport != "JSONRPC" {
		t.Errorf("card = %+v", card)
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "stp-1" {
		t.Errorf("skills = %+v", card.Skills)
	}
}

func TestServerRPCSuccess(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "short_term_predict",
		"params": {"tool_inputs": {"short_term_predict": {"ticker": "NVDA"}}}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var envelope transport.Response
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %v", envelope.Error)
	}

	var result map[string]interface{}
	if err := jsonCodec.Unmarshal(envelope.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !reflect.DeepEqual(result, map[string]interface{}{"2024-01-02": 101.5}) {
		t.Errorf("result = %v", result)
	}
}

func TestServerRPCFlatParams(t *testing.T) {
	// Flat params objects are accepted alongside the tool_inputs shape.
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "short_term_predict", "params": {"ticker": "NVDA"}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var envelope transport.Response
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %v", envelope.Error)
	}
}

func TestServerRPCModelAlias(t *testing.T) {
	// "model" routes to the action named under tool_inputs.
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "model",
		"params": {"tool_inputs": {"short_term_predict": {"ticker": "NVDA"}}}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope transport.Response
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %v", envelope.Error)
	}

	var result map[string]interface{}
	if err := jsonCodec.Unmarshal(envelope.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result["2024-01-02"] != 101.5 {
		t.Errorf("result = %v", result)
	}
}

func TestServerRPCAgentNameAlias(t *testing.T) {
	// The agent's own name routes through the card skills, and flat
	// params still apply to the resolved action.
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "stock-agent", "params": {"ticker": "NVDA"}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope transport.Response
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error != nil {
		t.Fatalf("unexpected error: %v", envelope.Error)
	}
}

func TestServerRPCMethodNotFound(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "does_not_exist", "params": {}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var envelope transport.Response
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.IsMethodNotFound() {
		t.Errorf("error = %v, want -32601", envelope.Error)
	}
}

func TestServerRPCInvalidParams(t *testing.T) {
	ts, _ := testServer(t)

	// tool_inputs present but missing this method's arguments.
	body := `{"jsonrpc": "2.0", "id": 1, "method": "short_term_predict",
		"params": {"tool_inputs": {}}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var envelope transport.Response
	jsonCodec.NewDecoder(resp.Body).Decode(&envelope)
	if envelope.Error == nil || envelope.Error.Code != transport.InvalidParams {
		t.Errorf("error = %v, want -32602", envelope.Error)
	}
}

func TestServerRPCParseError(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var envelope transport.Response
	jsonCodec.NewDecoder(resp.Body).Decode(&envelope)
	if envelope.Error == nil || envelope.Error.Code != transport.ParseError {
		t.Errorf("error = %v, want -32700", envelope.Error)
	}
}

func TestServerRPCExecutionError(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "broken", "params": {}}`
	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	var envelope transport.Response
	jsonCodec.NewDecoder(resp.Body).Decode(&envelope)
	if envelope.Error == nil || envelope.Error.Code != transport.ServerError {
		t.Errorf("error = %v, want -32000", envelope.Error)
	}
}

func TestServerInvokeSuccess(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"action": "short_term_predict", "kwargs": {"ticker": "NVDA"}}`
	resp, err := http.Post(ts.URL+"/invoke", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out invokeResponse
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.OK {
		t.Errorf("ok = false, error = %s", out.Error)
	}
	result, _ := out.Result.(map[string]interface{})
	if result["2024-01-02"] != 101.5 {
		t.Errorf("result = %v", out.Result)
	}
}

func TestServerInvokeUnknownAction(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"action": "nope", "kwargs": {}}`
	resp, err := http.Post(ts.URL+"/invoke", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var out invokeResponse
	jsonCodec.NewDecoder(resp.Body).Decode(&out)
	if out.OK {
		t.Error("ok = true for unknown action")
	}
}

func TestServerInvokeBadInput(t *testing.T) {
	ts, _ := testServer(t)

	body := `{"action": "short_term_predict", "kwargs": {}}`
	resp, err := http.Post(ts.URL+"/invoke", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServerHealth(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestClientAgainstServer(t *testing.T) {
	// Full negotiation against the real server: the card prefers
	// JSON-RPC and the server accepts the first candidate, "model".
	ts, _ := testServer(t)

	client := NewClient(ClientConfig{})
	result, err := client.Invoke(context.Background(), ts.URL, "short_term_predict",
		map[string]interface{}{"ticker": "NVDA"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !reflect.DeepEqual(result, map[string]interface{}{"2024-01-02": 101.5}) {
		t.Errorf("result = %v", result)
	}
}
