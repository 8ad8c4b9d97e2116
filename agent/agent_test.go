package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prediagent/prediagent/llm"
	"github.com/prediagent/prediagent/tools"
)

func predictRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(nil)
	err := reg.Register(tools.Tool{
		Name:        "short_term_predict",
		ID:          "stp-1",
		Description: "Forecast closing prices for a ticker.",
		Args: []tools.Field{
			{Name: "ticker", Type: "string", Required: true},
			{Name: "days", Type: "int", Default: 5},
		},
		Handler: func(ctx context.Context, args tools.Args) (interface{}, error) {
			ticker, err := args.String("ticker")
			if err != nil {
				return nil, err
			}
			days := args.IntOr("days", 5)
			return map[string]interface{}{"ticker": ticker, "days": days}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRespondWithToolCall(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetToolCall("short_term_predict", map[string]interface{}{"ticker": "NVDA"})
	mock.SetResponse("NVDA should close around 182 tomorrow.")

	a := New(Config{
		Name:        "stock-agent",
		Instruction: "You forecast stock prices.",
	}, mock, predictRegistry(t), nil)

	answer, err := a.Respond(context.Background(), "What will NVDA do?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(answer, "182") {
		t.Errorf("answer = %q", answer)
	}

	// Two model calls: one returning the tool call, one finishing.
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", mock.CallCount())
	}

	// Final request carries the tool result back to the model.
	last := mock.LastRequest()
	var sawToolResult bool
	for _, m := range last.Messages {
		if m.Role == "tool" && strings.Contains(m.Content, "NVDA") {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Error("tool result not fed back to model")
	}
}

func TestRespondDirectAnswer(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse("I only forecast stocks.")

	a := New(Config{Name: "stock-agent"}, mock, predictRegistry(t), nil)
	answer, err := a.Respond(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if answer != "I only forecast stocks." {
		t.Errorf("answer = %q", answer)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestRespondToolErrorFedBack(t *testing.T) {
	// Missing required arg: the tool error goes back to the model as
	// text instead of aborting the conversation.
	mock := llm.NewMockProvider()
	mock.SetToolCall("short_term_predict", map[string]interface{}{})
	mock.SetResponse("I need a ticker symbol.")

	a := New(Config{Name: "stock-agent"}, mock, predictRegistry(t), nil)
	answer, err := a.Respond(context.Background(), "predict something")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if answer != "I need a ticker symbol." {
		t.Errorf("answer = %q", answer)
	}

	last := mock.LastRequest()
	var sawError bool
	for _, m := range last.Messages {
		if m.Role == "tool" && strings.Contains(m.Content, "tool error") {
			sawError = true
		}
	}
	if !sawError {
		t.Error("tool error not fed back to model")
	}
}

func TestRespondProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetError(fmt.Errorf("backend down"))

	a := New(Config{Name: "stock-agent"}, mock, predictRegistry(t), nil)
	if _, err := a.Respond(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestRespondMaxTurns(t *testing.T) {
	// A model that never stops calling tools hits the turn bound.
	mock := llm.NewMockProvider()
	mock.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{
			ToolCalls: []llm.ToolCallResponse{
				{ID: "tc", Name: "short_term_predict", Args: map[string]interface{}{"ticker": "NVDA"}},
			},
		}, nil
	}

	a := New(Config{Name: "stock-agent", MaxTurns: 2}, mock, predictRegistry(t), nil)
	if _, err := a.Respond(context.Background(), "loop"); err == nil {
		t.Fatal("expected error after exceeding max turns")
	}
}

func TestExecuteAndHasAction(t *testing.T) {
	a := New(Config{Name: "stock-agent"}, llm.NewMockProvider(), predictRegistry(t), nil)

	if !a.HasAction("short_term_predict") {
		t.Error("HasAction = false for registered tool")
	}
	if a.HasAction("nope") {
		t.Error("HasAction = true for unknown tool")
	}

	result, err := a.Execute(context.Background(), "short_term_predict",
		map[string]interface{}{"ticker": "NVDA"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	m, _ := result.(map[string]interface{})
	if m["ticker"] != "NVDA" || m["days"] != 5 {
		t.Errorf("result = %v", result)
	}
}

func TestCard(t *testing.T) {
	a := New(Config{
		Name:        "stock-agent",
		Description: "forecasts stock prices",
		Version:     "1.0.0",
	}, llm.NewMockProvider(), predictRegistry(t), nil)

	card := a.Card("http://localhost:8000")
	if card.PreferredTransport != "JSONRPC" {
		t.Errorf("preferredTransport = %q", card.PreferredTransport)
	}
	if card.Name != "stock-agent" || card.URL != "http://localhost:8000" {
		t.Errorf("card = %+v", card)
	}
	if len(card.Skills) != 1 || card.Skills[0].Name != "short_term_predict" || card.Skills[0].ID != "stp-1" {
		t.Errorf("skills = %+v", card.Skills)
	}
}
