// Package agent wires an LLM provider and a tool registry into a
// conversational forecasting agent that can also be served over a2a.
package agent

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/prediagent/prediagent/a2a"
	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/llm"
	"github.com/prediagent/prediagent/logging"
	"github.com/prediagent/prediagent/tools"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultMaxTurns bounds the tool-call loop for one user message.
const DefaultMaxTurns = 8

// Config describes an agent.
type Config struct {
	Name        string
	Description string
	Version     string

	// Instruction is the system prompt.
	Instruction string

	// MaxTurns bounds tool-call rounds per Respond call. Defaults to
	// DefaultMaxTurns.
	MaxTurns int
}

// Agent answers user messages with an LLM, executing registered tools
// when the model asks for them.
type Agent struct {
	cfg      Config
	provider llm.Provider
	registry *tools.Registry
	logger   *logging.Logger
}

// New creates an Agent.
func New(cfg Config, provider llm.Provider, registry *tools.Registry, logger *logging.Logger) *Agent {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Agent{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		logger:   logger.WithComponent("agent"),
	}
}

// Respond answers a single user message, running the tool loop until the
// model produces a final answer.
func (a *Agent) Respond(ctx context.Context, userMessage string) (string, error) {
	messages := []llm.Message{}
	if a.cfg.Instruction != "" {
		messages = append(messages, llm.Message{Role: "system", Content: a.cfg.Instruction})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		resp, err := a.provider.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    a.registry.Defs(),
		})
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrCodeLLMFailed, "model call failed")
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    a.runTool(ctx, tc),
			})
		}
	}

	return "", errors.Internal(fmt.Sprintf("no final answer after %d tool turns", a.cfg.MaxTurns))
}

// runTool executes one tool call and renders the outcome for the model.
// Tool failures go back to the model as text so it can recover or explain.
func (a *Agent) runTool(ctx context.Context, tc llm.ToolCallResponse) string {
	result, err := a.registry.Invoke(ctx, tc.Name, tc.Args)
	if err != nil {
		a.logger.Warn("tool failed", map[string]interface{}{
			"tool": tc.Name, "error": err.Error(),
		})
		return fmt.Sprintf("tool error: %v", err)
	}

	encoded, err := jsonCodec.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(encoded)
}

// Execute implements a2a.Invoker by dispatching directly to the tool
// registry, bypassing the model.
func (a *Agent) Execute(ctx context.Context, action string, args map[string]interface{}) (interface{}, error) {
	return a.registry.Invoke(ctx, action, args)
}

// HasAction implements a2a.Invoker.
func (a *Agent) HasAction(action string) bool {
	return a.registry.Has(action)
}

// Card builds the agent card advertised at the well-known path. Skills
// mirror the registered tools; JSON-RPC is the preferred transport.
func (a *Agent) Card(baseURL string) a2a.AgentCard {
	card := a2a.AgentCard{
		Name:               a.cfg.Name,
		Description:        a.cfg.Description,
		Version:            a.cfg.Version,
		URL:                baseURL,
		PreferredTransport: "JSONRPC",
	}
	for _, name := range a.registry.Names() {
		tool, ok := a.registry.Get(name)
		if !ok {
			continue
		}
		card.Skills = append(card.Skills, a2a.Skill{
			Name:        tool.Name,
			ID:          tool.ID,
			Description: tool.Description,
		})
	}
	return card
}
