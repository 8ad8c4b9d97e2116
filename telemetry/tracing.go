// OpenTelemetry tracing support for agent observability.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps OpenTelemetry tracing with agent-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include content in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// SetDebug enables or disables debug mode (content in spans).
func (t *Tracer) SetDebug(debug bool) {
	t.debug = debug
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- LLM Spans ---

// LLMSpanOptions contains options for LLM call spans.
type LLMSpanOptions struct {
	Model     string
	Provider  string
	TokensIn  int
	TokensOut int
	Prompt    string // Only included if debug=true
	Response  string // Only included if debug=true
}

// StartLLMSpan starts a span for an LLM call.
func (t *Tracer) StartLLMSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

// EndLLMSpan ends an LLM span with attributes.
func (t *Tracer) EndLLMSpan(span trace.Span, opts LLMSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", opts.Model),
		attribute.String("llm.provider", opts.Provider),
		attribute.Int("llm.tokens.input", opts.TokensIn),
		attribute.Int("llm.tokens.output", opts.TokensOut),
	}

	if t.debug {
		if opts.Prompt != "" {
			attrs = append(attrs, attribute.String("llm.prompt", truncate(opts.Prompt, 4000)))
		}
		if opts.Response != "" {
			attrs = append(attrs, attribute.String("llm.response", truncate(opts.Response, 4000)))
		}
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Tool Spans ---

// ToolSpanOptions contains options for tool execution spans.
type ToolSpanOptions struct {
	Tool   string
	Args   map[string]interface{} // Always included (agent-controlled)
	Result string                 // Only included if debug=true
}

// StartToolSpan starts a span for a tool execution.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "tool."+toolName, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("tool.name", toolName))
	return ctx, span
}

// EndToolSpan ends a tool span with attributes.
func (t *Tracer) EndToolSpan(span trace.Span, opts ToolSpanOptions, err error) {
	// Args are always logged (agent-controlled, not user data)
	for k, v := range opts.Args {
		span.SetAttributes(attribute.String("tool.arg."+k, truncateAny(v, 500)))
	}

	// Result only in debug mode (may contain user data)
	if t.debug && opts.Result != "" {
		span.SetAttributes(attribute.String("tool.result", truncate(opts.Result, 4000)))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- RPC Spans ---

// RPCSpanOptions contains options for remote agent call spans.
type RPCSpanOptions struct {
	Endpoint  string
	Transport string // jsonrpc or invoke
	Method    string // JSON-RPC method, empty for /invoke calls
	Probes    int    // Number of method candidates tried
}

// StartRPCSpan starts a span for a remote agent call.
func (t *Tracer) StartRPCSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

// EndRPCSpan ends a remote call span with attributes.
func (t *Tracer) EndRPCSpan(span trace.Span, opts RPCSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.endpoint", opts.Endpoint),
		attribute.String("rpc.transport", opts.Transport),
	}
	if opts.Method != "" {
		attrs = append(attrs, attribute.String("rpc.method", opts.Method))
	}
	if opts.Probes > 0 {
		attrs = append(attrs, attribute.Int("rpc.probes", opts.Probes))
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// --- Helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func truncateAny(v interface{}, maxLen int) string {
	switch val := v.(type) {
	case string:
		return truncate(val, maxLen)
	default:
		return truncate(fmt.Sprintf("%v", val), maxLen)
	}
}
