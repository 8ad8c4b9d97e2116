// Package logging provides real-time console output for the agent and the
// negotiating client. The invocation result is the contract; these lines are
// observability output only, emitted at each negotiation decision point.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides leveled key=value logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Negotiation-event methods ---
// Called by the a2a client at each decision point so a reader can follow
// discovery, probing, and fallback in real time.

// CardFetch logs an agent-card discovery attempt.
func (l *Logger) CardFetch(url string) {
	l.Info("agent_card_fetch", map[string]interface{}{
		"url": url,
	})
}

// CardResult logs the outcome of an agent-card fetch.
func (l *Logger) CardResult(preferredTransport string, err error) {
	if err != nil {
		l.Warn("agent_card_absent", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	l.Info("agent_card_fetched", map[string]interface{}{
		"preferred_transport": preferredTransport,
	})
}

// Probe logs a JSON-RPC method-candidate attempt.
func (l *Logger) Probe(method, url string) {
	l.Info("jsonrpc_probe", map[string]interface{}{
		"method": method,
		"url":    url,
	})
}

// ProbeMiss logs a candidate that was rejected and will be skipped.
func (l *Logger) ProbeMiss(method, reason string) {
	l.Info("jsonrpc_probe_miss", map[string]interface{}{
		"method": method,
		"reason": reason,
	})
}

// Fallback logs the switch to the /invoke action protocol.
func (l *Logger) Fallback(url string) {
	l.Info("invoke_fallback", map[string]interface{}{
		"url": url,
	})
}

// ToolCall logs a tool invocation on the server side.
func (l *Logger) ToolCall(tool string) {
	l.Debug("tool_call", map[string]interface{}{
		"tool": tool,
	})
}

// ToolResult logs a tool result on the server side.
func (l *Logger) ToolResult(tool string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"tool":     tool,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("tool_error", fields)
	} else {
		l.Debug("tool_result", fields)
	}
}
