package a2a

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/logging"
	"github.com/prediagent/prediagent/telemetry"
	"github.com/prediagent/prediagent/transport"
)

// Invoker executes a named action. The a2a server maps both transports
// onto this single interface.
type Invoker interface {
	// Execute runs the action with the given arguments.
	Execute(ctx context.Context, action string, args map[string]interface{}) (interface{}, error)

	// HasAction reports whether the action exists, so unknown JSON-RPC
	// methods can be rejected with method-not-found.
	HasAction(action string) bool
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr   string // listen address, e.g. ":8000"
	Card   AgentCard
	Logger *logging.Logger

	// ReadTimeout and WriteTimeout apply to the underlying http.Server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes an Invoker over both agent transports: JSON-RPC 2.0 at
// the root and the {action, kwargs} protocol at /invoke. The agent card
// is served from the well-known path.
type Server struct {
	card    AgentCard
	invoker Invoker
	logger  *logging.Logger
	httpSrv *http.Server
}

// NewServer creates a Server for the given card and invoker.
func NewServer(cfg ServerConfig, invoker Invoker) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
	}

	s := &Server{
		card:    cfg.Card,
		invoker: invoker,
		logger:  logger.WithComponent("a2a.server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WellKnownCardPath, s.handleCard)
	mux.HandleFunc("/", s.handleRPC)
	mux.HandleFunc("/invoke", s.handleInvoke)
	mux.HandleFunc("/healthz", s.handleHealth)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Handler returns the HTTP handler, for serving through a custom listener
// or in tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe starts serving. It blocks until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("agent server listening", map[string]interface{}{"addr": s.httpSrv.Addr})
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("agent server shutting down")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	jsonCodec.NewEncoder(w).Encode(s.card)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleRPC serves JSON-RPC 2.0 at the agent root. Error codes are
// paired with HTTP statuses: -32601 with 404, -32602 and -32700 with
// 400, -32000 with 500.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invocationID := uuid.NewString()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeRPCError(w, nil, transport.ParseError, "unreadable body", http.StatusBadRequest)
		return
	}

	var req transport.Request
	if err := jsonCodec.Unmarshal(body, &req); err != nil {
		s.writeRPCError(w, nil, transport.ParseError, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeRPCError(w, req.ID, transport.InvalidRequest, "not a JSON-RPC 2.0 request", http.StatusBadRequest)
		return
	}

	action := s.resolveMethod(req.Method, req.Params)
	if !s.invoker.HasAction(action) {
		s.logger.Debug("unknown rpc method", map[string]interface{}{
			"method": req.Method, "invocation": invocationID,
		})
		s.writeRPCError(w, req.ID, transport.MethodNotFound,
			fmt.Sprintf("method %q not found", req.Method), http.StatusNotFound)
		return
	}

	args, err := extractArgs(action, req.Params)
	if err != nil {
		s.writeRPCError(w, req.ID, transport.InvalidParams, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, span := telemetry.GetTracer().StartSpan(r.Context(), "a2a.serve.rpc")
	result, err := s.invoker.Execute(ctx, action, args)
	span.End()
	if err != nil {
		s.logger.Error("rpc action failed", map[string]interface{}{
			"method": req.Method, "action": action, "invocation": invocationID, "error": err.Error(),
		})
		code, status := rpcErrorFor(err)
		s.writeRPCError(w, req.ID, code, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	jsonCodec.NewEncoder(w).Encode(transport.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  mustRaw(result),
	})
}

// resolveMethod maps the generic aliases onto a registered action:
// "model" and the agent's own name route to the action named under
// tool_inputs, or failing that to the first card skill the invoker
// knows. Registered action names pass through unchanged.
func (s *Server) resolveMethod(method string, params interface{}) string {
	if s.invoker.HasAction(method) {
		return method
	}
	if method != "model" && !strings.EqualFold(method, s.card.Name) {
		return method
	}

	if obj, ok := params.(map[string]interface{}); ok {
		if inputs, ok := obj["tool_inputs"].(map[string]interface{}); ok {
			for name := range inputs {
				if s.invoker.HasAction(name) {
					return name
				}
			}
		}
	}

	for _, skill := range s.card.Skills {
		if s.invoker.HasAction(skill.Name) {
			return skill.Name
		}
		if skill.ID != "" && s.invoker.HasAction(skill.ID) {
			return skill.ID
		}
	}
	return method
}

// extractArgs resolves the per-method arguments from JSON-RPC params.
// The canonical shape nests them under tool_inputs keyed by method name;
// a flat object is accepted for hand-written callers.
func extractArgs(method string, params interface{}) (map[string]interface{}, error) {
	if params == nil {
		return map[string]interface{}{}, nil
	}

	obj, ok := params.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("params must be an object")
	}

	if inputs, ok := obj["tool_inputs"].(map[string]interface{}); ok {
		args, ok := inputs[method].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("tool_inputs missing arguments for %q", method)
		}
		return args, nil
	}

	return obj, nil
}

// rpcErrorFor maps an execution error to a JSON-RPC code and HTTP status.
func rpcErrorFor(err error) (code, status int) {
	switch errors.Code(err) {
	case errors.ErrCodeNotFound:
		return transport.MethodNotFound, http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return transport.InvalidParams, http.StatusBadRequest
	default:
		return transport.ServerError, http.StatusInternalServerError
	}
}

func (s *Server) writeRPCError(w http.ResponseWriter, id interface{}, code int, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsonCodec.NewEncoder(w).Encode(transport.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &transport.Error{Code: code, Message: message},
	})
}

// invokeRequest is the /invoke request body.
type invokeRequest struct {
	Action string                 `json:"action"`
	Kwargs map[string]interface{} `json:"kwargs"`
}

// invokeResponse is the /invoke response body.
type invokeResponse struct {
	OK     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// handleInvoke serves the {action, kwargs} protocol. Unknown actions get
// 404, bad input 400, execution failures 500; the body always carries a
// structured {ok, result|error} object.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req invokeRequest
	if err := jsonCodec.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeInvokeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Action == "" {
		s.writeInvokeError(w, http.StatusBadRequest, "action is required")
		return
	}
	if !s.invoker.HasAction(req.Action) {
		s.writeInvokeError(w, http.StatusNotFound, fmt.Sprintf("unknown action %q", req.Action))
		return
	}
	if req.Kwargs == nil {
		req.Kwargs = map[string]interface{}{}
	}

	ctx, span := telemetry.GetTracer().StartSpan(r.Context(), "a2a.serve.invoke")
	result, err := s.invoker.Execute(ctx, req.Action, req.Kwargs)
	span.End()
	if err != nil {
		s.logger.Error("invoke action failed", map[string]interface{}{
			"action": req.Action, "error": err.Error(),
		})
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrCodeInvalidInput) {
			status = http.StatusBadRequest
		}
		s.writeInvokeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	jsonCodec.NewEncoder(w).Encode(invokeResponse{OK: true, Result: result})
}

func (s *Server) writeInvokeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsonCodec.NewEncoder(w).Encode(invokeResponse{OK: false, Error: message})
}

// mustRaw encodes v as raw JSON for a response envelope.
func mustRaw(v interface{}) []byte {
	raw, err := jsonCodec.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return raw
}
