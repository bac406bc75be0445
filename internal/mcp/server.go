// File: internal/mcp/server.go
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/config"
)

// serverName identifies this server in the initialize handshake.
const serverName = "xhs-cli"

// Server hosts the tool protocol endpoint on top of the domain services.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	order    []string
	entries  map[string]toolEntry
	version  string
	httpSrv  *http.Server
	shutdown func(context.Context) error
}

// NewServer builds a Server around the given services. version is the build
// version reported in the handshake.
func NewServer(cfg *config.Config, logger *zap.Logger, svcs Services, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("mcp"),
		entries: make(map[string]toolEntry),
		version: version,
	}
	for _, entry := range buildCatalogue(svcs) {
		s.order = append(s.order, entry.tool.Name)
		s.entries[entry.tool.Name] = entry
	}
	return s
}

// Router assembles the HTTP surface: the JSON-RPC endpoint plus a liveness
// probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Tool calls drive a real browser; they can legitimately run for
	// minutes, so the timeout comes from config rather than a constant.
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/mcp", s.handleRPC)

	return r
}

// Start serves until the context is cancelled, then drains in-flight
// requests within the configured shutdown window.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Tool server listening.",
			zap.String("address", s.httpSrv.Addr),
			zap.Int("tools", len(s.order)))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down tool server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("tool server shutdown: %w", err)
	}
	if s.shutdown != nil {
		return s.shutdown(shutdownCtx)
	}
	return nil
}

// OnShutdown registers a hook that runs after the HTTP server has drained,
// typically to close the browser manager.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.shutdown = fn
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeError(w, nil, codeParseError, "could not read request body")
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, codeParseError, "request is not valid JSON")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(w, req.ID, codeInvalidRequest, "not a JSON-RPC 2.0 request")
		return
	}

	s.logger.Debug("RPC request.", zap.String("method", req.Method))

	// Requests without an id are notifications (notifications/initialized
	// and friends); they get acknowledged, never answered.
	if req.isNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch req.Method {
	case "initialize":
		s.writeResult(w, req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: serverName, Version: s.version},
		})
	case "ping":
		s.writeResult(w, req.ID, struct{}{})
	case "tools/list":
		tools := make([]Tool, 0, len(s.order))
		for _, name := range s.order {
			tools = append(tools, s.entries[name].tool)
		}
		s.writeResult(w, req.ID, toolsListResult{Tools: tools})
	case "tools/call":
		s.handleToolCall(w, r, req)
	default:
		s.writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	var call struct {
		Name      string              `json:"name"`
		Arguments jsoniter.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &call); err != nil || call.Name == "" {
		s.writeError(w, req.ID, codeInvalidParams, "tools/call needs a tool name")
		return
	}

	entry, ok := s.entries[call.Name]
	if !ok {
		s.writeError(w, req.ID, codeInvalidParams, fmt.Sprintf("unknown tool %q", call.Name))
		return
	}

	s.logger.Info("Tool call.", zap.String("tool", call.Name))
	result := entry.handler(r.Context(), call.Arguments)

	blob, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, req.ID, codeInternalError, "could not encode the operation result")
		return
	}
	s.writeResult(w, req.ID, callResult{
		Content: []contentBlock{{Type: "text", Text: string(blob)}},
		IsError: !result.Success,
	})
}

func (s *Server) writeResult(w http.ResponseWriter, id jsoniter.RawMessage, result interface{}) {
	s.writeResponse(w, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, id jsoniter.RawMessage, code int, msg string) {
	s.writeResponse(w, rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}})
}

func (s *Server) writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Could not write RPC response.", zap.Error(err))
	}
}
