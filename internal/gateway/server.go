// Package gateway exposes the resilient RPC client over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/rpcgate/internal/infra/rpc"
	"github.com/vietddude/rpcgate/internal/infra/rpc/classify"
)

// Server provides the HTTP surface: JSON-RPC proxy, endpoint status,
// blacklist reset, and Prometheus metrics.
type Server struct {
	client *rpc.Client
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a gateway server around a client.
func NewServer(client *rpc.Client, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		client: client,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: log,
	}

	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /endpoints", s.handleEndpoints)
	mux.HandleFunc("POST /endpoints/reset", s.handleReset)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      any    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if req.Method == "" {
		writeJSON(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32600, Message: "missing method"},
		})
		return
	}

	result, err := s.client.Call(r.Context(), req.Method, req.Params)
	if err != nil {
		resp := rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32000, Message: err.Error()},
		}

		var cerr *classify.ClassifiedError
		if errors.As(err, &cerr) {
			resp.Error.Message = cerr.Err.Error()
			resp.Error.Severity = cerr.Severity.String()
			resp.Error.Attempts = cerr.Attempts
		}

		// The proxy itself worked; the upstream call did not.
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.client.Snapshot()

	available := 0
	for _, st := range snapshot {
		if !st.Blacklisted {
			available++
		}
	}

	status := "ok"
	code := http.StatusOK
	if available == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"endpoints": len(snapshot),
		"available": available,
	})
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.client.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	cleared := s.client.ResetBlacklisted()
	s.log.Info("blacklist reset via API", "readmitted", cleared)
	writeJSON(w, http.StatusOK, map[string]int{"readmitted": cleared})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
