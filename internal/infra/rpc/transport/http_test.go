package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
)

func jsonrpcServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPTransportCall(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["method"] != "eth_blockNumber" {
			t.Errorf("method = %v, want eth_blockNumber", req["method"])
		}
		if req["jsonrpc"] != "2.0" {
			t.Errorf("jsonrpc = %v, want 2.0", req["jsonrpc"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "0x10"})
	})

	mon := endpoint.NewMonitor()
	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, mon)
	defer tr.Close()

	result, err := tr.Call(context.Background(), "eth_blockNumber", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x10" {
		t.Errorf("result = %v, want 0x10", result)
	}
	if mon.GetStats().SuccessCount != 1 {
		t.Error("monitor should record the success")
	}
}

func TestHTTPTransportRateLimited(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	mon := endpoint.NewMonitor()
	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, mon)
	defer tr.Close()

	_, err := tr.Call(context.Background(), "eth_blockNumber", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should carry the status code for classification", err)
	}
	if mon.GetStats().Throttle429 != 1 {
		t.Error("monitor should record the throttle")
	}
}

func TestHTTPTransportBlocked(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	mon := endpoint.NewMonitor()
	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, mon)
	defer tr.Close()

	_, err := tr.Call(context.Background(), "eth_blockNumber", nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("error = %v, want 403 marker", err)
	}
	if mon.State() != endpoint.StateBlocked {
		t.Errorf("monitor state = %v, want blocked", mon.State())
	}
}

func TestHTTPTransportUnauthorized(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, nil)
	defer tr.Close()

	_, err := tr.Call(context.Background(), "eth_blockNumber", nil)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("error = %v, want 401 marker", err)
	}
}

func TestHTTPTransportRPCError(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32000, "message": "execution reverted"},
		})
	})

	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, nil)
	defer tr.Close()

	_, err := tr.Call(context.Background(), "eth_call", nil)
	if err == nil || !strings.Contains(err.Error(), "execution reverted") {
		t.Fatalf("error = %v, want rpc error message preserved", err)
	}
}

func TestHTTPTransportThrottleInRPCError(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32005, "message": "daily request count exceeded"},
		})
	})

	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, nil)
	defer tr.Close()

	_, err := tr.Call(context.Background(), "eth_getLogs", nil)
	if err == nil || !strings.Contains(err.Error(), "throttle in rpc error") {
		t.Fatalf("error = %v, want throttle detection", err)
	}
}

func TestHTTPTransportBatchCall(t *testing.T) {
	srv := jsonrpcServer(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			t.Fatalf("bad batch body: %v", err)
		}
		out := make([]map[string]any, len(reqs))
		for i := range reqs {
			out[i] = map[string]any{"jsonrpc": "2.0", "id": reqs[i]["id"], "result": "0x1"}
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	tr := NewHTTPTransport("test", srv.URL, 5*time.Second, nil)
	defer tr.Close()

	responses, err := tr.BatchCall(context.Background(), []BatchRequest{
		{Method: "eth_blockNumber"},
		{Method: "eth_chainId"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	for i, resp := range responses {
		if resp.Error != nil {
			t.Errorf("response %d error: %v", i, resp.Error)
		}
		if resp.Result != "0x1" {
			t.Errorf("response %d result = %v, want 0x1", i, resp.Result)
		}
	}
}
