package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
)

// HTTPTransport speaks JSON-RPC 2.0 over HTTP to one endpoint.
type HTTPTransport struct {
	name       string
	url        string
	httpClient *http.Client
	monitor    *endpoint.Monitor
}

// NewHTTPTransport creates a transport for one HTTP endpoint. The monitor
// may be nil when health tracking is not wanted.
func NewHTTPTransport(name, url string, timeout time.Duration, monitor *endpoint.Monitor) *HTTPTransport {
	return &HTTPTransport{
		name: name,
		url:  url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		monitor: monitor,
	}
}

// Name returns the endpoint name this transport is bound to.
func (t *HTTPTransport) Name() string {
	return t.name
}

// Call makes a single JSON-RPC call.
func (t *HTTPTransport) Call(ctx context.Context, method string, params []any) (any, error) {
	start := time.Now()

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, err := t.post(ctx, jsonData)
	if err != nil {
		return nil, err
	}

	var rpcResp struct {
		Result any             `json:"result"`
		Error  *map[string]any `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		t.recordFailure()
		errMsg := "unknown error"
		if msg, ok := (*rpcResp.Error)["message"].(string); ok {
			errMsg = msg
		}
		if endpoint.DetectThrottleMessage(errMsg) {
			return nil, fmt.Errorf("throttle in rpc error: %s", errMsg)
		}
		return nil, fmt.Errorf("rpc error: %s", errMsg)
	}

	if t.monitor != nil {
		t.monitor.RecordSuccess(time.Since(start))
	}
	return rpcResp.Result, nil
}

// BatchCall makes multiple RPC calls in one request.
func (t *HTTPTransport) BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error) {
	start := time.Now()

	batchReq := make([]map[string]any, len(requests))
	for i, req := range requests {
		batchReq[i] = map[string]any{
			"jsonrpc": "2.0",
			"method":  req.Method,
			"params":  req.Params,
			"id":      i + 1,
		}
	}

	jsonData, err := json.Marshal(batchReq)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	body, err := t.post(ctx, jsonData)
	if err != nil {
		return nil, err
	}

	var batchResp []struct {
		Result any             `json:"result"`
		Error  *map[string]any `json:"error"`
	}
	if err := json.Unmarshal(body, &batchResp); err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("parse batch response: %w", err)
	}

	responses := make([]BatchResponse, len(batchResp))
	for i, r := range batchResp {
		if r.Error != nil {
			errMsg := "unknown error"
			if msg, ok := (*r.Error)["message"].(string); ok {
				errMsg = msg
			}
			responses[i] = BatchResponse{Error: fmt.Errorf("rpc error: %s", errMsg)}
		} else {
			responses[i] = BatchResponse{Result: r.Result}
		}
	}

	if t.monitor != nil {
		t.monitor.RecordSuccess(time.Since(start))
	}
	return responses, nil
}

// post sends the payload and handles transport-level throttling and
// blocking signals before the caller sees the body.
func (t *HTTPTransport) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		t.recordThrottle(429)
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode == http.StatusForbidden {
		t.recordThrottle(403)
		return nil, fmt.Errorf("blocked by provider (403)")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.recordFailure()
		return nil, fmt.Errorf("unauthorized (401)")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.recordFailure()
		if endpoint.DetectThrottleMessage(string(body)) {
			return nil, fmt.Errorf("throttle detected in response: %s", string(body))
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Close cleans up resources.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) recordFailure() {
	if t.monitor != nil {
		t.monitor.RecordFailure()
	}
}

func (t *HTTPTransport) recordThrottle(statusCode int) {
	if t.monitor != nil {
		t.monitor.RecordThrottle(statusCode)
		t.monitor.RecordFailure()
	}
}
