package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/vietddude/rpcgate/internal/control"
	"github.com/vietddude/rpcgate/internal/core/config"
)

// TestGateway_Live exercises the full stack against a real JSON-RPC
// provider. Gated behind E2E_LIVE so CI stays hermetic.
//
//	E2E_LIVE=1 RPC_URL=https://eth.llamarpc.com go test ./tests/e2e/
func TestGateway_Live(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("Skipping live test. Set E2E_LIVE=1 to run.")
	}
	_ = godotenv.Load("../../.env")

	url := os.Getenv("RPC_URL")
	if url == "" {
		t.Fatal("RPC_URL must be set for live tests")
	}

	cfg := control.Config{
		Port: 18080,
		Endpoints: []config.EndpointConfig{
			{Name: "live", URL: url, Protocol: "http", Timeout: config.Duration(15 * time.Second)},
		},
		Retry: config.RetryConfig{
			MaxRetries: 3,
			BaseDelay:  config.Duration(time.Second),
			MaxDelay:   config.Duration(10 * time.Second),
		},
	}

	ctx := context.Background()
	gw, err := control.NewGateway(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}
	defer gw.Stop(ctx)

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := gw.Client().Call(callCtx, "eth_blockNumber", nil)
	if err != nil {
		t.Fatalf("eth_blockNumber failed: %v", err)
	}

	block, ok := result.(string)
	if !ok || len(block) < 3 || block[:2] != "0x" {
		t.Errorf("eth_blockNumber = %v, want hex quantity", result)
	}
	t.Logf("Live block number: %s", block)

	// A second call should rotate to the same (only) endpoint without
	// tripping the blacklist.
	if _, err := gw.Client().Call(callCtx, "eth_chainId", nil); err != nil {
		t.Errorf("eth_chainId failed: %v", err)
	}

	snapshot := gw.Client().Snapshot()
	if len(snapshot) != 1 || snapshot[0].Blacklisted {
		t.Errorf("endpoint should remain healthy after live calls: %+v", snapshot)
	}
}
