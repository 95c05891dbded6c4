package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vietddude/rpcgate/internal/infra/rpc"
	"github.com/vietddude/rpcgate/internal/infra/rpc/transport"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	INFURA_URL := os.Getenv("INFURA_URL")
	ALCHEMY_URL := os.Getenv("ALCHEMY_URL")
	if INFURA_URL == "" {
		log.Fatalf("INFURA_URL is not set")
	}
	if ALCHEMY_URL == "" {
		log.Fatalf("ALCHEMY_URL is not set")
	}

	ctx := context.Background()

	// 1. Endpoint pool
	manager, err := rpc.NewManager([]rpc.Endpoint{
		{Name: "alchemy", URL: ALCHEMY_URL, Protocol: rpc.ProtocolHTTP},
		{Name: "infura", URL: INFURA_URL, Protocol: rpc.ProtocolHTTP},
	})
	if err != nil {
		log.Fatalf("Failed to build endpoint pool: %v", err)
	}

	// 2. One transport per endpoint, sharing the pool's health monitors
	transports := map[string]transport.Transport{
		"alchemy": rpc.NewHTTPTransport("alchemy", ALCHEMY_URL, 30*time.Second, manager.Monitor("alchemy")),
		"infura":  rpc.NewHTTPTransport("infura", INFURA_URL, 30*time.Second, manager.Monitor("infura")),
	}

	// 3. Client with retry orchestration and default blacklist policy
	client, err := rpc.NewClient(manager, transports, rpc.DefaultRetryConfig, rpc.DefaultBlacklistPolicy, nil)
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}
	defer client.Close()

	fmt.Println("=== Testing resilient RPC calls ===")

	// 4. Round-robin across both endpoints
	for i := 0; i < 5; i++ {
		result, err := client.Call(ctx, "eth_blockNumber", []any{})
		if err != nil {
			log.Printf("Call %d failed: %v", i+1, err)
			continue
		}
		fmt.Printf("Call %d: Block = %s\n", i+1, result.(string))

		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println()

	// 5. Show endpoint health
	fmt.Println("=== Endpoint Status ===")
	for _, st := range client.Snapshot() {
		fmt.Printf("%s:\n", st.Name)
		fmt.Printf("  Health: %s\n", st.Monitor.StateName)
		fmt.Printf("  Blacklisted: %v\n", st.Blacklisted)
		if st.BlacklistCount > 0 {
			fmt.Printf("  Blacklist count: %d\n", st.BlacklistCount)
		}
	}
}
