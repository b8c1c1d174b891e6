package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	apiAddr := flag.String("api", "http://localhost:4000", "HTTP API base URL")
	grpcAddr := flag.String("grpc", "localhost:50051", "gRPC health address (empty to skip)")
	destination := flag.String("destination", "杭州", "Destination")
	days := flag.Int("days", 3, "Trip length in days")
	budget := flag.String("budget", "", "Budget hint")
	companions := flag.String("companions", "", "Travel companions")
	preferences := flag.String("preferences", "", "Preferences")
	timeout := flag.Duration("timeout", 2*time.Minute, "Request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *grpcAddr != "" {
		checkHealth(ctx, *grpcAddr)
	}

	body, err := json.Marshal(map[string]any{
		"destination": *destination,
		"days":        *days,
		"budget":      *budget,
		"companions":  *companions,
		"preferences": *preferences,
	})
	if err != nil {
		log.Fatalf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *apiAddr+"/api/plan", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("plan failed: status=%d body=%s", resp.StatusCode, data)
	}

	var out struct {
		Plan string `json:"plan"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Fatalf("failed to decode response: %v", err)
	}
	log.Printf("Received plan in %v (%d chars)", time.Since(start).Round(time.Millisecond), len([]rune(out.Plan)))
	log.Println(out.Plan)
}

func checkHealth(ctx context.Context, addr string) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	log.Printf("Server health: %s", resp.GetStatus())
}
