package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mindburn-Labs/commitgate/pkg/server"
)

// runHealthCmd implements `commitgate health`. It exits 0 only when the
// server answers and its authority is ready.
func runHealthCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("health", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	url := cmd.String("url", "http://localhost:8080/health", "Health endpoint")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*url)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	var h server.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		_, _ = fmt.Fprintf(stderr, "Health check failed: status %d, unreadable body: %v\n", resp.StatusCode, err)
		return 1
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = fmt.Fprintf(stderr, "Health check failed: status %d, authority %s (%s)\n", resp.StatusCode, h.Authority, h.Reason)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "OK authority=%s signer=%s\n", h.Authority, h.Signer)
	return 0
}
