package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/medresolve/medkb-go/internal/config"
	"github.com/medresolve/medkb-go/internal/logging"
	"github.com/medresolve/medkb-go/internal/metrics"
	"github.com/medresolve/medkb-go/internal/server"
	"github.com/medresolve/medkb-go/pkg/resolve"
)

const version = "0.1.0"

var (
	graphURI    = flag.String("graph-uri", "", "Knowledge graph Bolt URI (default: MEDKB_GRAPH_URI)")
	cachePath   = flag.String("cache-path", "", "libSQL definitions cache path (default: MEDKB_CACHE_PATH)")
	transport   = flag.String("transport", "stdio", "Transport to use: stdio or sse")
	addr        = flag.String("addr", ":8080", "Address to listen on when using SSE transport")
	sseEndpoint = flag.String("sse-endpoint", "/sse", "SSE endpoint path when using SSE transport")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, closing server...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override with command line flags if provided
	if *graphURI != "" {
		cfg.Graph.URI = *graphURI
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}

	logger := logging.New(cfg.Logging)

	// Initialize metrics (noop if disabled)
	metrics.InitFromEnv()

	service, err := resolve.NewService(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create resolution service: %v", err)
	}
	defer func() {
		if err := service.Close(context.Background()); err != nil {
			log.Printf("Error closing service: %v", err)
		}
	}()

	mcpServer := server.NewMCPServer(service, version)

	// Run the server with selected transport
	log.Println("Starting medkb-resolve MCP server...")
	switch *transport {
	case "stdio":
		go func() {
			if err := mcpServer.Run(ctx); err != nil {
				log.Printf("Server error: %v", err)
			}
		}()
	case "sse":
		go func() {
			if err := mcpServer.RunSSE(ctx, *addr, *sseEndpoint); err != nil {
				log.Printf("SSE server error: %v", err)
			}
		}()
	default:
		log.Fatalf("unknown transport: %s (expected: stdio or sse)", *transport)
	}

	<-ctx.Done()

	log.Println("Server stopped")
}
