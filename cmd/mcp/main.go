package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nuncle.ai/internal/brain"
	"nuncle.ai/internal/config"
)

// A standalone MCP server that drives a remote nuncle server over its
// websocket protocol. cmd/server embeds the same tools in-process.
func main() {
	logger := log.New(os.Stdout, "[mcp] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	var (
		listen      = flag.String("listen", cfg.MCPListen, "http listen address")
		worldWSURL  = flag.String("world-ws-url", "ws://127.0.0.1"+cfg.Addr+"/v1/ws", "nuncle ws url")
		name        = flag.String("name", "brain", "player name to join as")
		token       = flag.String("token", cfg.OperatorToken, "operator token (default $NUNCLE_OPERATOR_TOKEN)")
		allowRemote = flag.Bool("allow-remote", false, "allow binding a non-loopback address")
	)
	flag.Parse()

	if !*allowRemote && !isLoopbackListenAddress(*listen) {
		logger.Fatalf("refusing MCP bind on non-loopback address %q (use -allow-remote)", *listen)
	}
	if strings.TrimSpace(*token) == "" {
		logger.Printf("no operator token: only nunclewhere will succeed")
	}

	remote := brain.NewRemote(brain.RemoteConfig{
		WorldWSURL: *worldWSURL,
		Name:       *name,
		Token:      *token,
		Logger:     logger,
	})
	remote.Start()
	defer remote.Close()

	httpSrv := &http.Server{
		Addr:              *listen,
		Handler:           brain.New(remote, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on http://%s (world ws=%s)", *listen, *worldWSURL)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("listen: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackListenAddress(addr string) bool {
	host := strings.TrimSpace(addr)
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = strings.TrimSpace(h)
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
