package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"nuncle.ai/internal/brain"
	"nuncle.ai/internal/config"
	"nuncle.ai/internal/persistence/indexdb"
	persistlog "nuncle.ai/internal/persistence/log"
	"nuncle.ai/internal/relay/discord"
	"nuncle.ai/internal/sim/host"
	"nuncle.ai/internal/sim/tuning"
	"nuncle.ai/internal/telemetry"
	"nuncle.ai/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		addr       = flag.String("addr", cfg.Addr, "http listen address")
		dataDir    = flag.String("data", cfg.DataDir, "runtime data directory")
		tuningPath = flag.String("tuning", cfg.TuningPath, "path to tuning.yaml (empty: built-in defaults)")
		mcpListen  = flag.String("mcp_listen", cfg.MCPListen, "MCP http listen address (empty to disable)")
		disableDB  = flag.Bool("disable_db", cfg.DisableDB, "disable the sqlite index")
	)
	flag.Parse()

	tune := tuning.Defaults()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		tune, err = tuning.Load(tp)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	logOpts := persistlog.Options{Rotate: cfg.LogRotate, Keep: cfg.LogKeep}
	tickLog := persistlog.NewTickLogger(*dataDir, logOpts)
	auditLog := persistlog.NewAuditLogger(*dataDir, logOpts)
	defer tickLog.Close()
	defer auditLog.Close()
	opts := host.Options{
		Logger:   log.New(os.Stdout, "[nuncle] ", log.LstdFlags|log.Lmicroseconds),
		TickLog:  []host.TickLogger{tickLog},
		AuditLog: []host.AuditLogger{auditLog},
	}

	// Optional read-model index (does not affect the simulation).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "nuncle.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		opts.TickLog = append(opts.TickLog, idx)
		opts.AuditLog = append(opts.AuditLog, idx)
	}

	prov, err := telemetry.NewProvider()
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}
	defer prov.Shutdown(context.Background())
	metrics, err := telemetry.NewMetrics(prov.MeterProvider())
	if err != nil {
		logger.Fatalf("metrics: %v", err)
	}
	opts.Observers = append(opts.Observers, metrics)

	h := host.New(tune, opts)

	ctx, cancel := signalContext()
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := h.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.DiscordEnabled() {
		relay, err := discord.Open(cfg.DiscordToken, cfg.DiscordChannel, log.New(os.Stdout, "[discord] ", log.LstdFlags))
		if err != nil {
			logger.Fatalf("discord: %v", err)
		}
		defer relay.Close()
		unsub := h.OnBroadcast(relay.Enqueue)
		defer unsub()
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		logger.Printf("discord relay disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		written, pruned := tickLog.Stats()
		resp := map[string]any{"ok": true, "tick": h.Tick(), "events": map[string]any{"written": written, "pruned": pruned}}
		if idx != nil {
			resp["index"] = idx.Stats()
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.Handle("/metrics", prov.Handler())
	mux.HandleFunc("/v1/ws", ws.NewServer(h, ws.Options{
		OperatorToken: cfg.OperatorToken,
		Logger:        log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds),
	}).Handler())
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (NUNCLE_ENABLE_PPROF=false)")
	}
	serve(g, gctx, logger, "http", *addr, mux)

	if listen := strings.TrimSpace(*mcpListen); listen != "" {
		b := brain.New(h, log.New(os.Stdout, "[brain] ", log.LstdFlags|log.Lmicroseconds))
		serve(g, gctx, logger, "mcp", listen, b.Handler())
	} else {
		logger.Printf("MCP disabled (mcp_listen empty)")
	}

	if err := g.Wait(); err != nil {
		logger.Fatalf("server: %v", err)
	}
	logger.Printf("stopped at tick %d", h.Tick())
}

// serve runs an http server in g until ctx is done.
func serve(g *errgroup.Group, ctx context.Context, logger *log.Logger, name, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	g.Go(func() error {
		logger.Printf("%s listening on %s", name, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
