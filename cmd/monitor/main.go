// monitor: teacher-side server. Accepts student agent websocket
// connections, tracks the roster and class schedule, aggregates focus
// statistics and serves the dashboard websocket and reports API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoon-dev/go-classwatch/internal/config"
	"github.com/jmoon-dev/go-classwatch/internal/log"
	"github.com/jmoon-dev/go-classwatch/pkg/monitor"
	"github.com/jmoon-dev/go-classwatch/pkg/report"
	"github.com/jmoon-dev/go-classwatch/pkg/roster"
	"github.com/jmoon-dev/go-classwatch/pkg/schedule"
	"github.com/jmoon-dev/go-classwatch/pkg/store"
)

var (
	version    = "1.0.0"
	startClass = flag.Bool("start-class", false, "Start the first lesson immediately")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	log.Init(cfg.LogLevel)

	fmt.Println()
	fmt.Println("classwatch monitor v" + version)
	fmt.Println()

	st, err := openStore(cfg)
	if err != nil {
		log.Error("open store", "backend", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	engine, err := report.NewEngine(st)
	if err != nil {
		log.Error("init report engine", "error", err)
		os.Exit(1)
	}

	timer := schedule.NewTimer(schedule.DefaultConfig())
	srv := monitor.NewServer(cfg.HTTPPort, roster.NewManager(roster.DefaultConfig()), engine, timer)

	if *startClass {
		timer.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server stopped", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		return store.NewPostgres(context.Background(), cfg.DSN())
	default:
		return store.NewSQLite(cfg.SQLitePath)
	}
}
