// zofd - Zero of Functions daemon
// Serves the JSON API, the browser GUI and /health on one listener.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zerofn/zof/internal/infra/config"
	"github.com/zerofn/zof/internal/infra/sqlite"
	"github.com/zerofn/zof/internal/server"
	"github.com/zerofn/zof/internal/version"
)

// shutdownGrace is how long in-flight requests get to finish after
// SIGINT/SIGTERM before the listener is torn down.
const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("zofd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addr := fs.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := fs.String("db", cfg.DBPath, "SQLite database path")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if err := serve(*addr, *dbPath); err != nil {
		fmt.Fprintf(out, "zofd: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve opens the database, applies migrations and runs the HTTP server
// until SIGINT/SIGTERM. One goroutine serves; the other waits for the
// signal and shuts down with a grace period. The server owns the DB handle
// and closes it during Shutdown.
func serve(addr, dbPath string) error {
	db, err := sqlite.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("apply migrations: %w", err)
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = addr
	srv := server.NewServer(db, srvCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
