// HTTP server lifecycle for the daemon.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/zerofn/zof/internal/api"
)

// Config carries the listener knobs zofd exposes.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns timeouts sized for the API's workload: requests are
// small JSON or form bodies and responses are bounded by the iteration cap,
// so nothing legitimate runs long.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Server ties the HTTP listener to the database it serves from. It owns
// both: Shutdown stops the listener first, then closes the DB.
type Server struct {
	db   *sql.DB
	http *http.Server
}

// NewServer builds the router over db and wraps it in a configured listener.
func NewServer(db *sql.DB, cfg Config) *Server {
	return &Server{
		db: db,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.NewRouter(db),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// Start serves until the listener stops. A graceful Shutdown surfaces as a
// nil return, not an error.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within ctx's deadline, then closes
// the database.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("shutting down")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close: %w", err)
	}
	log.Println("shutdown complete")
	return nil
}
