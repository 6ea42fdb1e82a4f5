// Package launchpadd parses launchpad server flags and starts the presale
// engine runtime.
package launchpadd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/qerralabs/launchpad/internal/api/httpapi"
	"github.com/qerralabs/launchpad/internal/auth"
	entrypoint "github.com/qerralabs/launchpad/internal/platform/cmd"
	"github.com/qerralabs/launchpad/internal/presale"
	"github.com/qerralabs/launchpad/internal/storage/sqlite"
	"github.com/qerralabs/launchpad/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Config holds launchpad server configuration.
type Config struct {
	Port   int    `env:"LAUNCHPAD_PORT" envDefault:"8080"`
	Addr   string `env:"LAUNCHPAD_ADDR"`
	DBPath string `env:"LAUNCHPAD_DB_PATH" envDefault:"launchpad.db"`
	// AuthDisabled turns off bearer verification; caller identity is then
	// read from the X-Caller-Identity header. Local development only.
	AuthDisabled bool `env:"LAUNCHPAD_AUTH_DISABLED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the presale engine API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLaunchpad, func(ctx context.Context) error {
		return serve(ctx, cfg)
	})
}

func serve(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}()

	var verifier *auth.VerifierConfig
	if cfg.AuthDisabled {
		log.Printf("bearer auth disabled; trusting the caller identity header")
	} else {
		loaded, err := auth.LoadVerifierConfigFromEnv(nil)
		if err != nil {
			return fmt.Errorf("load auth config: %w", err)
		}
		verifier = &loaded
	}

	service := presale.NewService(store, telemetry.NewEmitter(store))
	handler := httpapi.NewRouter(httpapi.Config{Service: service, Verifier: verifier})

	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	log.Printf("launchpad listening on %s", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
