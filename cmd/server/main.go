/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Fuego back office server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Open the remote store (optional), migrate it when reachable
  3. Open the local fallback cache
  4. Connect the kitchen event publisher (optional)
  5. Build the reconciliation service, order board and probe scheduler
  6. Configure HTTP router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (default: none, built-in defaults)
  -port    HTTP server port, overrides server.port
  -remote  Remote store driver: postgres | memory | none, overrides remote.driver
  -cache   SQLite cache path, overrides cache.path

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the order board and probe scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the cache, the event publisher and the remote pool
  5. Exit

EXAMPLES:
  # Offline only, cache in the working directory
  ./server

  # Hosted database, schema applied on start
  DATABASE_URL=postgres://... ./server -config=config.yaml

  # Everything in memory
  ./server -remote=memory -cache=":memory:"
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fuego/backoffice/api"
	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/config"
	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/metrics"
	"github.com/fuego/backoffice/payment"
	"github.com/fuego/backoffice/store"
	"github.com/fuego/backoffice/store/memory"
	"github.com/fuego/backoffice/store/postgres"
	"github.com/fuego/backoffice/store/redis"
	"github.com/fuego/backoffice/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	remoteDriver := flag.String("remote", "", "Remote store driver: postgres, memory or none")
	cachePath := flag.String("cache", "", "SQLite cache path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	switch *remoteDriver {
	case "":
	case "none":
		cfg.Remote.Driver = ""
	default:
		cfg.Remote.Driver = *remoteDriver
	}
	if *cachePath != "" {
		cfg.Cache.Driver = "sqlite"
		cfg.Cache.Path = *cachePath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	m := metrics.New()

	// Remote store
	remote, closeRemote, err := openRemote(ctx, cfg.Remote, 5)
	if err != nil {
		log.Fatalf("Failed to open remote store: %v", err)
	}
	defer closeRemote()

	// Local cache
	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	defer cache.Close()

	// Kitchen events
	var (
		publisher events.Publisher = events.Nop{}
		broker    events.Pinger
	)
	if cfg.RabbitMQ.Host != "" {
		rabbit, err := events.DialRabbit(events.RabbitConfig{
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			User:     cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
			VHost:    cfg.RabbitMQ.VHost,
			UseTLS:   cfg.RabbitMQ.TLS,
			Exchange: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			log.Printf("Warning: kitchen events disabled: %v", err)
		} else {
			defer rabbit.Close()
			publisher = rabbit
			broker = rabbit
		}
	}

	svc := backoffice.NewService(backoffice.Options{
		Remote:  remote,
		Cache:   cache,
		Events:  publisher,
		Metrics: m,
	})

	board := backoffice.NewBoard(svc)
	board.Interval = cfg.Board.RefreshInterval
	defer board.Deactivate()

	scheduler := api.NewProbeScheduler(svc, cfg.Remote.ProbeInterval)
	scheduler.Start()
	defer scheduler.Stop()
	if svc.Configured() && !scheduler.Enabled {
		// One check at boot so an unreachable store does not report online.
		svc.Probe(ctx)
	}

	// Create router
	handler := api.NewHandler(svc, board)
	handler.Events = broker
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checkout:       checkoutHandler(cfg.Payment, m),
		Metrics:        m.Handler(),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🔥 Fuego back office starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openRemote returns a nil store only when no driver is configured. An
// unreachable database keeps its pool: the service starts offline on the
// local cache and the scheduled checks bring it back online.
func openRemote(ctx context.Context, cfg config.RemoteConfig, attempts int) (store.Remote, func(), error) {
	switch cfg.Driver {
	case "memory":
		log.Println("Remote store: in-memory")
		return memory.NewRemote(), func() {}, nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.WaitReady(ctx, attempts, 2*time.Second); err != nil {
			log.Printf("Warning: remote store unreachable, starting offline on local cache: %v", err)
			return pg, pg.Close, nil
		}
		if cfg.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				log.Printf("Warning: schema migration failed: %v", err)
			} else if err := pg.SeedMenu(ctx, backoffice.DefaultMenuRows()); err != nil {
				log.Printf("Warning: menu seed failed: %v", err)
			}
		}
		log.Println("Remote store: postgres")
		return pg, pg.Close, nil
	default:
		log.Println("Remote store: not configured, running on local cache")
		return nil, func() {}, nil
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (store.KV, error) {
	switch cfg.Driver {
	case "redis":
		return redis.New(ctx, redis.Options{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
	case "memory":
		return memory.NewKV(), nil
	default:
		return sqlite.New(cfg.Path)
	}
}

func checkoutHandler(cfg config.PaymentConfig, m *metrics.Metrics) http.Handler {
	var provider payment.Provider
	switch cfg.Provider {
	case "stripe":
		provider = payment.NewStripeProvider(cfg.StripeSecretKey)
	case "midtrans":
		provider = payment.NewMidtransProvider(cfg.MidtransServerKey, cfg.Production)
	default:
		return nil
	}
	return payment.NewHandler(provider, cfg.Currency, m).Routes()
}
