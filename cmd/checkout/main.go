/*
main.go - Standalone checkout function

PURPOSE:
  Serves only POST / (create-checkout) with permissive CORS, for deploying
  the checkout next to a hosted database without the back office API.

COMMAND-LINE FLAGS:
  -config    YAML configuration file (payment section)
  -port      HTTP server port (default: 8081)
  -provider  stripe | midtrans, overrides payment.provider

ENVIRONMENT:
  STRIPE_SECRET_KEY and MIDTRANS_SERVER_KEY are used when the
  configuration does not set a key. A missing key is reported per request
  as 400 {"error": ...}, not at startup.
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

	"github.com/fuego/backoffice/config"
	"github.com/fuego/backoffice/metrics"
	"github.com/fuego/backoffice/payment"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 8081, "HTTP server port")
	providerName := flag.String("provider", "", "Payment provider: stripe or midtrans")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *providerName != "" {
		cfg.Payment.Provider = *providerName
	}
	if cfg.Payment.StripeSecretKey == "" {
		cfg.Payment.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	}
	if cfg.Payment.MidtransServerKey == "" {
		cfg.Payment.MidtransServerKey = os.Getenv("MIDTRANS_SERVER_KEY")
	}

	var provider payment.Provider
	switch cfg.Payment.Provider {
	case "midtrans":
		provider = payment.NewMidtransProvider(cfg.Payment.MidtransServerKey, cfg.Payment.Production)
	default:
		provider = payment.NewStripeProvider(cfg.Payment.StripeSecretKey)
	}

	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", payment.NewHandler(provider, cfg.Payment.Currency, m).Routes())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("💳 Checkout (%s) listening on http://localhost:%d", provider.Name(), *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}
