// cmd/med-scan/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"mcp-med-scan/internal/server"
)

var (
	transport = flag.String("transport", "http", "Transport mode: http")
	port      = flag.Int("port", 8012, "Port for HTTP transport")
	host      = flag.String("host", "0.0.0.0", "Host address")
	address   = flag.String("address", "", "Address (alias for host)")
	dbPath    = flag.String("db-path", "/data/med-scan.db", "Database path")
	debug     = flag.Bool("debug", false, "Enable debug logging")
	version   = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("mcp-med-scan version 1.0.0")
		os.Exit(0)
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// Use address if provided, otherwise use host
	hostAddr := *host
	if *address != "" {
		hostAddr = *address
	}

	config := &server.Config{
		Transport: *transport,
		Host:      hostAddr,
		Port:      *port,
		DBPath:    *dbPath,
	}

	srv, err := server.NewMedScanServer(config, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("host", hostAddr).Int("port", *port).Msg("starting med scan server")
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
