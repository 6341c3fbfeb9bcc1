package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"

	"galleria/internal/config"
	"galleria/internal/server"
)

func main() {
	cfg := config.MustLoad()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise server")
	}

	done := make(chan bool, 1)

	go s.GracefulShutdown(done)

	err = s.Start(ctx)
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
