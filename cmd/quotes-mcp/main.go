// Command quotes-mcp serves the quote calculators and the status lookup over
// MCP stdio. Without a reachable database only the calculators are offered.
package main

import (
	"os"

	"hexagono/internal/config"
	"hexagono/internal/infra"
	"hexagono/internal/mcptools"
	"hexagono/internal/repository"
	"hexagono/internal/service"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is set at build time with -ldflags.
var Version = "dev"

func main() {
	// stdout carries the protocol; logs go to stderr only.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	deps := service.QuoteServiceDeps{Location: loc}
	var status mcptools.StatusReader

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("postgres unavailable, quote_status disabled")
	} else {
		deps.Repo = repository.NewQuoteRepository(db)
	}

	svc := service.NewQuoteService(deps)
	if deps.Repo != nil {
		status = svc
	}

	log.Info().Str("version", Version).Bool("status_tool", status != nil).Msg("quotes MCP server starting")
	if err := server.ServeStdio(mcptools.NewServer(Version, svc, status)); err != nil {
		log.Fatal().Err(err).Msg("mcp server error")
	}
}
