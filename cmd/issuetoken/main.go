// cmd/issuetoken: signs a bearer token for the admin routes with JWT_SECRET.
// Usage: go run ./cmd/issuetoken -user lucia -rol operador -ttl 720h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"hexagono/internal/config"
	"hexagono/internal/middleware"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	user := flag.String("user", "", "operator name, recorded as the author of status changes")
	rol := flag.String("rol", middleware.RoleOperador, "admin | operador")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *user == "" {
		log.Fatal().Msg("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	token, err := middleware.SignToken(cfg.JWTSecret, *user, *rol, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot sign token")
	}
	log.Info().Str("user", *user).Str("rol", *rol).Time("expires", time.Now().Add(*ttl)).Msg("token issued")
	fmt.Println(token)
}
