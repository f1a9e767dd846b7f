package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Flaviohmm/mei-backend/internal/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	m, err := db.NewMigrator(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível preparar as migrações")
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps <= 0 {
				log.Fatal().Str("steps", os.Args[2]).Msg("quantidade de passos inválida")
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("nenhuma migração aplicada")
			return
		}
		if verr != nil {
			log.Fatal().Err(verr).Msg("falha ao ler versão")
		}
		fmt.Printf("versão %d (dirty=%t)\n", version, dirty)
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("falha ao aplicar migrações")
	}
	log.Info().Str("command", os.Args[1]).Msg("migrações concluídas")
}

func usage() {
	fmt.Fprintln(os.Stderr, "migrate CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  migrate up")
	fmt.Fprintln(os.Stderr, "  migrate down [passos]")
	fmt.Fprintln(os.Stderr, "  migrate version")
}
