package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Flaviohmm/mei-backend/internal/auth"
	"github.com/Flaviohmm/mei-backend/internal/db"
	"github.com/Flaviohmm/mei-backend/internal/mail"
	"github.com/Flaviohmm/mei-backend/internal/repo"
	"github.com/Flaviohmm/mei-backend/internal/service"
	"github.com/Flaviohmm/mei-backend/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "hash" {
		if err := runHash(args); err != nil {
			log.Fatal().Err(err).Msg("falha ao gerar hash")
		}
		return
	}
	if cmd != "create" {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	accounts := service.NewAccountService(service.AccountDeps{
		Repo:   repo.New(pool),
		Mailer: mail.NewLogMailer(log.Logger),
		Logger: log.Logger,
	})

	if err := runCreate(ctx, accounts, args); err != nil {
		var verr *util.ValidationError
		if errors.As(err, &verr) {
			encoded, _ := json.MarshalIndent(verr.Fields, "", "  ")
			fmt.Fprintln(os.Stderr, string(encoded))
		}
		log.Fatal().Err(err).Msg("falha ao criar usuário")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "accounts CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  accounts create --name \"Maria Silva\" --email maria@exemplo.com --cnpj 11.222.333/0001-81 --password segredo123")
	fmt.Fprintln(os.Stderr, "  accounts hash <senha>")
}

func runCreate(ctx context.Context, accounts *service.AccountService, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		name     = fs.String("name", "", "nome do titular")
		email    = fs.String("email", "", "e-mail de acesso")
		cnpj     = fs.String("cnpj", "", "CNPJ do MEI")
		password = fs.String("password", "", "senha (mínimo 8 caracteres)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	profile, err := accounts.Register(ctx, service.RegisterInput{
		Name:     *name,
		Email:    *email,
		CNPJ:     *cnpj,
		Password: *password,
	})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(profile, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runHash(args []string) error {
	if len(args) < 1 {
		return errors.New("informe a senha")
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
