package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"classping/internal/config"
	"classping/internal/domain/auth"
	"classping/internal/infra/store/sqlstore"
	"classping/internal/infra/store/supabase"
	"classping/internal/logging"

	"github.com/pressly/goose/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading configuration: %s\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg))

	cli, closeFn, err := newCommandLine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	err = cli.run(os.Args)
	closeFn()
	logging.Flush()
	if err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// newCommandLine opens the configured store without auto-migrating, so
// that "migrate" stays in control of the schema.
func newCommandLine(cfg *config.Config) (*commandLine, func(), error) {
	ctx := context.Background()
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	if cfg.Store.Driver == "supabase" {
		st, err := supabase.New(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return nil, nil, err
		}
		cli := &commandLine{
			auth: auth.NewService(st, tokens),
			migrator: func() (*goose.Provider, error) {
				return nil, errors.New("migrations are applied with the supabase CLI for the supabase driver")
			},
			out: os.Stdout,
		}
		return cli, func() { st.Close() }, nil
	}

	st, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	cli := &commandLine{
		auth:     auth.NewService(st, tokens),
		migrator: st.Migrator,
		out:      os.Stdout,
	}
	return cli, func() { st.Close() }, nil
}
