package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pressly/goose/v3"
)

var migrateFunc = runMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	provider, err := cli.migrator()
	if err != nil {
		return err
	}
	return migrateFunc(context.Background(), provider, cli.out, args[0], args[1:]...)
}

func runMigration(ctx context.Context, p *goose.Provider, out io.Writer, command string, args ...string) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		printResults(out, results...)
		return err
	case "up-by-one":
		res, err := p.UpByOne(ctx)
		printResults(out, res)
		return err
	case "up-to":
		version, err := versionArg(command, args)
		if err != nil {
			return err
		}
		results, err := p.UpTo(ctx, version)
		printResults(out, results...)
		return err
	case "down":
		res, err := p.Down(ctx)
		printResults(out, res)
		return err
	case "down-to":
		version, err := versionArg(command, args)
		if err != nil {
			return err
		}
		results, err := p.DownTo(ctx, version)
		printResults(out, results...)
		return err
	case "redo":
		res, err := p.Down(ctx)
		printResults(out, res)
		if err != nil {
			return err
		}
		res, err = p.UpByOne(ctx)
		printResults(out, res)
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		printResults(out, results...)
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-8d %-10s %s\n", s.Source.Version, s.State, applied)
		}
		return nil
	case "version":
		version, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d\n", version)
		return nil
	default:
		return fmt.Errorf("%q: no such command", command)
	}
}

func versionArg(command string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
	}
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("version must be a number (got '%s')", args[0])
	}
	return version, nil
}

func printResults(out io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(out, "%s %d (%s)\n", r.Direction, r.Source.Version, r.Duration)
	}
}
