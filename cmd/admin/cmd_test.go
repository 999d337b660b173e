package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"classping/internal/common"
	"classping/internal/domain/auth"
	"classping/internal/infra/store/sqlstore"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*commandLine, *sqlstore.Store, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()

	st, err := sqlstore.Open(ctx, "sqlite", "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	out := &bytes.Buffer{}
	return &commandLine{
		auth:     auth.NewService(st, auth.NewTokens("secret", time.Hour)),
		migrator: st.Migrator,
		out:      out,
	}, st, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var gotCommand string
	migrateFunc = func(ctx context.Context, p *goose.Provider, out io.Writer, command string, args ...string) error {
		gotCommand = command
		switch command {
		case "up-to", "down-to":
			_, err := versionArg(command, args)
			return err
		case "up", "up-by-one", "down", "redo", "reset", "status", "version":
			return nil
		}
		return runMigration(ctx, p, out, command, args...)
	}
	t.Cleanup(func() { migrateFunc = runMigration })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: migrate up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: migrate down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.args[1], gotCommand)
			}
		})
	}
}

func Test_runMigration(t *testing.T) {
	cli, _, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "migrate", "version"}))
	assert.Contains(t, out.String(), "version 1")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "migrate", "status"}))
	assert.Contains(t, out.String(), "applied")
}

func Test_commandLine_addUser(t *testing.T) {
	cli, st, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"adduser", "-email", "ops@example.com"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-email", "ops@example.com", "-name", "Ops"}, pwd: "s3cret!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			u, err := st.GetUserByEmail(context.Background(), "ops@example.com")
			require.NoError(t, err)
			assert.Equal(t, "Ops", u.FullName)
			assert.True(t, auth.CheckPassword(u.PasswordHash, tt.pwd))
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("other"), nil }
		err := cli.run([]string{"admin", "adduser", "-email", "OPS@example.com"})
		var conflict *common.ConflictError
		assert.True(t, errors.As(err, &conflict))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, st, _ := setup(t)

	usr, err := cli.auth.CreateUser(context.Background(), "awe@example.com", "Awe", "old-password")
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@example.com"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@example.com"}, pwd: "lol", wantErrStr: "user with id 'lol@example.com' not found"},
		{name: "reset", args: []string{"resetpassword", "-email", "awe@example.com"}, pwd: "lmao-new"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				refreshed, err := st.GetUser(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.True(t, auth.CheckPassword(refreshed.PasswordHash, tt.pwd))
				assert.False(t, strings.EqualFold(refreshed.PasswordHash, usr.PasswordHash))
			}
		})
	}
}
