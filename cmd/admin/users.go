package main

import (
	"context"
	"fmt"
)

// addUser creates an account with the given password.
func (cli *commandLine) addUser(email, name, pwd string) error {
	u, err := cli.auth.CreateUser(context.Background(), email, name, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %d created (%s)\n", u.ID, u.Email)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.auth.ResetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password updated for %s\n", email)
	return nil
}
