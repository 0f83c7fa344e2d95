package create

import (
	"fmt"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/urfave/cli/v2"
)

func Create(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new account",
		Action: func(c *cli.Context) error {
			ks, err := useraccount.Open(opts.KeystoreDir)
			if err != nil {
				return err
			}

			password, err := useraccount.NewPassword()
			if err != nil {
				return fmt.Errorf("failed to create password: %w", err)
			}

			account, err := ks.NewAccount(password)
			if err != nil {
				return fmt.Errorf("failed to create new account: %w", err)
			}

			fmt.Println("New account created", account.URL.Path)
			fmt.Println("Address:", account.Address.Hex())

			return nil
		},
	}
}
