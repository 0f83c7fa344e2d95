package list

import (
	"fmt"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/urfave/cli/v2"
)

func List(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List keystore accounts",
		Action: func(c *cli.Context) error {
			ks, err := useraccount.Open(opts.KeystoreDir)
			if err != nil {
				return err
			}

			accs := ks.Accounts()
			if len(accs) == 0 {
				fmt.Println("No accounts found")
				return nil
			}
			for _, acc := range accs {
				fmt.Println(acc.Address.Hex(), acc.URL.Path)
			}
			return nil
		},
	}
}
