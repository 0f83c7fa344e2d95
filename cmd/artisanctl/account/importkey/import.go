package importkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
)

func ImportAccount(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import an account using a hex private key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "privatekey",
				Aliases:  []string{"key"},
				Usage:    "Private key in hex format",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			hexKey := strings.TrimPrefix(c.String("privatekey"), "0x")
			privateKey, err := crypto.HexToECDSA(hexKey)
			if err != nil {
				return fmt.Errorf("invalid private key: %w", err)
			}

			ks, err := useraccount.Open(opts.KeystoreDir)
			if err != nil {
				return err
			}

			password, err := useraccount.NewPassword()
			if err != nil {
				return fmt.Errorf("failed to create password: %w", err)
			}

			account, err := ks.ImportECDSA(privateKey, password)
			if errors.Is(err, keystore.ErrAccountAlreadyExists) {
				return fmt.Errorf("account %s is already in the keystore", account.Address.Hex())
			}
			if err != nil {
				return fmt.Errorf("failed to encrypt keystore: %w", err)
			}

			fmt.Println("Successfully imported account")
			fmt.Println("Address:", account.Address.Hex())

			return nil
		},
	}
}
