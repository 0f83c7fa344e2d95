package balance

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/ether"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func AccountBalance(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Get the balance of an account",
		Action: func(c *cli.Context) error {
			ks, err := useraccount.Open(opts.KeystoreDir)
			if err != nil {
				return err
			}
			account, err := useraccount.Select(ks, opts.Account)
			if err != nil {
				return err
			}

			cfg, err := opts.Config(c)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			client, err := ethclient.DialContext(ctx, cfg.NodeURL)
			if err != nil {
				return fmt.Errorf("failed to dial node: %w", err)
			}
			defer client.Close()

			balance, err := client.BalanceAt(ctx, account.Address, nil)
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			fmt.Println("Address:", account.Address.Hex())
			fmt.Println("Balance:", ether.FromWei(balance), "ETH")

			return nil
		},
	}
}
