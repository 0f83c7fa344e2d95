package transfer

import (
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Transfer(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Transfer an item owned by the current account",
		ArgsUsage: "<token id> <recipient>",
		Action: func(c *cli.Context) error {
			tokenID, err := args.TokenID(c, 0)
			if err != nil {
				return err
			}
			to, err := args.Address(c, 1, "recipient")
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.Transfer(ctx, to, tokenID)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Transfer", receipt.TxHash, receipt.BlockNumber.Uint64())
			return nil
		},
	}
}
