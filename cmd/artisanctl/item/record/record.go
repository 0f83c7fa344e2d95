package record

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Record(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     "Append a provenance record to an item",
		ArgsUsage: "<token id> <record...>",
		Action: func(c *cli.Context) error {
			tokenID, err := args.TokenID(c, 0)
			if err != nil {
				return err
			}
			if c.Args().Len() < 2 {
				return fmt.Errorf("provenance record is required")
			}
			record := strings.Join(c.Args().Slice()[1:], " ")

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.AddProvenanceRecord(ctx, tokenID, record)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Provenance record", receipt.TxHash, receipt.BlockNumber.Uint64())
			return nil
		},
	}
}
