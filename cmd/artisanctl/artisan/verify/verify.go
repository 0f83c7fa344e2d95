package verify

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func Verify(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify an artisan, restricted to the registry owner",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 || !common.IsHexAddress(c.Args().First()) {
				return fmt.Errorf("artisan address is required")
			}
			artisan := common.HexToAddress(c.Args().First())

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.VerifyArtisan(ctx, artisan)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Verification", receipt.TxHash, receipt.BlockNumber.Uint64())
			return nil
		},
	}
}
