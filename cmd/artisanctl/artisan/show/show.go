package show

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func Show(opts *session.Options) *cli.Command {
	cfg := struct {
		json bool
	}{}
	return &cli.Command{
		Name:      "show",
		Usage:     "Show an artisan, the current account when no address is given",
		ArgsUsage: "[address]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
		},
		Action: func(c *cli.Context) error {
			var addr common.Address
			if c.Args().Present() {
				if !common.IsHexAddress(c.Args().First()) {
					return fmt.Errorf("invalid artisan address %q", c.Args().First())
				}
				addr = common.HexToAddress(c.Args().First())
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			if addr == (common.Address{}) {
				addr = s.Wallet.Session().Address
			}

			a, err := s.Collection.Artisan(ctx, addr)
			if err != nil {
				return err
			}

			if cfg.json {
				return output.JSON(os.Stdout, a)
			}
			output.Artisan(os.Stdout, a)
			return nil
		},
	}
}
