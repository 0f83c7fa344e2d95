package history

import (
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func History(opts *session.Options) *cli.Command {
	cfg := struct {
		json bool
	}{}
	return &cli.Command{
		Name:      "history",
		Usage:     "Get the history of a given item",
		ArgsUsage: "<token id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
		},
		Action: func(c *cli.Context) error {
			tokenID, err := args.TokenID(c, 0)
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

			items, err := s.Gateway.Items(ctx)
			if err != nil {
				return err
			}
			events, err := items.History(ctx, tokenID)
			if err != nil {
				return err
			}

			if cfg.json {
				return output.JSON(os.Stdout, events)
			}
			output.History(os.Stdout, events)
			return nil
		},
	}
}
