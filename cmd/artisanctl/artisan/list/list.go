package list

import (
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func List(opts *session.Options) *cli.Command {
	cfg := struct {
		json bool
	}{}
	return &cli.Command{
		Name:  "list",
		Usage: "List verified artisans",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			artisans, err := s.Collection.ListArtisans(ctx)
			if err != nil {
				return err
			}

			if cfg.json {
				return output.JSON(os.Stdout, artisans)
			}
			output.Artisans(os.Stdout, artisans)
			return nil
		},
	}
}
