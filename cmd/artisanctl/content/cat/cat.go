package cat

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func Cat(opts *session.Options) *cli.Command {
	cfg := struct {
		out string
	}{}
	return &cli.Command{
		Name:      "cat",
		Usage:     "Print the object behind a content pointer",
		ArgsUsage: "<ipfs://cid | cid | url>",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "Write the object to a file instead of stdout",
				Destination: &cfg.out,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			pointer := c.Args().First()
			if pointer == "" {
				return fmt.Errorf("content pointer is required")
			}

			settings, err := opts.Config(c)
			if err != nil {
				return err
			}
			resolver, err := content.NewResolver(settings.Content.Gateway)
			if err != nil {
				return err
			}

			obj, err := resolver.Resolve(ctx, pointer)
			if err != nil {
				return err
			}

			if cfg.out != "" {
				if err := os.WriteFile(cfg.out, obj.Data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", cfg.out, err)
				}
				fmt.Fprintln(os.Stderr, "Wrote", humanize.Bytes(uint64(len(obj.Data))), obj.ContentType, "to", cfg.out)
				return nil
			}
			if obj.IsJSON() {
				return output.JSON(os.Stdout, obj.Value)
			}
			_, err = os.Stdout.Write(obj.Data)
			return err
		},
	}
}
