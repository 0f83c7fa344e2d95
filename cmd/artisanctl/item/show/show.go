package show

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/urfave/cli/v2"
)

func Show(opts *session.Options) *cli.Command {
	cfg := struct {
		json     bool
		metadata bool
	}{}
	return &cli.Command{
		Name:      "show",
		Usage:     "Show an item with its provenance",
		ArgsUsage: "<token id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
			&cli.BoolFlag{
				Name:        "metadata",
				Usage:       "Also fetch the metadata document from the content store",
				Destination: &cfg.metadata,
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

			item, err := s.Collection.Item(ctx, tokenID)
			if err != nil {
				return err
			}

			var md *content.ItemMetadata
			if cfg.metadata {
				m, err := s.Resolver.ItemMetadata(ctx, item.TokenURI)
				if err != nil {
					return err
				}
				md = &m
			}

			if cfg.json {
				return output.JSON(os.Stdout, struct {
					Item     *collection.Entry     `json:"item"`
					Metadata *content.ItemMetadata `json:"metadata,omitempty"`
				}{item, md})
			}

			output.Item(os.Stdout, item)
			if md != nil {
				image, err := s.Resolver.Locate(md.Image)
				if err != nil {
					image = md.Image
				}
				fmt.Println("Image:      ", image)
				for _, a := range md.Attributes {
					fmt.Printf("  %s: %s\n", a.TraitType, a.Value)
				}
			}
			return nil
		},
	}
}
