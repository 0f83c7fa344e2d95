package update

import (
	"fmt"
	"os"
	"os/signal"

		"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/upload"
	"github.com/chennaiartisanal/provenance/market/mutation"
	"github.com/urfave/cli/v2"
)

// Update edits an item. Fields that are not given keep their current value.
func Update(opts *session.Options) *cli.Command {
	cfg := struct {
		name        string
		description string
		materials   string
		image       string
	}{}
	return &cli.Command{
		Name:      "update",
		Usage:     "Update the details of an item",
		ArgsUsage: "<token id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "New item name",
				Destination: &cfg.name,
			},
			&cli.StringFlag{
				Name:        "description",
				Usage:       "New item description",
				Destination: &cfg.description,
			},
			&cli.StringFlag{
				Name:        "materials",
				Usage:       "New materials",
				Destination: &cfg.materials,
			},
			&cli.PathFlag{
				Name:        "image",
				Usage:       "Replacement image file",
				Destination: &cfg.image,
			},
		},
		Action: func(c *cli.Context) error {
			tokenID, err := args.TokenID(c, 0)
			if err != nil {
				return err
			}

			var img *mutation.Image
			if cfg.image != "" {
				i, err := upload.Read(cfg.image)
				if err != nil {
					return err
				}
				img = &i
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			current, err := s.Collection.Item(ctx, tokenID)
			if err != nil {
				return err
			}
			fields := current.ItemFields
			if c.IsSet("name") {
				fields.Name = cfg.name
			}
			if c.IsSet("description") {
				fields.Description = cfg.description
			}
			if c.IsSet("materials") {
				fields.Materials = cfg.materials
			}

			updated, err := s.Mutations.UpdateItem(ctx, tokenID, fields, img)
			if err != nil {
				return err
			}

			fmt.Println("Updated item", tokenID)
			if updated.Reissued {
				fmt.Println("New token URI:", updated.TokenURI)
			}
			fmt.Println("Tx:", updated.TxHash.Hex())
			return nil
		},
	}
}
