package mint

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/upload"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func Mint(opts *session.Options) *cli.Command {
	cfg := struct {
		fields gateway.ItemFields
		image  string
		json   bool
	}{}
	return &cli.Command{
		Name:  "mint",
		Usage: "Mint a new item, restricted to verified artisans",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "Item name",
				Required:    true,
				Destination: &cfg.fields.Name,
			},
			&cli.StringFlag{
				Name:        "description",
				Usage:       "Item description",
				Required:    true,
				Destination: &cfg.fields.Description,
			},
			&cli.StringFlag{
				Name:        "materials",
				Usage:       "Materials the item is made of",
				Required:    true,
				Destination: &cfg.fields.Materials,
			},
			&cli.PathFlag{
				Name:        "image",
				Usage:       "Image file of the item",
				Required:    true,
				Destination: &cfg.image,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
		},
		Action: func(c *cli.Context) error {
			img, err := upload.Read(cfg.image)
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

			fmt.Fprintln(os.Stderr, "Uploading", humanize.Bytes(uint64(len(img.Data))), img.ContentType)

			minted, err := s.Mutations.MintItem(ctx, img, cfg.fields)
			if err != nil {
				return err
			}

			if cfg.json {
				return output.JSON(os.Stdout, minted)
			}
			fmt.Println("Minted item", minted.TokenID)
			fmt.Println("Token URI:", minted.TokenURI)
			fmt.Println("Image:", minted.Image.Pointer)
			fmt.Println("Tx:", minted.TxHash.Hex())
			return nil
		},
	}
}
