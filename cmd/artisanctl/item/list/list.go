package list

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

func List(opts *session.Options) *cli.Command {
	cfg := struct {
		offset        int
		limit         int
		includeHidden bool
		owner         string
		artisan       string
		mine          bool
		where         string
		json          bool
	}{}
	return &cli.Command{
		Name:  "list",
		Usage: "List items",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "offset",
				Usage:       "Number of visible items to skip",
				Value:       collection.DefaultOffset,
				Destination: &cfg.offset,
			},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "Maximum number of items to list",
				Value:       collection.DefaultLimit,
				Destination: &cfg.limit,
			},
			&cli.BoolFlag{
				Name:        "include-hidden",
				Usage:       "Also list items hidden on this machine",
				Destination: &cfg.includeHidden,
			},
			&cli.StringFlag{
				Name:        "owner",
				Usage:       "Only items owned by this address",
				Destination: &cfg.owner,
			},
			&cli.StringFlag{
				Name:        "artisan",
				Usage:       "Only items minted by this artisan",
				Destination: &cfg.artisan,
			},
			&cli.BoolFlag{
				Name:        "mine",
				Usage:       "Only items owned by the current account",
				Destination: &cfg.mine,
			},
			&cli.StringFlag{
				Name:        "where",
				Usage:       `Filter such as 'materials = "Clay" && created >= 1700000000'`,
				Destination: &cfg.where,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "Print JSON",
				Destination: &cfg.json,
			},
		},
		Action: func(c *cli.Context) error {
			if cfg.offset < 0 || cfg.limit < 0 {
				return fmt.Errorf("offset and limit must not be negative")
			}

			selectors := 0
			for _, set := range []bool{cfg.owner != "", cfg.artisan != "", cfg.mine, cfg.where != ""} {
				if set {
					selectors++
				}
			}
			if selectors > 1 {
				return fmt.Errorf("--owner, --artisan, --mine and --where are mutually exclusive")
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			var entries []collection.Entry
			switch {
			case cfg.owner != "":
				if !common.IsHexAddress(cfg.owner) {
					return fmt.Errorf("invalid owner address %q", cfg.owner)
				}
				entries, err = s.Collection.ListItemsByOwner(ctx, common.HexToAddress(cfg.owner))
			case cfg.artisan != "":
				if !common.IsHexAddress(cfg.artisan) {
					return fmt.Errorf("invalid artisan address %q", cfg.artisan)
				}
				entries, err = s.Collection.ListItemsByArtisan(ctx, common.HexToAddress(cfg.artisan))
			case cfg.mine:
				entries, err = s.Collection.ItemsOfOwner(ctx, s.Wallet.Session().Address)
			case cfg.where != "":
				entries, err = s.Collection.Search(ctx, cfg.where, cfg.includeHidden)
				if err == nil {
					entries = collection.Window(entries, cfg.offset, cfg.limit)
				}
			default:
				entries, err = s.Collection.ListItems(ctx, cfg.offset, cfg.limit, cfg.includeHidden)
			}
			if err != nil {
				return err
			}

			if cfg.json {
				return output.JSON(os.Stdout, entries)
			}
			output.Items(os.Stdout, entries)
			return nil
		},
	}
}
