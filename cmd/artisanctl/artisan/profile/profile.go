package profile

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/urfave/cli/v2"
)

func profileFlags(p *gateway.ArtisanProfile) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name of the artisan",
			Required:    true,
			Destination: &p.Name,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Where the artisan works",
			Required:    true,
			Destination: &p.Location,
		},
		&cli.StringFlag{
			Name:        "specialization",
			Usage:       "Craft of the artisan",
			Required:    true,
			Destination: &p.Specialization,
		},
		&cli.StringFlag{
			Name:        "contact",
			Usage:       "Contact information",
			Required:    true,
			Destination: &p.ContactInfo,
		},
	}
}

// Register registers the wallet account as an artisan, or rewrites its
// profile when it is already registered.
func Register(opts *session.Options) *cli.Command {
	p := gateway.ArtisanProfile{}
	return &cli.Command{
		Name:  "register",
		Usage: "Register the current account as an artisan",
		Flags: profileFlags(&p),
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.RegisterArtisan(ctx, p)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Registration", receipt.TxHash, receipt.BlockNumber.Uint64())
			fmt.Println("Artisan:", s.Wallet.Session().Address.Hex())
			return nil
		},
	}
}

func Update(opts *session.Options) *cli.Command {
	p := gateway.ArtisanProfile{}
	return &cli.Command{
		Name:  "update",
		Usage: "Update the profile of the current artisan",
		Flags: profileFlags(&p),
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.UpdateArtisanInfo(ctx, p)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Profile update", receipt.TxHash, receipt.BlockNumber.Uint64())
			return nil
		},
	}
}
