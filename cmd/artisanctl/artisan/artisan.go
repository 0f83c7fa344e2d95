package artisan

import (
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/artisan/list"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/artisan/profile"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/artisan/show"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/artisan/verify"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Artisan(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "artisan",
		Usage: "Manage artisan registrations",
		Subcommands: []*cli.Command{
			profile.Register(opts),
			profile.Update(opts),
			verify.Verify(opts),
			show.Show(opts),
			list.List(opts),
		},
	}
}
