package content

import (
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/content/cat"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/content/pin"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Content(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Read and pin content addressed objects",
		Subcommands: []*cli.Command{
			cat.Cat(opts),
			pin.Pin(opts),
		},
	}
}
