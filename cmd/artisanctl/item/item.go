package item

import (
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/burn"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/history"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/list"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/mint"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/record"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/show"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/transfer"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/update"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item/visibility"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Item(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "item",
		Usage: "Manage artisanal items",
		Subcommands: []*cli.Command{
			mint.Mint(opts),
			update.Update(opts),
			burn.Burn(opts),
			transfer.Transfer(opts),
			record.Record(opts),
			show.Show(opts),
			list.List(opts),
			history.History(opts),
			visibility.Hide(opts),
			visibility.Unhide(opts),
		},
	}
}
