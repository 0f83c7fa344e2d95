package account

import (
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account/balance"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account/create"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account/fund"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account/importkey"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account/list"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
)

func Account(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage keystore accounts",
		Subcommands: []*cli.Command{
			create.Create(opts),
			importkey.ImportAccount(opts),
			list.List(opts),
			balance.AccountBalance(opts),
			fund.FundAccount(opts),
		},
	}
}
