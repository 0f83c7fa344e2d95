package main

import (
	"fmt"
	"os"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/account"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/artisan"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/content"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/item"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/logging"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/serve"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/settings"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func main() {
	opts := &session.Options{}
	closeLog := func() error { return nil }

	app := &cli.App{
		Name:  "artisanctl",
		Usage: "Artisanal marketplace client",
		Flags: opts.Flags(),
		Before: func(c *cli.Context) error {
			closeLog = logging.Setup(opts.Log)
			return nil
		},
		After: func(c *cli.Context) error {
			return closeLog()
		},

		Commands: []*cli.Command{
			account.Account(opts),
			artisan.Artisan(opts),
			item.Item(opts),
			content.Content(opts),
			serve.Serve(opts),
			settings.Settings(opts),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Debug("command failed", "err", err)
		fmt.Fprintln(os.Stderr, "Error:", failure.Message(err))
		os.Exit(1)
	}
}
