package pin

import (
	"fmt"
	"os"
	"os/signal"

		"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/upload"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/urfave/cli/v2"
)

func Pin(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Upload a file to the pinning service",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("file is required")
			}
			file, err := upload.Read(path)
			if err != nil {
				return err
			}

			settings, err := opts.Config(c)
			if err != nil {
				return err
			}
			pinata, err := content.NewPinata(settings.Content.PinningURL, settings.Content.Credentials(), nil)
			if err != nil {
				return err
			}

			pinned, err := pinata.Upload(ctx, file.Data, file.ContentType)
			if err != nil {
				return err
			}

			fmt.Println("CID:", pinned.CID)
			fmt.Println("Pointer:", pinned.Pointer)
			return nil
		},
	}
}
