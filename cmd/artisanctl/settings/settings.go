// Package settings manages the config file.
package settings

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/config"
	"github.com/urfave/cli/v2"
)

func path(opts *session.Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	p, err := config.Path()
	if err != nil {
		return "", fmt.Errorf("failed to get config file path: %w", err)
	}
	return p, nil
}

func Settings(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the config file",
		Subcommands: []*cli.Command{
			initConfig(opts),
			show(opts),
		},
	}
}

func initConfig(opts *session.Options) *cli.Command {
	cfg := struct {
		force bool
	}{}
	return &cli.Command{
		Name:  "init",
		Usage: "Write the effective settings to the config file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "Overwrite an existing config file",
				Destination: &cfg.force,
			},
		},
		Action: func(c *cli.Context) error {
			p, err := path(opts)
			if err != nil {
				return err
			}

			_, err = os.Stat(p)
			if err == nil && !cfg.force {
				return fmt.Errorf("a config file already exists at %s", p)
			}
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to stat %s: %w", p, err)
			}

			settings, err := opts.Config(c)
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := config.Save(p, settings); err != nil {
				return err
			}

			fmt.Println("Config written to", p)
			return nil
		},
	}
}

func show(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the effective settings",
		Action: func(c *cli.Context) error {
			settings, err := opts.Config(c)
			if err != nil {
				return err
			}
			// Credentials stay out of terminal scrollback.
			for _, secret := range []*string{&settings.Content.APISecret, &settings.Content.JWT} {
				if *secret != "" {
					*secret = "<redacted>"
				}
			}
			return toml.NewEncoder(os.Stdout).Encode(settings)
		},
	}
}
