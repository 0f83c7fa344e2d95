package burn

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/output"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func confirm(tokenID uint64) (bool, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false, fmt.Errorf("refusing to burn item %d without --yes", tokenID)
	}
	fmt.Fprintf(os.Stderr, "Burn item %d? This cannot be undone [y/N]: ", tokenID)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func Burn(opts *session.Options) *cli.Command {
	cfg := struct {
		yes bool
	}{}
	return &cli.Command{
		Name:      "burn",
		Usage:     "Destroy an item",
		ArgsUsage: "<token id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "Do not ask for confirmation",
				Destination: &cfg.yes,
			},
		},
		Action: func(c *cli.Context) error {
			tokenID, err := args.TokenID(c, 0)
			if err != nil {
				return err
			}

			if !cfg.yes {
				ok, err := confirm(tokenID)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted")
					return nil
				}
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			s, err := opts.Open(ctx, c)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := s.Mutations.BurnItem(ctx, tokenID)
			if err != nil {
				return err
			}

			output.Receipt(os.Stdout, "Burn", receipt.TxHash, receipt.BlockNumber.Uint64())
			return nil
		},
	}
}
