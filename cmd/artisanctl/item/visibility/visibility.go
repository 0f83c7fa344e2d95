// Package visibility toggles the local hidden flag of items. Nothing is sent
// to the ledger.
package visibility

import (
	"fmt"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/args"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/market/visibility"
	"github.com/urfave/cli/v2"
)

// toggle applies a visibility change. Hiding requires the item to exist,
// showing does not so that stale entries can be cleared.
func toggle(opts *session.Options, c *cli.Context, mustExist bool, apply func(o *visibility.Overlay, tokenID uint64) bool) (uint64, bool, error) {
	tokenID, err := args.TokenID(c, 0)
	if err != nil {
		return 0, false, err
	}

	s, err := opts.Open(c.Context, c)
	if err != nil {
		return 0, false, err
	}
	defer s.Close()

	if mustExist {
		if _, err := s.Collection.Item(c.Context, tokenID); err != nil {
			return 0, false, err
		}
	}
	return tokenID, apply(s.Overlay, tokenID), nil
}

func Hide(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "hide",
		Usage:     "Hide an item from listings on this machine",
		ArgsUsage: "<token id>",
		Action: func(c *cli.Context) error {
			tokenID, ok, err := toggle(opts, c, true, (*visibility.Overlay).Hide)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to hide item %d", tokenID)
			}
			fmt.Println("Item", tokenID, "is hidden")
			return nil
		},
	}
}

func Unhide(opts *session.Options) *cli.Command {
	return &cli.Command{
		Name:      "unhide",
		Usage:     "Show a hidden item in listings again",
		ArgsUsage: "<token id>",
		Action: func(c *cli.Context) error {
			tokenID, ok, err := toggle(opts, c, false, (*visibility.Overlay).Show)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to unhide item %d", tokenID)
			}
			fmt.Println("Item", tokenID, "is visible")
			return nil
		},
	}
}
