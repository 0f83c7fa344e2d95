// Package args parses positional command arguments.
package args

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

// TokenID parses the i-th argument as a token id.
func TokenID(c *cli.Context, i int) (uint64, error) {
	s := c.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("token id is required")
	}
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q: %w", s, err)
	}
	return id, nil
}

// Address parses the i-th argument as an account address.
func Address(c *cli.Context, i int, what string) (common.Address, error) {
	s := c.Args().Get(i)
	if s == "" {
		return common.Address{}, fmt.Errorf("%s address is required", what)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", what, s)
	}
	return common.HexToAddress(s), nil
}
