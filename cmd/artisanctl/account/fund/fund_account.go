package fund

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/ether"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/session"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/urfave/cli/v2"
)

// transactionArgs is the eth_sendTransaction request of a node-managed
// account.
type transactionArgs struct {
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

// FundAccount transfers ether from the first account managed by the node,
// which only development nodes expose.
func FundAccount(opts *session.Options) *cli.Command {
	cfg := struct {
		value string
	}{}
	return &cli.Command{
		Name:  "fund",
		Usage: "Fund an account from a development node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "value",
				Usage:       "The amount of ETH to fund the account with",
				Value:       "100",
				EnvVars:     []string{"VALUE"},
				Destination: &cfg.value,
			},
		},
		Action: func(c *cli.Context) error {
			value, err := ether.ToWei(cfg.value)
			if err != nil {
				return err
			}

			ks, err := useraccount.Open(opts.KeystoreDir)
			if err != nil {
				return err
			}
			account, err := useraccount.Select(ks, opts.Account)
			if err != nil {
				return err
			}

			settings, err := opts.Config(c)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			client, err := ethclient.DialContext(ctx, settings.NodeURL)
			if err != nil {
				return fmt.Errorf("failed to dial node: %w", err)
			}
			defer client.Close()

			rpcClient := client.Client()

			var accounts []common.Address
			err = rpcClient.CallContext(ctx, &accounts, "eth_accounts")
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no accounts found")
			}

			from := accounts[0]

			nonce, err := client.PendingNonceAt(ctx, from)
			if err != nil {
				return fmt.Errorf("failed to get nonce: %w", err)
			}

			chainID, err := client.ChainID(ctx)
			if err != nil {
				return fmt.Errorf("failed to get chain ID: %w", err)
			}

			tx := transactionArgs{
				From:                 pointerOf(from),
				ChainID:              (*hexutil.Big)(chainID),
				Nonce:                (*hexutil.Uint64)(&nonce),
				MaxPriorityFeePerGas: (*hexutil.Big)(big.NewInt(1e9)), // 1 Gwei
				MaxFeePerGas:         (*hexutil.Big)(big.NewInt(5e9)), // 5 Gwei
				Gas:                  (*hexutil.Uint64)(pointerOf(params.TxGas)),
				To:                   pointerOf(account.Address),
				Value:                (*hexutil.Big)(value),
			}

			var txHash common.Hash

			err = rpcClient.CallContext(ctx, &txHash, "eth_sendTransaction", tx)
			if err != nil {
				return fmt.Errorf("failed to send tx: %w", err)
			}

			_, err = bind.WaitMinedHash(ctx, client, txHash)
			if err != nil {
				return fmt.Errorf("failed to wait for tx: %w", err)
			}

			fmt.Println("Funded", account.Address.Hex(), "with", ether.FromWei(value), "ETH")
			fmt.Println("Tx:", txHash.Hex())

			return nil
		},
	}
}

func pointerOf[T any](v T) *T {
	return &v
}
