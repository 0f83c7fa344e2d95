// Package session turns the global command line flags into a connected
// marketplace client.
package session

import (
	"context"
	"fmt"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/logging"
	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/useraccount"
	"github.com/chennaiartisanal/provenance/market/app"
	"github.com/chennaiartisanal/provenance/market/config"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

// Options holds the values of the global flags.
type Options struct {
	ConfigPath string
	NodeURL    string
	ChainID    uint64
	Registry   string
	NFT        string

	Gateway      string
	PinningURL   string
	PinataKey    string
	PinataSecret string
	PinataJWT    string

	DataDir string
	RPCRate float64

	KeystoreDir string
	Account     string

	Log logging.Options
}

func (o *Options) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path of the TOML config file",
			EnvVars:     []string{"ARTISAN_CONFIG"},
			Destination: &o.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "node-url",
			Usage:       "The URL of the node to connect to",
			EnvVars:     []string{"NODE_URL"},
			Destination: &o.NodeURL,
		},
		&cli.Uint64Flag{
			Name:        "chain-id",
			Usage:       "Expected chain id of the node, 0 skips the check",
			EnvVars:     []string{"CHAIN_ID"},
			Destination: &o.ChainID,
		},
		&cli.StringFlag{
			Name:        "registry",
			Usage:       "Address of the artisan registry contract",
			EnvVars:     []string{"ARTISAN_REGISTRY"},
			Destination: &o.Registry,
		},
		&cli.StringFlag{
			Name:        "nft",
			Usage:       "Address of the artisanal NFT contract",
			EnvVars:     []string{"ARTISAN_NFT"},
			Destination: &o.NFT,
		},
		&cli.StringFlag{
			Name:        "gateway",
			Usage:       "Content gateway base URL",
			EnvVars:     []string{"CONTENT_GATEWAY"},
			Destination: &o.Gateway,
		},
		&cli.StringFlag{
			Name:        "pinning-url",
			Usage:       "Pinning service base URL",
			EnvVars:     []string{"PINNING_URL"},
			Destination: &o.PinningURL,
		},
		&cli.StringFlag{
			Name:        "pinata-key",
			Usage:       "Pinning service API key",
			EnvVars:     []string{"PINATA_API_KEY"},
			Destination: &o.PinataKey,
		},
		&cli.StringFlag{
			Name:        "pinata-secret",
			Usage:       "Pinning service API secret",
			EnvVars:     []string{"PINATA_SECRET_API_KEY"},
			Destination: &o.PinataSecret,
		},
		&cli.StringFlag{
			Name:        "pinata-jwt",
			Usage:       "Pinning service JWT, preferred over key and secret",
			EnvVars:     []string{"PINATA_JWT"},
			Destination: &o.PinataJWT,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory of local state such as hidden items",
			EnvVars:     []string{"ARTISAN_DATA_DIR"},
			Destination: &o.DataDir,
		},
		&cli.Float64Flag{
			Name:        "rpc-rate",
			Usage:       "Maximum ledger requests per second, 0 disables the limit",
			EnvVars:     []string{"RPC_RATE"},
			Destination: &o.RPCRate,
		},
		&cli.StringFlag{
			Name:        "keystore",
			Usage:       "Directory of encrypted account keys",
			Value:       useraccount.DefaultKeystoreDir(),
			EnvVars:     []string{"KEYSTORE_DIR"},
			Destination: &o.KeystoreDir,
		},
		&cli.StringFlag{
			Name:        "account",
			Usage:       "Keystore account to use, defaults to the first one",
			EnvVars:     []string{"ACCOUNT"},
			Destination: &o.Account,
		},
		&cli.IntFlag{
			Name:        "verbosity",
			Usage:       "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
			Value:       logging.DefaultVerbosity,
			Destination: &o.Log.Verbosity,
		},
		&cli.BoolFlag{
			Name:        "log.json",
			Usage:       "Format logs with JSON",
			Destination: &o.Log.JSON,
		},
		&cli.StringFlag{
			Name:        "log.file",
			Usage:       "Write logs to a rotated file instead of stderr",
			Destination: &o.Log.File,
		},
	}
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", name, s)
	}
	return common.HexToAddress(s), nil
}

// Config loads the config file and applies the flags that were given.
func (o *Options) Config(c *cli.Context) (config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get config file path: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if c.IsSet("node-url") {
		cfg.NodeURL = o.NodeURL
	}
	if c.IsSet("chain-id") {
		cfg.ChainID = o.ChainID
	}
	if c.IsSet("registry") {
		if cfg.Contracts.Registry, err = parseAddress("registry", o.Registry); err != nil {
			return config.Config{}, err
		}
	}
	if c.IsSet("nft") {
		if cfg.Contracts.NFT, err = parseAddress("nft", o.NFT); err != nil {
			return config.Config{}, err
		}
	}
	if c.IsSet("gateway") {
		cfg.Content.Gateway = o.Gateway
	}
	if c.IsSet("pinning-url") {
		cfg.Content.PinningURL = o.PinningURL
	}
	if c.IsSet("pinata-key") {
		cfg.Content.APIKey = o.PinataKey
	}
	if c.IsSet("pinata-secret") {
		cfg.Content.APISecret = o.PinataSecret
	}
	if c.IsSet("pinata-jwt") {
		cfg.Content.JWT = o.PinataJWT
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = o.DataDir
	}
	if c.IsSet("rpc-rate") {
		cfg.RPCRate = o.RPCRate
	}
	return cfg, nil
}

// Provider returns the keystore wallet selected by --keystore and --account.
func (o *Options) Provider() (*wallet.KeystoreProvider, error) {
	var opts []wallet.KeystoreOption
	if o.Account != "" {
		addr, err := parseAddress("account", o.Account)
		if err != nil {
			return nil, err
		}
		opts = append(opts, wallet.WithPreferredAccount(addr))
	}
	if err := useraccount.EnsureDir(o.KeystoreDir); err != nil {
		return nil, err
	}
	return wallet.NewKeystoreProvider(o.KeystoreDir, useraccount.Password, opts...), nil
}

// Session is a marketplace client connected with a keystore account.
type Session struct {
	*app.App
	Provider *wallet.KeystoreProvider
}

// Open dials the node and connects the wallet.
func (o *Options) Open(ctx context.Context, c *cli.Context) (*Session, error) {
	cfg, err := o.Config(c)
	if err != nil {
		return nil, err
	}

	provider, err := o.Provider()
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, provider)
	if err != nil {
		provider.Close()
		return nil, err
	}
	s := &Session{App: a, Provider: provider}

	if _, err := a.Wallet.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	return s, nil
}

func (s *Session) Close() error {
	err := s.App.Close()
	s.Provider.Close()
	return err
}
