// Package config holds the settings injected into the marketplace client at
// startup.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/chennaiartisanal/provenance/market/address"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	AppName  = "artisanctl"
	FileName = "config.toml"

	DefaultNodeURL = "https://ethereum-sepolia-rpc.publicnode.com"
	DefaultRPCRate = 20.0
)

type Contracts struct {
	Registry common.Address `toml:"registry" yaml:"registry"`
	NFT      common.Address `toml:"nft" yaml:"nft"`
}

type Content struct {
	Gateway    string `toml:"gateway" yaml:"gateway"`
	PinningURL string `toml:"pinning_url" yaml:"pinning_url"`
	APIKey     string `toml:"pinata_api_key" yaml:"pinata_api_key"`
	APISecret  string `toml:"pinata_secret_api_key" yaml:"pinata_secret_api_key"`
	JWT        string `toml:"pinata_jwt" yaml:"pinata_jwt"`
	CacheSize  int    `toml:"cache_size" yaml:"cache_size"`
}

func (c Content) Credentials() content.Credentials {
	return content.Credentials{APIKey: c.APIKey, APISecret: c.APISecret, JWT: c.JWT}
}

type Config struct {
	NodeURL   string    `toml:"node_url" yaml:"node_url"`
	ChainID   uint64    `toml:"chain_id" yaml:"chain_id"`
	Contracts Contracts `toml:"contracts" yaml:"contracts"`
	Content   Content   `toml:"content" yaml:"content"`
	// DataDir holds the visibility overlay. Empty keeps it in memory.
	DataDir string `toml:"data_dir" yaml:"data_dir"`
	// RPCRate limits ledger requests per second. Zero disables the limit.
	RPCRate float64 `toml:"rpc_rate" yaml:"rpc_rate"`
}

// Default returns the settings of the public Sepolia deployment.
func Default() Config {
	return Config{
		NodeURL: DefaultNodeURL,
		ChainID: address.SepoliaChainID,
		Contracts: Contracts{
			Registry: address.ArtisanRegistryAddress,
			NFT:      address.ArtisanalNFTAddress,
		},
		Content: Content{
			Gateway:    content.DefaultGateway,
			PinningURL: content.DefaultPinningURL,
			CacheSize:  content.DefaultCacheSize,
		},
		DataDir: filepath.Join(xdg.DataHome, AppName),
		RPCRate: DefaultRPCRate,
	}
}

// Path returns the default location of the config file, creating its parent
// directory.
func Path() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppName, FileName))
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads path over the defaults. Files ending in .yaml or .yml are YAML,
// anything else is TOML. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var err error
	if isYAML(path) {
		var raw []byte
		raw, err = os.ReadFile(path)
		if err == nil {
			err = yaml.Unmarshal(raw, &cfg)
		}
	} else {
		_, err = toml.DecodeFile(path, &cfg)
	}
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in the format its extension selects.
func Save(path string, cfg Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config %s: %w", path, err)
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		err = enc.Encode(cfg)
		if err == nil {
			err = enc.Close()
		}
	} else {
		err = toml.NewEncoder(f).Encode(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.NodeURL == "" {
		errs = append(errs, errors.New("node url is required"))
	}
	if address.IsZero(c.Contracts.Registry) {
		errs = append(errs, errors.New("artisan registry address is required"))
	}
	if address.IsZero(c.Contracts.NFT) {
		errs = append(errs, errors.New("nft contract address is required"))
	}
	if c.Contracts.Registry == c.Contracts.NFT && !address.IsZero(c.Contracts.NFT) {
		errs = append(errs, errors.New("registry and nft contract addresses must differ"))
	}
	if u, err := url.Parse(c.Content.Gateway); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("invalid content gateway %q", c.Content.Gateway))
	}
	if c.RPCRate < 0 {
		errs = append(errs, errors.New("rpc rate must not be negative"))
	}
	return errors.Join(errs...)
}
