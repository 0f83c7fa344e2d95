// Package app wires the marketplace components together. An App owns every
// component it creates; nothing is kept in package state.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/config"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/mutation"
	"github.com/chennaiartisanal/provenance/market/visibility"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"
)

type App struct {
	Config config.Config

	// Client is set when the app dialled the node itself.
	Client  *ethclient.Client
	Backend gateway.Backend

	Wallet     *wallet.Manager
	Binder     *gateway.EthBinder
	Gateway    *gateway.Gateway
	Overlay    *visibility.Overlay
	Resolver   *content.Resolver
	Pinning    *content.Pinata
	Collection *collection.Scanner
	Mutations  *mutation.Orchestrator

	closers []func() error
}

// New dials cfg.NodeURL and builds the app on top of the connection.
func New(ctx context.Context, cfg config.Config, provider wallet.Provider) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client, err := ethclient.DialContext(ctx, cfg.NodeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node %s: %w", cfg.NodeURL, err)
	}
	a, err := NewWithBackend(ctx, cfg, client, provider)
	if err != nil {
		client.Close()
		return nil, err
	}
	a.Client = client
	a.closers = append([]func() error{func() error {
		client.Close()
		return nil
	}}, a.closers...)
	return a, nil
}

// NewWithBackend builds the app on an existing node connection, which stays
// owned by the caller.
func NewWithBackend(ctx context.Context, cfg config.Config, backend gateway.Backend, provider wallet.Provider) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, Backend: backend}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var binderOpts []gateway.BinderOption
	if cfg.RPCRate > 0 {
		binderOpts = append(binderOpts, gateway.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RPCRate), max(1, int(cfg.RPCRate)))))
	}

	a.Wallet = wallet.NewManager(provider)
	a.closers = append(a.closers, func() error {
		a.Wallet.Close()
		return nil
	})

	a.Binder, err = gateway.NewEthBinder(ctx, backend, a.Wallet, cfg.Contracts.Registry, cfg.Contracts.NFT, binderOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.ChainID != 0 && a.Binder.ChainID().Uint64() != cfg.ChainID {
		return nil, fmt.Errorf("node is on chain %d, expected %d", a.Binder.ChainID(), cfg.ChainID)
	}
	a.Gateway = gateway.New(a.Wallet, a.Binder)

	var store *visibility.LevelDB
	if cfg.DataDir == "" {
		store, err = visibility.OpenMemory()
	} else {
		store, err = visibility.OpenLevelDB(filepath.Join(cfg.DataDir, "visibility"))
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	a.Overlay = visibility.New(store)

	resolverOpts := []content.ResolverOption{}
	if cfg.Content.CacheSize > 0 {
		resolverOpts = append(resolverOpts, content.WithCacheSize(cfg.Content.CacheSize))
	}
	a.Resolver, err = content.NewResolver(cfg.Content.Gateway, resolverOpts...)
	if err != nil {
		return nil, err
	}
	a.Pinning, err = content.NewPinata(cfg.Content.PinningURL, cfg.Content.Credentials(), nil)
	if err != nil {
		return nil, err
	}

	a.Collection = collection.NewScanner(a.Gateway, a.Overlay)
	a.Mutations = mutation.New(a.Gateway, a.Pinning)

	log.Debug("marketplace client ready", "chain", a.Binder.ChainID(), "registry", cfg.Contracts.Registry, "nft", cfg.Contracts.NFT)
	return a, nil
}

// Close releases the components in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
