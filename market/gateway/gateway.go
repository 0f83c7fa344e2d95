// Package gateway is the only place contract handles are built.
//
// Handles are created on first use for the signer of the current wallet
// session and kept until the session identity changes. Raw contract outputs
// are decoded into typed records here, and ledger failures are translated
// into the kinds of the failure package.
package gateway

import (
	"context"
	"sync"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// SessionSource reports the current wallet session.
type SessionSource interface {
	Session() wallet.Session
}

type Gateway struct {
	sessions SessionSource
	binder   Binder

	mu       sync.Mutex
	identity common.Address
	registry Registry
	items    Items
}

func New(sessions SessionSource, binder Binder) *Gateway {
	return &Gateway{
		sessions: sessions,
		binder:   binder,
	}
}

// signer returns the session identity, dropping handles bound to a previous
// one. Callers hold g.mu.
func (g *Gateway) signer(op string) (common.Address, error) {
	s := g.sessions.Session()
	if !s.Connected {
		return common.Address{}, failure.New(failure.ErrNotConnected, op, "connect a wallet first")
	}
	if s.Address != g.identity {
		if g.registry != nil || g.items != nil {
			log.Debug("signer changed, dropping contract handles", "old", g.identity, "new", s.Address)
		}
		g.identity = s.Address
		g.registry = nil
		g.items = nil
	}
	return s.Address, nil
}

// Registry returns the artisan registry handle for the session signer.
func (g *Gateway) Registry(ctx context.Context) (Registry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	signer, err := g.signer("registry")
	if err != nil {
		return nil, err
	}
	if g.registry == nil {
		r, err := g.binder.BindRegistry(ctx, signer)
		if err != nil {
			return nil, err
		}
		log.Debug("bound artisan registry", "signer", signer)
		g.registry = r
	}
	return g.registry, nil
}

// Items returns the NFT contract handle for the session signer.
func (g *Gateway) Items(ctx context.Context) (Items, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	signer, err := g.signer("nft contract")
	if err != nil {
		return nil, err
	}
	if g.items == nil {
		it, err := g.binder.BindItems(ctx, signer)
		if err != nil {
			return nil, err
		}
		log.Debug("bound nft contract", "signer", signer)
		g.items = it
	}
	return g.items, nil
}
