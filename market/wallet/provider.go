package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

// Provider is the signing identity capability the session manager is built on.
type Provider interface {
	// RequestAccounts asks for account access and may prompt the user.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Accounts returns the already authorized accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)

	// SubscribeAccounts delivers the authorized account list every time it
	// changes outside of RequestAccounts. An empty list means access was
	// revoked.
	SubscribeAccounts(ch chan<- []common.Address) event.Subscription

	// Transactor returns signing options for addr on the given chain.
	Transactor(ctx context.Context, addr common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// KeyProvider serves a fixed set of in-memory private keys.
type KeyProvider struct {
	mu         sync.Mutex
	keys       map[common.Address]*ecdsa.PrivateKey
	order      []common.Address
	authorized []common.Address
	reject     bool

	feed event.FeedOf[[]common.Address]
}

func NewKeyProvider(keys ...*ecdsa.PrivateKey) *KeyProvider {
	p := &KeyProvider{keys: make(map[common.Address]*ecdsa.PrivateKey)}
	for _, k := range keys {
		addr := crypto.PubkeyToAddress(k.PublicKey)
		if _, ok := p.keys[addr]; ok {
			continue
		}
		p.keys[addr] = k
		p.order = append(p.order, addr)
	}
	return p
}

// Reject makes subsequent access requests decline as if the user refused.
func (p *KeyProvider) Reject(reject bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reject = reject
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	if p.reject {
		p.mu.Unlock()
		return nil, failure.New(failure.ErrUserRejected, "request accounts", "access request declined")
	}
	changed := !slices.Equal(p.authorized, p.order)
	p.authorized = slices.Clone(p.order)
	out := slices.Clone(p.authorized)
	p.mu.Unlock()

	if changed {
		p.feed.Send(slices.Clone(out))
	}
	return out, nil
}

func (p *KeyProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.authorized), nil
}

// SetAccounts replaces the authorized set, as a wallet does when the user
// switches or revokes accounts. Every address must belong to a known key.
func (p *KeyProvider) SetAccounts(addrs ...common.Address) error {
	p.mu.Lock()
	for _, a := range addrs {
		if _, ok := p.keys[a]; !ok {
			p.mu.Unlock()
			return fmt.Errorf("unknown account %s", a.Hex())
		}
	}
	p.authorized = slices.Clone(addrs)
	p.mu.Unlock()

	p.feed.Send(slices.Clone(addrs))
	return nil
}

func (p *KeyProvider) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(ch)
}

func (p *KeyProvider) Transactor(ctx context.Context, addr common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	p.mu.Lock()
	key, ok := p.keys[addr]
	authorized := slices.Contains(p.authorized, addr)
	p.mu.Unlock()

	if !ok || !authorized {
		return nil, failure.New(failure.ErrNoAuthorizedAccount, "transactor", fmt.Sprintf("account %s is not authorized", addr.Hex()))
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
