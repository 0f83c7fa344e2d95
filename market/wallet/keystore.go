package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
)

// PasswordFunc supplies the passphrase for an account. Returning an error
// declines the access request.
type PasswordFunc func(account accounts.Account) (string, error)

// KeystoreProvider grants access to accounts of an encrypted key directory.
// Requesting access unlocks the account with a passphrase.
type KeystoreProvider struct {
	ks        *keystore.KeyStore
	password  PasswordFunc
	preferred common.Address

	mu         sync.Mutex
	authorized []common.Address

	feed event.FeedOf[[]common.Address]

	sub  event.Subscription
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

type KeystoreOption func(*KeystoreProvider)

// WithPreferredAccount selects which keystore account is unlocked on request.
// Without it the first account is used.
func WithPreferredAccount(addr common.Address) KeystoreOption {
	return func(p *KeystoreProvider) {
		p.preferred = addr
	}
}

func NewKeystoreProvider(dir string, password PasswordFunc, opts ...KeystoreOption) *KeystoreProvider {
	p := &KeystoreProvider{
		ks:       keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		password: password,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}

	events := make(chan accounts.WalletEvent, 8)
	p.sub = p.ks.Subscribe(events)
	go p.watch(events)

	return p
}

func (p *KeystoreProvider) watch(events chan accounts.WalletEvent) {
	defer close(p.done)
	for {
		select {
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped {
				continue
			}
			for _, acc := range ev.Wallet.Accounts() {
				p.drop(acc.Address)
			}
		case <-p.sub.Err():
			return
		case <-p.quit:
			return
		}
	}
}

func (p *KeystoreProvider) drop(addr common.Address) {
	p.mu.Lock()
	idx := slices.Index(p.authorized, addr)
	if idx < 0 {
		p.mu.Unlock()
		return
	}
	p.authorized = slices.Delete(p.authorized, idx, idx+1)
	out := slices.Clone(p.authorized)
	p.mu.Unlock()

	log.Info("keystore account removed", "address", addr)
	p.feed.Send(out)
}

func (p *KeystoreProvider) selectAccount() (accounts.Account, error) {
	accs := p.ks.Accounts()
	if len(accs) == 0 {
		return accounts.Account{}, failure.New(failure.ErrWalletUnavailable, "request accounts", "keystore holds no accounts")
	}
	if p.preferred == (common.Address{}) {
		return accs[0], nil
	}
	for _, a := range accs {
		if a.Address == p.preferred {
			return a, nil
		}
	}
	return accounts.Account{}, failure.New(failure.ErrWalletUnavailable, "request accounts", fmt.Sprintf("account %s not found in keystore", p.preferred.Hex()))
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	acc, err := p.selectAccount()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if slices.Contains(p.authorized, acc.Address) {
		out := slices.Clone(p.authorized)
		p.mu.Unlock()
		return out, nil
	}
	p.mu.Unlock()

	if p.password == nil {
		return nil, failure.New(failure.ErrUserRejected, "request accounts", "no passphrase source")
	}
	pass, err := p.password(acc)
	if err != nil {
		return nil, failure.Wrap(failure.ErrUserRejected, "request accounts", err, "passphrase not provided")
	}

	err = p.ks.Unlock(acc, pass)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, failure.Wrap(failure.ErrUserRejected, "request accounts", err, "wrong passphrase")
	}
	if err != nil {
		return nil, failure.Wrap(failure.ErrWalletUnavailable, "request accounts", err, "failed to unlock account")
	}

	p.mu.Lock()
	p.authorized = append(p.authorized, acc.Address)
	out := slices.Clone(p.authorized)
	p.mu.Unlock()

	return out, nil
}

func (p *KeystoreProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.authorized), nil
}

// Revoke locks addr and withdraws its authorization.
func (p *KeystoreProvider) Revoke(addr common.Address) error {
	if err := p.ks.Lock(addr); err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	p.drop(addr)
	return nil
}

func (p *KeystoreProvider) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return p.feed.Subscribe(ch)
}

func (p *KeystoreProvider) Transactor(ctx context.Context, addr common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	p.mu.Lock()
	authorized := slices.Contains(p.authorized, addr)
	p.mu.Unlock()
	if !authorized {
		return nil, failure.New(failure.ErrNoAuthorizedAccount, "transactor", fmt.Sprintf("account %s is not authorized", addr.Hex()))
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: addr}, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Close stops watching the key directory.
func (p *KeystoreProvider) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.sub.Unsubscribe()
		<-p.done
	})
}
