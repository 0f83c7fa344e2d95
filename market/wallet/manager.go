// Package wallet owns the connection to the user's signing identity.
//
// A Manager holds the single wallet session of the process. It moves to
// connected when the provider grants access or already has authorized
// accounts, and back to disconnected when the provider reports that no
// account is authorized any more. Disconnection is published to subscribers,
// it is never returned as an error.
package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
)

// Session is a snapshot of the wallet connection.
type Session struct {
	Address   common.Address
	Connected bool
}

type Manager struct {
	provider Provider

	mu      sync.RWMutex
	session Session

	sessions event.FeedOf[Session]
	changes  event.FeedOf[Session]

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewManager creates a disconnected session manager. A nil provider means no
// wallet is installed; every connection attempt then fails with
// ErrWalletUnavailable.
func NewManager(provider Provider) *Manager {
	m := &Manager{
		provider: provider,
		quit:     make(chan struct{}),
	}
	if provider != nil {
		ch := make(chan []common.Address, 8)
		sub := provider.SubscribeAccounts(ch)
		m.wg.Add(1)
		go m.loop(sub, ch)
	}
	return m
}

func (m *Manager) loop(sub event.Subscription, ch chan []common.Address) {
	defer m.wg.Done()
	defer sub.Unsubscribe()

	for {
		select {
		case accs := <-ch:
			s := sessionFor(accs)
			if !m.set(s) {
				continue
			}
			if s.Connected {
				log.Info("wallet account changed", "address", s.Address)
			} else {
				log.Info("wallet disconnected")
			}
			m.changes.Send(s)
		case err := <-sub.Err():
			if err != nil {
				log.Warn("wallet account subscription failed", "err", err)
			}
			return
		case <-m.quit:
			return
		}
	}
}

func sessionFor(accs []common.Address) Session {
	if len(accs) == 0 {
		return Session{}
	}
	return Session{Address: accs[0], Connected: true}
}

// set stores s and publishes it if it differs from the current session.
func (m *Manager) set(s Session) bool {
	m.mu.Lock()
	if m.session == s {
		m.mu.Unlock()
		return false
	}
	m.session = s
	m.mu.Unlock()

	m.sessions.Send(s)
	return true
}

// Connect requests account access from the provider.
func (m *Manager) Connect(ctx context.Context) (common.Address, error) {
	if m.provider == nil {
		return common.Address{}, failure.New(failure.ErrWalletUnavailable, "connect", "no wallet provider available")
	}

	accs, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		if failure.KindOf(err) != nil {
			return common.Address{}, err
		}
		return common.Address{}, failure.Wrap(failure.ErrWalletUnavailable, "connect", err, "wallet request failed")
	}
	if len(accs) == 0 {
		return common.Address{}, failure.New(failure.ErrNoAuthorizedAccount, "connect", "wallet returned no accounts")
	}

	s := sessionFor(accs)
	if m.set(s) {
		log.Info("wallet connected", "address", s.Address)
	}
	return s.Address, nil
}

// CurrentAccount returns the session address. Without a session it first
// checks silently for already authorized accounts and only then requests
// access.
func (m *Manager) CurrentAccount(ctx context.Context) (common.Address, error) {
	if s := m.Session(); s.Connected {
		return s.Address, nil
	}
	if m.provider == nil {
		return common.Address{}, failure.New(failure.ErrWalletUnavailable, "current account", "no wallet provider available")
	}

	accs, err := m.provider.Accounts(ctx)
	if err != nil {
		log.Debug("silent account query failed", "err", err)
	}
	if len(accs) > 0 {
		s := sessionFor(accs)
		m.set(s)
		return s.Address, nil
	}

	addr, err := m.Connect(ctx)
	if errors.Is(err, failure.ErrUserRejected) {
		return common.Address{}, failure.Wrap(failure.ErrNoAuthorizedAccount, "current account", err, "no account authorized")
	}
	return addr, err
}

// Session returns the current session snapshot.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SubscribeSession delivers every session transition, including the ones
// caused by Connect.
func (m *Manager) SubscribeSession(ch chan<- Session) event.Subscription {
	return m.sessions.Subscribe(ch)
}

// OnAccountChanged runs handler for every account change reported by the
// wallet itself. A disconnected session is passed when the wallet reports no
// authorized account. Calls already in flight are not affected.
func (m *Manager) OnAccountChanged(handler func(Session)) event.Subscription {
	ch := make(chan Session, 16)
	sub := m.changes.Subscribe(ch)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case s := <-ch:
				handler(s)
			case <-quit:
				return nil
			}
		}
	})
}

// Transactor returns signing options for addr from the provider.
func (m *Manager) Transactor(ctx context.Context, addr common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if m.provider == nil {
		return nil, failure.New(failure.ErrWalletUnavailable, "transactor", "no wallet provider available")
	}
	return m.provider.Transactor(ctx, addr, chainID)
}

// Close stops following provider notifications.
func (m *Manager) Close() {
	m.once.Do(func() {
		close(m.quit)
		m.wg.Wait()
	})
}
