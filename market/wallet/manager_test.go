package wallet_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func TestConnectWithoutProvider(t *testing.T) {
	m := wallet.NewManager(nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, failure.ErrWalletUnavailable)

	_, err = m.CurrentAccount(context.Background())
	require.ErrorIs(t, err, failure.ErrWalletUnavailable)
}

func TestConnect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	key, addr := newKey(t)
	m := wallet.NewManager(wallet.NewKeyProvider(key))
	defer m.Close()

	sessions := make(chan wallet.Session, 4)
	sub := m.SubscribeSession(sessions)
	defer sub.Unsubscribe()

	got, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	assert.Equal(t, wallet.Session{Address: addr, Connected: true}, m.Session())

	select {
	case s := <-sessions:
		assert.Equal(t, addr, s.Address)
		assert.True(t, s.Connected)
	case <-time.After(time.Second):
		t.Fatal("no session published")
	}
}

func TestConnectRejected(t *testing.T) {
	key, _ := newKey(t)
	p := wallet.NewKeyProvider(key)
	p.Reject(true)

	m := wallet.NewManager(p)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, failure.ErrUserRejected)
	assert.False(t, m.Session().Connected)
}

func TestCurrentAccountUsesSilentCheckFirst(t *testing.T) {
	key, addr := newKey(t)
	p := wallet.NewKeyProvider(key)
	require.NoError(t, p.SetAccounts(addr))
	// a prompt would be declined, so success proves the silent path was used
	p.Reject(true)

	m := wallet.NewManager(p)
	defer m.Close()

	got, err := m.CurrentAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestCurrentAccountRejected(t *testing.T) {
	key, _ := newKey(t)
	p := wallet.NewKeyProvider(key)
	p.Reject(true)

	m := wallet.NewManager(p)
	defer m.Close()

	_, err := m.CurrentAccount(context.Background())
	require.ErrorIs(t, err, failure.ErrNoAuthorizedAccount)
	require.ErrorIs(t, err, failure.ErrUserRejected)
}

func TestOnAccountChanged(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	key1, addr1 := newKey(t)
	key2, addr2 := newKey(t)
	p := wallet.NewKeyProvider(key1, key2)

	m := wallet.NewManager(p)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, addr1, m.Session().Address)

	changes := make(chan wallet.Session, 4)
	sub := m.OnAccountChanged(func(s wallet.Session) {
		changes <- s
	})
	defer sub.Unsubscribe()

	require.NoError(t, p.SetAccounts(addr2))
	select {
	case s := <-changes:
		assert.Equal(t, wallet.Session{Address: addr2, Connected: true}, s)
	case <-time.After(time.Second):
		t.Fatal("account change not delivered")
	}
	assert.Equal(t, addr2, m.Session().Address)

	require.NoError(t, p.SetAccounts())
	select {
	case s := <-changes:
		assert.False(t, s.Connected)
	case <-time.After(time.Second):
		t.Fatal("disconnect not delivered")
	}
	assert.Equal(t, wallet.Session{}, m.Session())
}

func TestTransactorRequiresAuthorization(t *testing.T) {
	key, addr := newKey(t)
	p := wallet.NewKeyProvider(key)
	m := wallet.NewManager(p)
	defer m.Close()

	_, err := m.Transactor(context.Background(), addr, big.NewInt(1337))
	require.ErrorIs(t, err, failure.ErrNoAuthorizedAccount)

	_, err = m.Connect(context.Background())
	require.NoError(t, err)

	opts, err := m.Transactor(context.Background(), addr, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, addr, opts.From)
}

func TestSetAccountsRejectsUnknown(t *testing.T) {
	key, _ := newKey(t)
	_, other := newKey(t)
	p := wallet.NewKeyProvider(key)
	require.Error(t, p.SetAccounts(other))
}
