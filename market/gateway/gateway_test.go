package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/testutil"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	ledger   *testutil.Ledger
	owner    *testutil.Account
	artisan  *testutil.Account
	buyer    *testutil.Account
	provider *wallet.KeyProvider
	manager  *wallet.Manager
	binder   *gateway.EthBinder
	gw       *gateway.Gateway
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		owner:   testutil.MustNewAccount(),
		artisan: testutil.MustNewAccount(),
		buyer:   testutil.MustNewAccount(),
	}
	e.ledger = testutil.NewLedger(e.owner.Address)
	e.provider = wallet.NewKeyProvider(e.artisan.Key, e.owner.Key, e.buyer.Key)
	e.manager = wallet.NewManager(e.provider)
	t.Cleanup(e.manager.Close)

	binder, err := gateway.NewEthBinder(context.Background(), e.ledger, e.manager, testutil.RegistryAddress, testutil.NFTAddress)
	require.NoError(t, err)
	e.binder = binder
	e.gw = gateway.New(e.manager, binder)
	return e
}

// as switches the wallet to acc and waits for the session to follow.
func (e *env) as(t *testing.T, acc *testutil.Account) {
	t.Helper()
	require.NoError(t, e.provider.SetAccounts(acc.Address))
	require.Eventually(t, func() bool {
		return e.manager.Session().Address == acc.Address
	}, time.Second, 5*time.Millisecond)
}

func (e *env) registerVerified(t *testing.T, acc *testutil.Account, name string) {
	t.Helper()
	ctx := context.Background()
	e.as(t, acc)
	reg, err := e.gw.Registry(ctx)
	require.NoError(t, err)
	_, err = reg.RegisterArtisan(ctx, gateway.ArtisanProfile{Name: name, Location: "Mylapore", Specialization: "Pottery", ContactInfo: "ravi@x.com"})
	require.NoError(t, err)

	e.as(t, e.owner)
	reg, err = e.gw.Registry(ctx)
	require.NoError(t, err)
	_, err = reg.VerifyArtisan(ctx, acc.Address)
	require.NoError(t, err)
}

type countingBinder struct {
	gateway.Binder
	registry, items int
}

func (c *countingBinder) BindRegistry(ctx context.Context, signer common.Address) (gateway.Registry, error) {
	c.registry++
	return c.Binder.BindRegistry(ctx, signer)
}

func (c *countingBinder) BindItems(ctx context.Context, signer common.Address) (gateway.Items, error) {
	c.items++
	return c.Binder.BindItems(ctx, signer)
}

func TestHandlesRequireSession(t *testing.T) {
	e := newEnv(t)

	_, err := e.gw.Registry(context.Background())
	require.ErrorIs(t, err, failure.ErrNotConnected)

	_, err = e.gw.Items(context.Background())
	require.ErrorIs(t, err, failure.ErrNotConnected)
}

func TestHandlesMemoizedPerIdentity(t *testing.T) {
	e := newEnv(t)
	counting := &countingBinder{Binder: e.binder}
	gw := gateway.New(e.manager, counting)
	ctx := context.Background()

	e.as(t, e.artisan)

	r1, err := gw.Registry(ctx)
	require.NoError(t, err)
	r2, err := gw.Registry(ctx)
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, counting.registry)
	assert.Equal(t, e.artisan.Address, r1.Signer())

	_, err = gw.Items(ctx)
	require.NoError(t, err)
	_, err = gw.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.items)

	e.as(t, e.buyer)

	r3, err := gw.Registry(ctx)
	require.NoError(t, err)
	assert.NotSame(t, r1, r3)
	assert.Equal(t, e.buyer.Address, r3.Signer())
	assert.Equal(t, 2, counting.registry)

	_, err = gw.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.items)
}

func TestRegisterAndReadArtisan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.as(t, e.artisan)

	reg, err := e.gw.Registry(ctx)
	require.NoError(t, err)

	_, err = reg.ArtisanDetails(ctx, e.artisan.Address)
	require.ErrorIs(t, err, failure.ErrNotFound)

	_, err = reg.RegisterArtisan(ctx, gateway.ArtisanProfile{Name: "Ravi Kumar", ContactInfo: "ravi@x.com"})
	require.NoError(t, err)

	a, err := reg.ArtisanDetails(ctx, e.artisan.Address)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", a.Name)
	assert.Equal(t, gateway.DefaultLocation, a.Location)
	assert.Equal(t, gateway.DefaultSpecialization, a.Specialization)
	assert.Equal(t, "ravi@x.com", a.ContactInfo)
	assert.False(t, a.IsVerified)
	assert.False(t, a.RegisteredAt.IsZero())

	count, err := reg.ArtisanCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	at, err := reg.ArtisanAt(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, e.artisan.Address, at)

	owner, err := reg.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, e.owner.Address, owner)
}

func TestVerifyRequiresRegistryOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.as(t, e.artisan)

	reg, err := e.gw.Registry(ctx)
	require.NoError(t, err)
	_, err = reg.RegisterArtisan(ctx, gateway.ArtisanProfile{Name: "Ravi Kumar", Location: "Mylapore", Specialization: "Pottery", ContactInfo: "ravi@x.com"})
	require.NoError(t, err)

	_, err = reg.VerifyArtisan(ctx, e.artisan.Address)
	require.ErrorIs(t, err, failure.ErrUnauthorized)

	verified, err := reg.IsVerifiedArtisan(ctx, e.artisan.Address)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestMintRequiresVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.as(t, e.artisan)

	items, err := e.gw.Items(ctx)
	require.NoError(t, err)

	_, _, err = items.Mint(ctx, e.artisan.Address, "ipfs://x", gateway.ItemFields{Name: "Pot", Description: "d", Materials: "Clay"})
	require.ErrorIs(t, err, failure.ErrUnauthorized)
	assert.Contains(t, failure.Message(err), "Only verified artisans can mint")

	supply, err := items.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply)
}

func TestMintAndRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, e.artisan, "Ravi Kumar")
	e.as(t, e.artisan)

	items, err := e.gw.Items(ctx)
	require.NoError(t, err)

	id, receipt, err := items.Mint(ctx, e.artisan.Address, "ipfs://meta", gateway.ItemFields{Name: "Clay Pot", Materials: "Clay"})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(0), id)

	uri, err := items.TokenURI(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://meta", uri)

	d, err := items.ItemDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Clay Pot", d.Name)
	assert.Equal(t, gateway.DefaultDescription, d.Description)
	assert.Equal(t, "Clay", d.Materials)
	assert.Equal(t, e.artisan.Address, d.Artisan)

	owner, err := items.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, e.artisan.Address, owner)

	prov, err := items.ProvenanceHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, prov, 1)

	bal, err := items.BalanceOf(ctx, e.artisan.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal)

	owned, err := items.TokenOfOwnerByIndex(ctx, e.artisan.Address, 0)
	require.NoError(t, err)
	assert.Equal(t, id, owned)
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.as(t, e.buyer)

	items, err := e.gw.Items(ctx)
	require.NoError(t, err)

	_, err = items.TokenURI(ctx, 42)
	require.ErrorIs(t, err, failure.ErrNotFound)

	_, err = items.Burn(ctx, 42)
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestTransferByNonOwnerIsUnauthorized(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, e.artisan, "Ravi Kumar")
	e.as(t, e.artisan)

	items, err := e.gw.Items(ctx)
	require.NoError(t, err)
	id, _, err := items.Mint(ctx, e.artisan.Address, "ipfs://meta", gateway.ItemFields{Name: "Pot", Description: "d", Materials: "Clay"})
	require.NoError(t, err)

	e.as(t, e.buyer)
	items, err = e.gw.Items(ctx)
	require.NoError(t, err)

	_, err = items.Transfer(ctx, e.artisan.Address, e.buyer.Address, id)
	require.ErrorIs(t, err, failure.ErrUnauthorized)

	_, err = items.Burn(ctx, id)
	require.ErrorIs(t, err, failure.ErrUnauthorized)
}

func TestHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, e.artisan, "Ravi Kumar")
	e.as(t, e.artisan)

	items, err := e.gw.Items(ctx)
	require.NoError(t, err)

	id, _, err := items.Mint(ctx, e.artisan.Address, "ipfs://a", gateway.ItemFields{Name: "Pot", Description: "d", Materials: "Clay"})
	require.NoError(t, err)
	// a second token must not show up in the first one's history
	_, _, err = items.Mint(ctx, e.artisan.Address, "ipfs://b", gateway.ItemFields{Name: "Vase", Description: "d", Materials: "Clay"})
	require.NoError(t, err)

	_, err = items.AddProvenanceRecord(ctx, id, "Fired in kiln")
	require.NoError(t, err)
	_, err = items.UpdateMetadata(ctx, id, "ipfs://c", gateway.ItemFields{Name: "Pot", Description: "d2", Materials: "Clay"})
	require.NoError(t, err)
	_, err = items.Transfer(ctx, e.artisan.Address, e.buyer.Address, id)
	require.NoError(t, err)

	e.as(t, e.buyer)
	items, err = e.gw.Items(ctx)
	require.NoError(t, err)
	_, err = items.Burn(ctx, id)
	require.NoError(t, err)

	events, err := items.History(ctx, id)
	require.NoError(t, err)

	var kinds []gateway.EventKind
	for _, ev := range events {
		assert.Equal(t, id, ev.TokenID)
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []gateway.EventKind{
		gateway.EventMinted,
		gateway.EventProvenance,
		gateway.EventMetadata,
		gateway.EventTransfer,
		gateway.EventBurned,
	}, kinds)

	assert.Equal(t, "Pot", events[0].Detail)
	assert.Equal(t, e.artisan.Address, events[0].To)
	assert.Equal(t, "Fired in kiln", events[1].Detail)
	assert.Equal(t, "ipfs://c", events[2].Detail)
	assert.Equal(t, e.buyer.Address, events[3].To)
	assert.Equal(t, e.buyer.Address, events[4].From)
}
