package mutation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/mutation"
	"github.com/chennaiartisanal/provenance/market/testutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ravi = gateway.ArtisanProfile{
		Name:           "Ravi Kumar",
		Location:       "Mylapore",
		Specialization: "Pottery",
		ContactInfo:    "ravi@x.com",
	}
	pot = gateway.ItemFields{
		Name:        "Clay Pot",
		Description: "Wheel thrown, wood fired",
		Materials:   "Clay",
	}
	png = mutation.Image{Data: []byte("\x89PNG\r\n\x1a\npot"), ContentType: "image/png"}
)

func newWorld(t *testing.T) *testutil.World {
	t.Helper()
	w, err := testutil.NewWorld(context.Background())
	require.NoError(t, err)
	t.Cleanup(w.Shutdown)
	return w
}

func verified(t *testing.T) *testutil.World {
	t.Helper()
	w := newWorld(t)
	require.NoError(t, w.RegisterVerified(context.Background(), w.Artisan, ravi))
	return w
}

func TestMintItemSequencesUploads(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	m, err := w.App.Mutations.MintItem(ctx, png, pot)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Content.Uploads())

	stored, ok := w.Content.Get(m.Image.CID)
	require.True(t, ok)
	assert.Equal(t, png.Data, stored)

	md, err := w.Metadata(ctx, m.TokenURI)
	require.NoError(t, err)
	assert.Equal(t, m.Image.Pointer, md.Image)
	assert.Equal(t, pot.Name, md.Name)
	assert.Equal(t, pot.Materials, md.Materials)
	creator, _ := md.Attribute(content.TraitCreator)
	assert.Equal(t, w.Artisan.Address.Hex(), creator)
	_, ok = md.Attribute(content.TraitCreationDate)
	assert.True(t, ok)

	item, err := w.App.Collection.Item(ctx, m.TokenID)
	require.NoError(t, err)
	assert.Equal(t, m.TokenURI, item.TokenURI)
	assert.Equal(t, w.Artisan.Address, item.Artisan)
	assert.Equal(t, w.Artisan.Address, item.Owner)
}

func TestMintItemValidatesBeforeAnyRemoteCall(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	_, err := w.App.Mutations.MintItem(ctx, png, gateway.ItemFields{Name: "Pot", Description: " "})
	require.ErrorIs(t, err, failure.ErrInvalidInput)
	assert.Contains(t, failure.Message(err), "description, materials")

	_, err = w.App.Mutations.MintItem(ctx, mutation.Image{}, pot)
	require.ErrorIs(t, err, failure.ErrInvalidInput)

	assert.Zero(t, w.Content.Uploads())
	assert.Zero(t, w.Ledger.Calls("mintItem"))
}

func TestMintByUnverifiedArtisanIsRejected(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.As(ctx, w.SecondArtisan))
	_, err := w.App.Mutations.RegisterArtisan(ctx, ravi)
	require.NoError(t, err)

	_, err = w.App.Mutations.MintItem(ctx, png, pot)
	require.ErrorIs(t, err, failure.ErrUnauthorized)
	assert.Zero(t, w.Content.Uploads())

	items, err := w.App.Collection.ListItems(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFailedUploadNeverReachesLedger(t *testing.T) {
	w := verified(t)
	ctx := context.Background()
	w.Content.FailUploads("pinning quota exceeded")

	_, err := w.App.Mutations.MintItem(ctx, png, pot)
	require.ErrorIs(t, err, failure.ErrUploadFailed)
	assert.Equal(t, "pinning quota exceeded", failure.Message(err))
	assert.Zero(t, w.Ledger.Calls("mintItem"))
}

func TestUpdateItemKeepsPointerWithoutImage(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	m, err := w.App.Mutations.MintItem(ctx, png, pot)
	require.NoError(t, err)
	uploads := w.Content.Uploads()

	edits := gateway.ItemFields{Name: "Clay Pot, glazed", Description: "Glazed later", Materials: "Clay, glaze"}
	u, err := w.App.Mutations.UpdateItem(ctx, m.TokenID, edits, nil)
	require.NoError(t, err)
	assert.False(t, u.Reissued)
	assert.Equal(t, m.TokenURI, u.TokenURI)
	assert.Equal(t, uploads, w.Content.Uploads())

	item, err := w.App.Collection.Item(ctx, m.TokenID)
	require.NoError(t, err)
	assert.Equal(t, edits, item.ItemFields)
	assert.Equal(t, m.TokenURI, item.TokenURI)
}

func TestUpdateItemWithImageReissuesMetadata(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	m, err := w.App.Mutations.MintItem(ctx, png, pot)
	require.NoError(t, err)

	photo := mutation.Image{Data: []byte("\x89PNG\r\n\x1a\nnew photo"), ContentType: "image/png"}
	u, err := w.App.Mutations.UpdateItem(ctx, m.TokenID, pot, &photo)
	require.NoError(t, err)
	assert.True(t, u.Reissued)
	assert.NotEqual(t, m.TokenURI, u.TokenURI)

	md, err := w.Metadata(ctx, u.TokenURI)
	require.NoError(t, err)
	_, ok := md.Attribute(content.TraitLastUpdated)
	assert.True(t, ok)
	creator, _ := md.Attribute(content.TraitCreator)
	assert.Equal(t, w.Artisan.Address.Hex(), creator)

	item, err := w.App.Collection.Item(ctx, m.TokenID)
	require.NoError(t, err)
	assert.Equal(t, u.TokenURI, item.TokenURI)
}

func TestRegisterArtisanIsAnUpsert(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.App.Mutations.RegisterArtisan(ctx, ravi)
	require.NoError(t, err)

	moved := ravi
	moved.Location = "Triplicane"
	_, err = w.App.Mutations.RegisterArtisan(ctx, moved)
	require.NoError(t, err)

	reg, err := w.App.Gateway.Registry(ctx)
	require.NoError(t, err)
	count, err := reg.ArtisanCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	a, err := w.App.Collection.Artisan(ctx, w.Artisan.Address)
	require.NoError(t, err)
	assert.Equal(t, "Triplicane", a.Location)
}

func TestUpdateArtisanInfo(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.App.Mutations.UpdateArtisanInfo(ctx, ravi)
	assert.ErrorIs(t, err, failure.ErrNotFound)

	_, err = w.App.Mutations.UpdateArtisanInfo(ctx, gateway.ArtisanProfile{Name: "Ravi"})
	assert.ErrorIs(t, err, failure.ErrInvalidInput)

	_, err = w.App.Mutations.RegisterArtisan(ctx, ravi)
	require.NoError(t, err)
	updated := ravi
	updated.ContactInfo = "ravi@pottery.example"
	_, err = w.App.Mutations.UpdateArtisanInfo(ctx, updated)
	require.NoError(t, err)

	a, err := w.App.Collection.Artisan(ctx, w.Artisan.Address)
	require.NoError(t, err)
	assert.Equal(t, updated, a.ArtisanProfile)
}

func TestVerifyArtisanRequiresOwner(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.App.Mutations.RegisterArtisan(ctx, ravi)
	require.NoError(t, err)

	_, err = w.App.Mutations.VerifyArtisan(ctx, w.Artisan.Address)
	assert.ErrorIs(t, err, failure.ErrUnauthorized)

	_, err = w.App.Mutations.VerifyArtisan(ctx, common.Address{})
	assert.ErrorIs(t, err, failure.ErrInvalidInput)
}

func TestTransferAndProvenance(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	m, err := w.App.Mutations.MintItem(ctx, png, pot)
	require.NoError(t, err)

	_, err = w.App.Mutations.Transfer(ctx, common.Address{}, m.TokenID)
	assert.ErrorIs(t, err, failure.ErrInvalidInput)
	_, err = w.App.Mutations.AddProvenanceRecord(ctx, m.TokenID, "  ")
	assert.ErrorIs(t, err, failure.ErrInvalidInput)

	_, err = w.App.Mutations.Transfer(ctx, w.Buyer.Address, m.TokenID)
	require.NoError(t, err)

	// The artisan no longer owns the item.
	_, err = w.App.Mutations.Transfer(ctx, w.Buyer.Address, m.TokenID)
	assert.ErrorIs(t, err, failure.ErrUnauthorized)

	require.NoError(t, w.As(ctx, w.Buyer))
	_, err = w.App.Mutations.AddProvenanceRecord(ctx, m.TokenID, "Sold at Chennai craft fair")
	require.NoError(t, err)

	_, err = w.App.Mutations.BurnItem(ctx, m.TokenID)
	require.NoError(t, err)
	_, err = w.App.Mutations.BurnItem(ctx, m.TokenID)
	assert.ErrorIs(t, err, failure.ErrNotFound)
}

func TestWritesRequireSession(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.Provider.SetAccounts())
	require.Eventually(t, func() bool { return !w.App.Wallet.Session().Connected }, testutil.SessionTimeout, testutil.SessionPoll)

	_, err := w.App.Mutations.RegisterArtisan(ctx, ravi)
	assert.ErrorIs(t, err, failure.ErrNotConnected)
}

// gatedUploader blocks image uploads until released.
type gatedUploader struct {
	content.Uploader
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedUploader) Upload(ctx context.Context, data []byte, contentType string) (content.Pinned, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Uploader.Upload(ctx, data, contentType)
}

func TestConcurrentIdenticalMintsShareOneSubmission(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	up := &gatedUploader{Uploader: w.App.Pinning, entered: make(chan struct{}), release: make(chan struct{})}
	orch := mutation.New(w.App.Gateway, up)

	var (
		wg      sync.WaitGroup
		results [2]*mutation.Minted
		errs    [2]error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = orch.MintItem(ctx, png, pot)
	}()
	<-up.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = orch.MintItem(ctx, png, pot)
	}()
	time.Sleep(50 * time.Millisecond)
	close(up.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].TokenID, results[1].TokenID)
	assert.Equal(t, 2, w.Content.Uploads())

	items, err := w.App.Collection.ListItems(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Once settled, the same request mints again.
	_, err = orch.MintItem(ctx, png, pot)
	require.NoError(t, err)
	items, err = w.App.Collection.ListItems(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestConcurrentDistinctMintsBothSubmit(t *testing.T) {
	w := verified(t)
	ctx := context.Background()

	up := &gatedUploader{Uploader: w.App.Pinning, entered: make(chan struct{}), release: make(chan struct{})}
	orch := mutation.New(w.App.Gateway, up)

	fields := [2]gateway.ItemFields{
		{Name: "Pot|Large", Description: "Red", Materials: "Clay"},
		{Name: "Pot", Description: "Large|Red", Materials: "Clay"},
	}
	var (
		wg      sync.WaitGroup
		results [2]*mutation.Minted
		errs    [2]error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = orch.MintItem(ctx, png, fields[0])
	}()
	<-up.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = orch.MintItem(ctx, png, fields[1])
	}()
	time.Sleep(50 * time.Millisecond)
	close(up.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].TokenID, results[1].TokenID)

	for i, m := range results {
		it, err := w.App.Collection.Item(ctx, m.TokenID)
		require.NoError(t, err)
		assert.Equal(t, fields[i].Name, it.Name)
		assert.Equal(t, fields[i].Description, it.Description)
	}
}

func TestJoinedMintSurvivesFirstCallerCancelling(t *testing.T) {
	w := verified(t)

	up := &gatedUploader{Uploader: w.App.Pinning, entered: make(chan struct{}), release: make(chan struct{})}
	orch := mutation.New(w.App.Gateway, up)

	first, cancel := context.WithCancel(context.Background())
	var (
		wg       sync.WaitGroup
		firstErr error
		joined   *mutation.Minted
		joinErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = orch.MintItem(first, png, pot)
	}()
	<-up.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		joined, joinErr = orch.MintItem(context.Background(), png, pot)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(up.release)
	wg.Wait()

	require.ErrorIs(t, firstErr, context.Canceled)
	require.NoError(t, joinErr)

	items, err := w.App.Collection.ListItems(context.Background(), 0, 10, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, joined.TokenID, items[0].TokenID)
}
