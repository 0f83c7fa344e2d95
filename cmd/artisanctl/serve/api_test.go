package serve_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/serve"
	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/testutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ravi = gateway.ArtisanProfile{
	Name:           "Ravi Kumar",
	Location:       "Mylapore",
	Specialization: "Pottery",
	ContactInfo:    "ravi@x.com",
}

// setup mints two items and returns an HTTP JSON-RPC client of the API.
func setup(t *testing.T) (*testutil.World, *rpc.Client, *httptest.Server, []uint64) {
	t.Helper()
	ctx := context.Background()

	w, err := testutil.NewWorld(ctx)
	require.NoError(t, err)
	t.Cleanup(w.Shutdown)

	require.NoError(t, w.RegisterVerified(ctx, w.Artisan, ravi))
	var ids []uint64
	for _, name := range []string{"Clay Pot", "Brass Lamp"} {
		m, err := w.Mint(ctx, gateway.ItemFields{Name: name, Description: "Handmade", Materials: "Mixed"})
		require.NoError(t, err)
		ids = append(ids, m.TokenID)
	}

	server, handler, err := serve.NewHandler(serve.NewAPI(w.App), []string{"https://market.example"})
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := rpc.DialContext(ctx, srv.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return w, client, srv, ids
}

func TestListItemsDefaults(t *testing.T) {
	_, client, _, ids := setup(t)
	ctx := context.Background()

	var entries []collection.Entry
	require.NoError(t, client.CallContext(ctx, &entries, "market_listItems"))
	require.Len(t, entries, 2)
	assert.Equal(t, ids[0], entries[0].TokenID)
	assert.Equal(t, "Clay Pot", entries[0].Name)

	require.NoError(t, client.CallContext(ctx, &entries, "market_listItems", 1, 1))
	require.Len(t, entries, 1)
	assert.Equal(t, ids[1], entries[0].TokenID)
}

func TestHideThroughAPI(t *testing.T) {
	w, client, _, ids := setup(t)
	ctx := context.Background()

	var ok bool
	require.NoError(t, client.CallContext(ctx, &ok, "market_hide", ids[0]))
	assert.True(t, ok)
	assert.True(t, w.App.Overlay.IsHidden(ids[0]))

	var entries []collection.Entry
	require.NoError(t, client.CallContext(ctx, &entries, "market_listItems", 0, 10, false))
	require.Len(t, entries, 1)
	assert.Equal(t, ids[1], entries[0].TokenID)

	require.NoError(t, client.CallContext(ctx, &entries, "market_listItems", 0, 10, true))
	assert.Len(t, entries, 2)

	var hidden []uint64
	require.NoError(t, client.CallContext(ctx, &hidden, "market_hidden"))
	assert.Equal(t, []uint64{ids[0]}, hidden)

	require.NoError(t, client.CallContext(ctx, &ok, "market_show", ids[0]))
	assert.True(t, ok)
	require.NoError(t, client.CallContext(ctx, &ok, "market_isHidden", ids[0]))
	assert.False(t, ok)
}

func TestItemWithHistoryAndMetadata(t *testing.T) {
	w, client, _, ids := setup(t)
	ctx := context.Background()

	_, err := w.App.Mutations.AddProvenanceRecord(ctx, ids[0], "Sold at Dilli Haat")
	require.NoError(t, err)

	var item collection.Entry
	require.NoError(t, client.CallContext(ctx, &item, "market_item", ids[0]))
	assert.Contains(t, item.Provenance, "Sold at Dilli Haat")

	var events []gateway.Event
	require.NoError(t, client.CallContext(ctx, &events, "market_history", ids[0]))
	kinds := make([]gateway.EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Contains(t, kinds, gateway.EventMinted)
	assert.Contains(t, kinds, gateway.EventProvenance)

	var md content.ItemMetadata
	require.NoError(t, client.CallContext(ctx, &md, "market_itemMetadata", item.TokenURI))
	assert.Equal(t, "Clay Pot", md.Name)

	var loc string
	require.NoError(t, client.CallContext(ctx, &loc, "market_locate", md.Image))
	assert.Contains(t, loc, w.Content.URL)
}

func TestArtisansThroughAPI(t *testing.T) {
	w, client, _, _ := setup(t)
	ctx := context.Background()

	var artisans []gateway.Artisan
	require.NoError(t, client.CallContext(ctx, &artisans, "market_listArtisans"))
	require.Len(t, artisans, 1)
	assert.Equal(t, w.Artisan.Address, artisans[0].Address)

	var a gateway.Artisan
	require.NoError(t, client.CallContext(ctx, &a, "market_artisan", w.Artisan.Address))
	assert.Equal(t, "Ravi Kumar", a.Name)
}

func TestErrorsCarryKind(t *testing.T) {
	w, client, _, _ := setup(t)
	ctx := context.Background()

	var item collection.Entry
	err := client.CallContext(ctx, &item, "market_item", 9999)
	require.Error(t, err)

	var rerr rpc.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, -32004, rerr.ErrorCode())

	var derr rpc.DataError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "not found", derr.ErrorData())

	var entries []collection.Entry
	err = client.CallContext(ctx, &entries, "market_listItems", -1, 10)
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, -32602, rerr.ErrorCode())

	err = client.CallContext(ctx, &entries, "market_itemsByOwner", w.Buyer.Address)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCORS(t *testing.T) {
	_, _, srv, _ := setup(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://market.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://market.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSearchThroughAPI(t *testing.T) {
	_, client, _, ids := setup(t)
	ctx := context.Background()

	var entries []collection.Entry
	require.NoError(t, client.CallContext(ctx, &entries, "market_searchItems", `name ~ "lamp"`))
	require.Len(t, entries, 1)
	assert.Equal(t, ids[1], entries[0].TokenID)

	err := client.CallContext(ctx, &entries, "market_searchItems", `name >`)
	var rerr rpc.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, -32602, rerr.ErrorCode())
}
