package serve

import (
	"context"
	"errors"

	"github.com/chennaiartisanal/provenance/market/app"
	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/visibility"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

const Namespace = "market"

// Error codes of classified failures. Wallet codes follow EIP-1193.
var errorCodes = map[error]int{
	failure.ErrUserRejected:        4001,
	failure.ErrNoAuthorizedAccount: 4100,
	failure.ErrNotConnected:        4900,
	failure.ErrWalletUnavailable:   4900,
	failure.ErrInvalidInput:        -32602,
	failure.ErrUnauthorized:        -32003,
	failure.ErrNotFound:            -32004,
	failure.ErrLedger:              -32005,
	failure.ErrContentUnavailable:  -32010,
	failure.ErrUploadFailed:        -32011,
}

// apiError carries a failure kind over JSON-RPC. The message is the human
// readable one, the kind goes into the error data.
type apiError struct {
	err  error
	kind error
}

func (e *apiError) Error() string          { return failure.Message(e.err) }
func (e *apiError) Unwrap() error          { return e.err }
func (e *apiError) ErrorData() interface{} { return e.kind.Error() }

func (e *apiError) ErrorCode() int {
	if code, ok := errorCodes[e.kind]; ok {
		return code
	}
	return -32000
}

func rpcError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := failure.KindOf(err)
	if kind == nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		kind = failure.ErrLedger
	}
	log.Debug("market api call failed", "method", op, "err", err)
	return &apiError{err: err, kind: kind}
}

type itemHandles interface {
	Items(ctx context.Context) (gateway.Items, error)
}

// API is the read API of the marketplace plus the local visibility toggles.
// It never submits transactions.
type API struct {
	collection collection.Reader
	handles    itemHandles
	overlay    *visibility.Overlay
	resolver   *content.Resolver
}

func NewAPI(a *app.App) *API {
	return &API{
		collection: a.Collection,
		handles:    a.Gateway,
		overlay:    a.Overlay,
		resolver:   a.Resolver,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (api *API) ListArtisans(ctx context.Context) ([]gateway.Artisan, error) {
	artisans, err := api.collection.ListArtisans(ctx)
	return nonNil(artisans), rpcError("listArtisans", err)
}

func (api *API) Artisan(ctx context.Context, addr common.Address) (*gateway.Artisan, error) {
	a, err := api.collection.Artisan(ctx, addr)
	return a, rpcError("artisan", err)
}

// ListItems returns a page of items. Missing parameters take the listing
// defaults.
func (api *API) ListItems(ctx context.Context, offset, limit *int, includeHidden *bool) ([]collection.Entry, error) {
	o, l, h := collection.DefaultOffset, collection.DefaultLimit, false
	if offset != nil {
		o = *offset
	}
	if limit != nil {
		l = *limit
	}
	if includeHidden != nil {
		h = *includeHidden
	}
	entries, err := api.collection.ListItems(ctx, o, l, h)
	return nonNil(entries), rpcError("listItems", err)
}

// SearchItems returns the items matching a filter expression.
func (api *API) SearchItems(ctx context.Context, where string, includeHidden *bool) ([]collection.Entry, error) {
	entries, err := api.collection.Search(ctx, where, includeHidden != nil && *includeHidden)
	return nonNil(entries), rpcError("searchItems", err)
}

func (api *API) ItemsByOwner(ctx context.Context, owner common.Address) ([]collection.Entry, error) {
	entries, err := api.collection.ListItemsByOwner(ctx, owner)
	return nonNil(entries), rpcError("itemsByOwner", err)
}

func (api *API) ItemsByArtisan(ctx context.Context, artisan common.Address) ([]collection.Entry, error) {
	entries, err := api.collection.ListItemsByArtisan(ctx, artisan)
	return nonNil(entries), rpcError("itemsByArtisan", err)
}

func (api *API) Item(ctx context.Context, tokenID uint64) (*collection.Entry, error) {
	e, err := api.collection.Item(ctx, tokenID)
	return e, rpcError("item", err)
}

func (api *API) History(ctx context.Context, tokenID uint64) ([]gateway.Event, error) {
	items, err := api.handles.Items(ctx)
	if err != nil {
		return nil, rpcError("history", err)
	}
	events, err := items.History(ctx, tokenID)
	return nonNil(events), rpcError("history", err)
}

// ItemMetadata fetches the metadata document a token URI points at.
func (api *API) ItemMetadata(ctx context.Context, tokenURI string) (*content.ItemMetadata, error) {
	md, err := api.resolver.ItemMetadata(ctx, tokenURI)
	if err != nil {
		return nil, rpcError("itemMetadata", err)
	}
	return &md, nil
}

// Locate turns a content pointer into a gateway URL a browser can load.
func (api *API) Locate(pointer string) (string, error) {
	loc, err := api.resolver.Locate(pointer)
	return loc, rpcError("locate", err)
}

func (api *API) Hide(tokenID uint64) bool {
	return api.overlay.Hide(tokenID)
}

func (api *API) Show(tokenID uint64) bool {
	return api.overlay.Show(tokenID)
}

func (api *API) IsHidden(tokenID uint64) bool {
	return api.overlay.IsHidden(tokenID)
}

func (api *API) Hidden() []uint64 {
	return nonNil(api.overlay.Hidden())
}
