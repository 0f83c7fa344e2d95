// Package collection lists artisans and items.
//
// The contracts only offer enumeration by index, so every listing scans the
// live collection and filters on the client. Entries whose details cannot be
// read are logged and left out; the listing as a whole still succeeds.
package collection

import (
	"context"

	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 10
)

// Entry is an item annotated with its local visibility.
type Entry struct {
	gateway.Item
	Hidden bool `json:"isHidden"`
}

// Reader is the read side of the marketplace. Listings keep the order in
// which the ledger assigned the entries.
type Reader interface {
	// ListArtisans returns verified artisans only.
	ListArtisans(ctx context.Context) ([]gateway.Artisan, error)
	// ListItems pages over the items, hidden ones excluded unless
	// includeHidden is set. Filtering happens before the window is applied.
	ListItems(ctx context.Context, offset, limit int, includeHidden bool) ([]Entry, error)
	ListItemsByOwner(ctx context.Context, owner common.Address) ([]Entry, error)
	ListItemsByArtisan(ctx context.Context, artisan common.Address) ([]Entry, error)

	// Item returns one item with its provenance log.
	Item(ctx context.Context, tokenID uint64) (*Entry, error)
	Artisan(ctx context.Context, addr common.Address) (*gateway.Artisan, error)
	// ItemsOfOwner uses the owner index of the contract instead of a scan.
	ItemsOfOwner(ctx context.Context, owner common.Address) ([]Entry, error)
	// Search returns the items matching a query filter, see package query.
	Search(ctx context.Context, where string, includeHidden bool) ([]Entry, error)
}

// Handles yields contract handles for the current session.
type Handles interface {
	Registry(ctx context.Context) (gateway.Registry, error)
	Items(ctx context.Context) (gateway.Items, error)
}

// Visibility reports whether the user hid an item.
type Visibility interface {
	IsHidden(tokenID uint64) bool
}
