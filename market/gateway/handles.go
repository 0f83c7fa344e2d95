package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Registry is a handle to the artisan registry bound to one signer. Writes
// return once the transaction is confirmed.
type Registry interface {
	Signer() common.Address

	RegisterArtisan(ctx context.Context, p ArtisanProfile) (*types.Receipt, error)
	UpdateArtisanInfo(ctx context.Context, p ArtisanProfile) (*types.Receipt, error)
	VerifyArtisan(ctx context.Context, artisan common.Address) (*types.Receipt, error)

	IsVerifiedArtisan(ctx context.Context, artisan common.Address) (bool, error)
	// ArtisanDetails fails with failure.ErrNotFound for unregistered addresses.
	ArtisanDetails(ctx context.Context, artisan common.Address) (*Artisan, error)
	ArtisanCount(ctx context.Context) (uint64, error)
	ArtisanAt(ctx context.Context, index uint64) (common.Address, error)
	Owner(ctx context.Context) (common.Address, error)
}

// Items is a handle to the artisanal NFT contract bound to one signer. Writes
// return once the transaction is confirmed.
type Items interface {
	Signer() common.Address

	Mint(ctx context.Context, to common.Address, tokenURI string, f ItemFields) (uint64, *types.Receipt, error)
	UpdateMetadata(ctx context.Context, tokenID uint64, tokenURI string, f ItemFields) (*types.Receipt, error)
	Burn(ctx context.Context, tokenID uint64) (*types.Receipt, error)
	Transfer(ctx context.Context, from, to common.Address, tokenID uint64) (*types.Receipt, error)
	AddProvenanceRecord(ctx context.Context, tokenID uint64, record string) (*types.Receipt, error)

	TotalSupply(ctx context.Context) (uint64, error)
	TokenByIndex(ctx context.Context, index uint64) (uint64, error)
	TokenURI(ctx context.Context, tokenID uint64) (string, error)
	ItemDetails(ctx context.Context, tokenID uint64) (*ItemDetails, error)
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error)
	ProvenanceHistory(ctx context.Context, tokenID uint64) ([]string, error)
	BalanceOf(ctx context.Context, owner common.Address) (uint64, error)
	TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64) (uint64, error)

	// History returns the events recorded for a token in chain order.
	History(ctx context.Context, tokenID uint64) ([]Event, error)
}

// Binder builds contract handles for a signer.
type Binder interface {
	BindRegistry(ctx context.Context, signer common.Address) (Registry, error)
	BindItems(ctx context.Context, signer common.Address) (Items, error)
}
