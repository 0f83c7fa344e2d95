package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/chennaiartisanal/provenance/market/app"
	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/config"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/mutation"
	"github.com/chennaiartisanal/provenance/market/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// Session switches in tests are asynchronous; these bound the wait.
const (
	SessionTimeout = 2 * time.Second
	SessionPoll    = 5 * time.Millisecond
)

// World is the test world - it holds all the state that is shared between steps
type World struct {
	Ledger   *Ledger
	Content  *ContentStore
	Provider *wallet.KeyProvider
	App      *app.App

	Owner         *Account
	Artisan       *Account
	SecondArtisan *Account
	Buyer         *Account

	LastError    error
	LastMinted   *mutation.Minted
	LastItems    []collection.Entry
	LastArtisans []gateway.Artisan
}

// Config returns settings pointing at the in-memory ledger and content store.
func (w *World) Config() config.Config {
	cfg := config.Default()
	cfg.ChainID = 0
	cfg.Contracts.Registry = RegistryAddress
	cfg.Contracts.NFT = NFTAddress
	cfg.Content.Gateway = w.Content.URL
	cfg.Content.PinningURL = w.Content.URL
	cfg.Content.APIKey = TestAPIKey
	cfg.Content.APISecret = TestAPISecret
	cfg.DataDir = ""
	cfg.RPCRate = 0
	return cfg
}

func NewWorld(ctx context.Context) (*World, error) {
	w := &World{
		Owner:         MustNewAccount(),
		Artisan:       MustNewAccount(),
		SecondArtisan: MustNewAccount(),
		Buyer:         MustNewAccount(),
	}
	w.Ledger = NewLedger(w.Owner.Address)
	w.Content = NewContentStore()
	w.Provider = wallet.NewKeyProvider(w.Artisan.Key, w.Owner.Key, w.SecondArtisan.Key, w.Buyer.Key)

	a, err := app.NewWithBackend(ctx, w.Config(), w.Ledger, w.Provider)
	if err != nil {
		w.Content.Close()
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	w.App = a

	if _, err := a.Wallet.Connect(ctx); err != nil {
		w.Shutdown()
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	return w, nil
}

func (w *World) Shutdown() {
	w.App.Close()
	w.Content.Close()
}

// As makes acc the wallet account and waits until the session follows.
func (w *World) As(ctx context.Context, acc *Account) error {
	if w.App.Wallet.Session().Address == acc.Address {
		return nil
	}
	if err := w.Provider.SetAccounts(acc.Address); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, SessionTimeout)
	defer cancel()
	tick := time.NewTicker(SessionPoll)
	defer tick.Stop()
	for {
		if w.App.Wallet.Session().Address == acc.Address {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("session did not switch to %s: %w", acc.Address, ctx.Err())
		case <-tick.C:
		}
	}
}

// RegisterVerified registers acc as an artisan and verifies it as the owner.
// The wallet is left on acc.
func (w *World) RegisterVerified(ctx context.Context, acc *Account, p gateway.ArtisanProfile) error {
	if err := w.As(ctx, acc); err != nil {
		return err
	}
	if _, err := w.App.Mutations.RegisterArtisan(ctx, p); err != nil {
		return fmt.Errorf("failed to register artisan: %w", err)
	}
	if err := w.As(ctx, w.Owner); err != nil {
		return err
	}
	if _, err := w.App.Mutations.VerifyArtisan(ctx, acc.Address); err != nil {
		return fmt.Errorf("failed to verify artisan: %w", err)
	}
	return w.As(ctx, acc)
}

// Mint mints an item with a generated image as the current wallet account.
func (w *World) Mint(ctx context.Context, f gateway.ItemFields) (*mutation.Minted, error) {
	img := mutation.Image{
		Data:        fmt.Appendf(nil, "image of %s made of %s at %d", f.Name, f.Materials, time.Now().UnixNano()),
		ContentType: "image/png",
	}
	return w.App.Mutations.MintItem(ctx, img, f)
}

// Metadata fetches the metadata document of a minted item.
func (w *World) Metadata(ctx context.Context, tokenURI string) (content.ItemMetadata, error) {
	return w.App.Resolver.ItemMetadata(ctx, tokenURI)
}

// Account maps role names used in scenarios to accounts.
func (w *World) Account(role string) (*Account, error) {
	switch role {
	case "owner":
		return w.Owner, nil
	case "artisan", "A":
		return w.Artisan, nil
	case "second artisan":
		return w.SecondArtisan, nil
	case "buyer", "B":
		return w.Buyer, nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

func (w *World) Address(role string) common.Address {
	acc, err := w.Account(role)
	if err != nil {
		return common.Address{}
	}
	return acc.Address
}
