package collection

import (
	"context"
	"fmt"

	"github.com/chennaiartisanal/provenance/market/address"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/query"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Scanner implements Reader with full scans over the contracts.
type Scanner struct {
	handles     Handles
	visibility  Visibility
	concurrency int
}

var _ Reader = (*Scanner)(nil)

type Option func(*Scanner)

// WithConcurrency bounds how many entries are read from the ledger at once.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewScanner(handles Handles, visibility Visibility, opts ...Option) *Scanner {
	s := &Scanner{
		handles:     handles,
		visibility:  visibility,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// each runs fn for every index below n, at most s.concurrency at a time.
// Slots of failed indexes stay nil and are dropped, order is preserved.
func each[T any](ctx context.Context, s *Scanner, n uint64, what string, fn func(ctx context.Context, i uint64) (*T, error)) ([]T, error) {
	slots := make([]*T, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range n {
		g.Go(func() error {
			v, err := fn(gctx, i)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("skipping unreadable entry", "kind", what, "index", i, "err", err)
				return nil
			}
			slots[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]T, 0, n)
	for _, v := range slots {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *Scanner) ListArtisans(ctx context.Context) ([]gateway.Artisan, error) {
	reg, err := s.handles.Registry(ctx)
	if err != nil {
		return nil, err
	}
	count, err := reg.ArtisanCount(ctx)
	if err != nil {
		return nil, err
	}

	all, err := each(ctx, s, count, "artisan", func(ctx context.Context, i uint64) (*gateway.Artisan, error) {
		addr, err := reg.ArtisanAt(ctx, i)
		if err != nil {
			return nil, err
		}
		return reg.ArtisanDetails(ctx, addr)
	})
	if err != nil {
		return nil, err
	}

	verified := all[:0]
	for _, a := range all {
		if a.IsVerified {
			verified = append(verified, a)
		}
	}
	return verified, nil
}

// scan hydrates every item accepted by keep. keep sees the token id only, so
// it can reject entries before their details are read.
func (s *Scanner) scan(ctx context.Context, keep func(tokenID uint64) bool, match func(*gateway.Item) bool) ([]Entry, error) {
	items, err := s.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	total, err := items.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}

	return each(ctx, s, total, "item", func(ctx context.Context, i uint64) (*Entry, error) {
		id, err := items.TokenByIndex(ctx, i)
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(id) {
			return nil, nil
		}
		it, err := hydrate(ctx, items, id)
		if err != nil {
			return nil, err
		}
		if match != nil && !match(it) {
			return nil, nil
		}
		return &Entry{Item: *it, Hidden: s.visibility.IsHidden(id)}, nil
	})
}

func hydrate(ctx context.Context, items gateway.Items, tokenID uint64) (*gateway.Item, error) {
	uri, err := items.TokenURI(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	details, err := items.ItemDetails(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	owner, err := items.OwnerOf(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &gateway.Item{
		TokenID:     tokenID,
		TokenURI:    uri,
		ItemDetails: *details,
		Owner:       owner,
	}, nil
}

func (s *Scanner) ListItems(ctx context.Context, offset, limit int, includeHidden bool) ([]Entry, error) {
	if offset < 0 || limit < 0 {
		return nil, failure.New(failure.ErrInvalidInput, "list items", fmt.Sprintf("invalid window offset=%d limit=%d", offset, limit))
	}

	var keep func(uint64) bool
	if !includeHidden {
		keep = func(id uint64) bool { return !s.visibility.IsHidden(id) }
	}
	all, err := s.scan(ctx, keep, nil)
	if err != nil {
		return nil, err
	}

	return Window(all, offset, limit), nil
}

// Window returns at most limit entries starting at offset. Both must be
// non-negative.
func Window(entries []Entry, offset, limit int) []Entry {
	start := min(offset, len(entries))
	return entries[start : start+min(limit, len(entries)-start)]
}

func (s *Scanner) ListItemsByOwner(ctx context.Context, owner common.Address) ([]Entry, error) {
	if address.IsZero(owner) {
		return nil, failure.New(failure.ErrInvalidInput, "list items by owner", "invalid owner address")
	}
	return s.scan(ctx, nil, func(it *gateway.Item) bool { return it.Owner == owner })
}

func (s *Scanner) ListItemsByArtisan(ctx context.Context, artisan common.Address) ([]Entry, error) {
	if address.IsZero(artisan) {
		return nil, failure.New(failure.ErrInvalidInput, "list items by artisan", "invalid artisan address")
	}
	return s.scan(ctx, nil, func(it *gateway.Item) bool { return it.Artisan == artisan })
}

func (s *Scanner) Search(ctx context.Context, where string, includeHidden bool) ([]Entry, error) {
	expr, err := query.Parse(where)
	if err != nil {
		return nil, err
	}
	var keep func(uint64) bool
	if !includeHidden {
		keep = func(id uint64) bool { return !s.visibility.IsHidden(id) }
	}
	return s.scan(ctx, keep, expr.Match)
}

func (s *Scanner) ItemsOfOwner(ctx context.Context, owner common.Address) ([]Entry, error) {
	if address.IsZero(owner) {
		return nil, failure.New(failure.ErrInvalidInput, "items of owner", "invalid owner address")
	}
	items, err := s.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := items.BalanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	return each(ctx, s, balance, "owned item", func(ctx context.Context, i uint64) (*Entry, error) {
		id, err := items.TokenOfOwnerByIndex(ctx, owner, i)
		if err != nil {
			return nil, err
		}
		it, err := hydrate(ctx, items, id)
		if err != nil {
			return nil, err
		}
		return &Entry{Item: *it, Hidden: s.visibility.IsHidden(id)}, nil
	})
}

func (s *Scanner) Item(ctx context.Context, tokenID uint64) (*Entry, error) {
	items, err := s.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	it, err := hydrate(ctx, items, tokenID)
	if err != nil {
		return nil, err
	}
	it.Provenance, err = items.ProvenanceHistory(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &Entry{Item: *it, Hidden: s.visibility.IsHidden(tokenID)}, nil
}

func (s *Scanner) Artisan(ctx context.Context, addr common.Address) (*gateway.Artisan, error) {
	if address.IsZero(addr) {
		return nil, failure.New(failure.ErrInvalidInput, "artisan", "invalid artisan address")
	}
	reg, err := s.handles.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.ArtisanDetails(ctx, addr)
}
