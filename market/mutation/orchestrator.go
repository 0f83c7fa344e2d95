// Package mutation runs the write operations of the marketplace.
//
// Each operation validates its input locally, runs its stages strictly in
// order, and returns only after the ledger confirmed the transaction. A
// failed stage aborts the ones after it. Content pinned before a later
// failure is left in place.
package mutation

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chennaiartisanal/provenance/market/address"
	"github.com/chennaiartisanal/provenance/market/content"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Handles yields contract handles for the current session.
type Handles interface {
	Registry(ctx context.Context) (gateway.Registry, error)
	Items(ctx context.Context) (gateway.Items, error)
}

// Image is an item picture to be pinned.
type Image struct {
	Data        []byte
	ContentType string
}

// Minted describes a newly minted item.
type Minted struct {
	TokenID  uint64         `json:"tokenId"`
	TokenURI string         `json:"tokenURI"`
	Image    content.Pinned `json:"image"`
	TxHash   common.Hash    `json:"txHash"`
}

// Updated describes an item after a metadata update.
type Updated struct {
	TokenURI string      `json:"tokenURI"`
	Reissued bool        `json:"reissued"`
	TxHash   common.Hash `json:"txHash"`
}

type Orchestrator struct {
	handles  Handles
	uploader content.Uploader
	now      func() time.Time

	inflight singleflight.Group
	mu       sync.Mutex
	flights  map[string]*flight
}

// flight is the context shared by the callers of one in-flight mutation.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type Option func(*Orchestrator)

// WithClock sets the time source for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(handles Handles, uploader content.Uploader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		handles:  handles,
		uploader: uploader,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// once runs fn unless an identical operation is already in flight, in which
// case the caller waits for and shares its result. Every caller stops waiting
// when its own ctx ends; the shared run is cancelled only once all of them
// have given up.
func once[T any](ctx context.Context, o *Orchestrator, key string, fn func(ctx context.Context, logger log.Logger) (T, error)) (T, error) {
	f := o.join(ctx, key)
	defer o.leave(key, f)

	ch := o.inflight.DoChan(key, func() (any, error) {
		defer o.land(key, f)
		logger := log.New("op", uuid.NewString())
		start := time.Now()
		res, err := fn(f.ctx, logger)
		if err != nil {
			logger.Warn("mutation failed", "key", key, "elapsed", time.Since(start), "err", err)
		} else {
			logger.Info("mutation confirmed", "key", key, "elapsed", time.Since(start))
		}
		return res, err
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Shared {
			log.Debug("joined in-flight mutation", "key", key)
		}
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

func (o *Orchestrator) join(ctx context.Context, key string) *flight {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.flights == nil {
		o.flights = make(map[string]*flight)
	}
	f := o.flights[key]
	if f == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		o.flights[key] = f
	}
	f.waiters++
	return f
}

func (o *Orchestrator) leave(key string, f *flight) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f.waiters--
	if f.waiters == 0 {
		f.cancel()
		if o.flights[key] == f {
			delete(o.flights, key)
		}
	}
}

// land detaches f once its run is over, so later callers start afresh.
func (o *Orchestrator) land(key string, f *flight) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.flights[key] == f {
		delete(o.flights, key)
	}
}

func key(op string, signer common.Address, args ...any) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('|')
	b.WriteString(signer.Hex())
	for _, a := range args {
		b.WriteByte('|')
		if v, ok := a.(string); ok {
			b.WriteString(strconv.Quote(v))
		} else {
			fmt.Fprint(&b, a)
		}
	}
	return b.String()
}

func required(op string, fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return failure.New(failure.ErrInvalidInput, op, "all fields are required, missing "+strings.Join(missing, ", "))
}

func itemFields(op string, f gateway.ItemFields) error {
	return required(op, map[string]string{
		"name":        f.Name,
		"description": f.Description,
		"materials":   f.Materials,
	})
}

func profileFields(op string, p gateway.ArtisanProfile) error {
	return required(op, map[string]string{
		"name":           p.Name,
		"location":       p.Location,
		"specialization": p.Specialization,
		"contactInfo":    p.ContactInfo,
	})
}

// MintItem pins the image, then the metadata document referencing it, then
// mints the item to the signer.
func (o *Orchestrator) MintItem(ctx context.Context, image Image, f gateway.ItemFields) (*Minted, error) {
	const op = "mint item"
	if err := itemFields(op, f); err != nil {
		return nil, err
	}
	if len(image.Data) == 0 {
		return nil, failure.New(failure.ErrInvalidInput, op, "an image is required")
	}

	items, err := o.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	signer := items.Signer()

	k := key(op, signer, crypto.Keccak256Hash(image.Data), f.Name, f.Description, f.Materials)
	return once(ctx, o, k, func(ctx context.Context, logger log.Logger) (*Minted, error) {
		if err := o.precheckVerified(ctx, logger, signer); err != nil {
			return nil, err
		}

		img, err := o.uploader.Upload(ctx, image.Data, image.ContentType)
		if err != nil {
			return nil, err
		}
		logger.Debug("pinned item image", "cid", img.CID)

		md := content.NewItemMetadata(f.Name, f.Description, f.Materials, img.Pointer, signer, o.now(), false)
		doc, err := o.uploader.UploadJSON(ctx, md)
		if err != nil {
			return nil, err
		}
		logger.Debug("pinned item metadata", "cid", doc.CID)

		id, receipt, err := items.Mint(ctx, signer, doc.Pointer, f)
		if err != nil {
			return nil, err
		}
		logger.Info("minted item", "token", id, "artisan", signer)
		return &Minted{TokenID: id, TokenURI: doc.Pointer, Image: img, TxHash: receipt.TxHash}, nil
	})
}

// precheckVerified refuses early when the registry reports the signer as
// unverified. A failed read lets the mint go ahead, the contract decides.
func (o *Orchestrator) precheckVerified(ctx context.Context, logger log.Logger, signer common.Address) error {
	reg, err := o.handles.Registry(ctx)
	if err == nil {
		var ok bool
		ok, err = reg.IsVerifiedArtisan(ctx, signer)
		if err == nil && !ok {
			return failure.New(failure.ErrUnauthorized, "mint item", "only verified artisans can mint")
		}
	}
	if err != nil {
		logger.Debug("verification pre-check unavailable", "err", err)
	}
	return nil
}

// UpdateItem rewrites the descriptive fields of an item. A new image causes
// fresh image and metadata uploads; without one the current token URI is
// kept.
func (o *Orchestrator) UpdateItem(ctx context.Context, tokenID uint64, edits gateway.ItemFields, newImage *Image) (*Updated, error) {
	const op = "update item"
	if err := itemFields(op, edits); err != nil {
		return nil, err
	}
	if newImage != nil && len(newImage.Data) == 0 {
		return nil, failure.New(failure.ErrInvalidInput, op, "replacement image is empty")
	}

	items, err := o.handles.Items(ctx)
	if err != nil {
		return nil, err
	}

	var imageHash common.Hash
	if newImage != nil {
		imageHash = crypto.Keccak256Hash(newImage.Data)
	}
	k := key(op, items.Signer(), tokenID, imageHash, edits.Name, edits.Description, edits.Materials)
	return once(ctx, o, k, func(ctx context.Context, logger log.Logger) (*Updated, error) {
		var (
			uri      string
			reissued bool
			err      error
		)
		if newImage == nil {
			uri, err = items.TokenURI(ctx, tokenID)
			if err != nil {
				return nil, err
			}
		} else {
			details, err := items.ItemDetails(ctx, tokenID)
			if err != nil {
				return nil, err
			}
			img, err := o.uploader.Upload(ctx, newImage.Data, newImage.ContentType)
			if err != nil {
				return nil, err
			}
			md := content.NewItemMetadata(edits.Name, edits.Description, edits.Materials, img.Pointer, details.Artisan, o.now(), true)
			doc, err := o.uploader.UploadJSON(ctx, md)
			if err != nil {
				return nil, err
			}
			uri, reissued = doc.Pointer, true
		}

		receipt, err := items.UpdateMetadata(ctx, tokenID, uri, edits)
		if err != nil {
			return nil, err
		}
		logger.Info("updated item", "token", tokenID, "uri", uri)
		return &Updated{TokenURI: uri, Reissued: reissued, TxHash: receipt.TxHash}, nil
	})
}

// BurnItem destroys an item. Confirming intent is up to the caller.
func (o *Orchestrator) BurnItem(ctx context.Context, tokenID uint64) (*types.Receipt, error) {
	items, err := o.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	return once(ctx, o, key("burn item", items.Signer(), tokenID), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		return items.Burn(ctx, tokenID)
	})
}

// Transfer moves an item from the signer to to.
func (o *Orchestrator) Transfer(ctx context.Context, to common.Address, tokenID uint64) (*types.Receipt, error) {
	const op = "transfer"
	if address.IsZero(to) {
		return nil, failure.New(failure.ErrInvalidInput, op, "recipient address is required")
	}
	items, err := o.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	from := items.Signer()
	return once(ctx, o, key(op, from, to, tokenID), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		return items.Transfer(ctx, from, to, tokenID)
	})
}

func (o *Orchestrator) AddProvenanceRecord(ctx context.Context, tokenID uint64, record string) (*types.Receipt, error) {
	const op = "add provenance record"
	if strings.TrimSpace(record) == "" {
		return nil, failure.New(failure.ErrInvalidInput, op, "provenance record is required")
	}
	items, err := o.handles.Items(ctx)
	if err != nil {
		return nil, err
	}
	return once(ctx, o, key(op, items.Signer(), tokenID, record), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		return items.AddProvenanceRecord(ctx, tokenID, record)
	})
}

// VerifyArtisan grants minting rights. Only the registry owner may do this.
func (o *Orchestrator) VerifyArtisan(ctx context.Context, artisan common.Address) (*types.Receipt, error) {
	const op = "verify artisan"
	if address.IsZero(artisan) {
		return nil, failure.New(failure.ErrInvalidInput, op, "artisan address is required")
	}
	reg, err := o.handles.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return once(ctx, o, key(op, reg.Signer(), artisan), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		return reg.VerifyArtisan(ctx, artisan)
	})
}

// RegisterArtisan creates the signer's artisan record, or updates it when
// one exists already.
func (o *Orchestrator) RegisterArtisan(ctx context.Context, p gateway.ArtisanProfile) (*types.Receipt, error) {
	const op = "register artisan"
	if err := profileFields(op, p); err != nil {
		return nil, err
	}
	reg, err := o.handles.Registry(ctx)
	if err != nil {
		return nil, err
	}
	signer := reg.Signer()
	return once(ctx, o, key(op, signer, p.Name, p.Location, p.Specialization, p.ContactInfo), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		_, err := reg.ArtisanDetails(ctx, signer)
		switch {
		case err == nil:
			logger.Info("artisan already registered, updating", "artisan", signer)
			return reg.UpdateArtisanInfo(ctx, p)
		case failure.KindOf(err) == failure.ErrNotFound:
			return reg.RegisterArtisan(ctx, p)
		default:
			return nil, err
		}
	})
}

func (o *Orchestrator) UpdateArtisanInfo(ctx context.Context, p gateway.ArtisanProfile) (*types.Receipt, error) {
	const op = "update artisan"
	if err := profileFields(op, p); err != nil {
		return nil, err
	}
	reg, err := o.handles.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return once(ctx, o, key(op, reg.Signer(), p.Name, p.Location, p.Specialization, p.ContactInfo), func(ctx context.Context, logger log.Logger) (*types.Receipt, error) {
		return reg.UpdateArtisanInfo(ctx, p)
	})
}
