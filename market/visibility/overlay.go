// Package visibility keeps the local set of items the user chose to hide.
//
// The overlay is a display filter only. It has no effect on chain state and
// is never shared. Storage failures are logged and reported through boolean
// results, they never reach the caller as errors.
package visibility

import (
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"
)

// Key is the storage key holding the JSON array of hidden token ids.
const Key = "chennaiArtisanal_hiddenNFTs"

type Overlay struct {
	kv KV

	mu     sync.Mutex
	hidden mapset.Set[string]
}

// New loads the overlay from kv. Unreadable or corrupt data yields an empty
// overlay.
func New(kv KV) *Overlay {
	o := &Overlay{
		kv:     kv,
		hidden: mapset.NewThreadUnsafeSet[string](),
	}

	raw, err := kv.Get([]byte(Key))
	switch {
	case errors.Is(err, ErrMissing):
	case err != nil:
		log.Warn("failed to read hidden items", "err", err)
	default:
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			log.Warn("ignoring corrupt hidden items", "err", err)
			break
		}
		o.hidden.Append(ids...)
	}
	return o
}

func id(tokenID uint64) string {
	return strconv.FormatUint(tokenID, 10)
}

// persist writes the set. Callers hold o.mu.
func (o *Overlay) persist() error {
	ids := o.hidden.ToSlice()
	slices.SortFunc(ids, func(a, b string) int {
		x, _ := strconv.ParseUint(a, 10, 64)
		y, _ := strconv.ParseUint(b, 10, 64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return o.kv.Put([]byte(Key), data)
}

// Hide adds tokenID to the overlay. It reports false if the change could not
// be persisted, in which case the overlay is left unchanged.
func (o *Overlay) Hide(tokenID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	k := id(tokenID)
	if o.hidden.Contains(k) {
		return true
	}
	o.hidden.Add(k)
	if err := o.persist(); err != nil {
		o.hidden.Remove(k)
		log.Warn("failed to persist hidden item", "token", tokenID, "err", err)
		return false
	}
	return true
}

// Show removes tokenID from the overlay. It reports false if the change could
// not be persisted, in which case the overlay is left unchanged.
func (o *Overlay) Show(tokenID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	k := id(tokenID)
	if !o.hidden.Contains(k) {
		return true
	}
	o.hidden.Remove(k)
	if err := o.persist(); err != nil {
		o.hidden.Add(k)
		log.Warn("failed to persist shown item", "token", tokenID, "err", err)
		return false
	}
	return true
}

func (o *Overlay) IsHidden(tokenID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hidden.Contains(id(tokenID))
}

// Hidden returns the hidden token ids in ascending order.
func (o *Overlay) Hidden() []uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]uint64, 0, o.hidden.Cardinality())
	for _, s := range o.hidden.ToSlice() {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
