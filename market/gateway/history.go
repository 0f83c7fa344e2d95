package gateway

import (
	"context"
	"sort"

	"github.com/chennaiartisanal/provenance/market/contracts"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

type EventKind string

const (
	EventMinted     EventKind = "minted"
	EventTransfer   EventKind = "transfer"
	EventBurned     EventKind = "burned"
	EventProvenance EventKind = "provenance"
	EventMetadata   EventKind = "metadata"
)

// Event is one decoded NFT contract log concerning a single token.
type Event struct {
	Kind        EventKind      `json:"kind"`
	TokenID     uint64         `json:"tokenId"`
	BlockNumber uint64         `json:"blockNumber"`
	TxHash      common.Hash    `json:"txHash"`
	From        common.Address `json:"from,omitempty"`
	To          common.Address `json:"to,omitempty"`
	Detail      string         `json:"detail,omitempty"`

	index uint
}

func (it *itemsContract) History(ctx context.Context, tokenID uint64) ([]Event, error) {
	if err := it.wait(ctx, "nft.history"); err != nil {
		return nil, err
	}

	tokenTopic := common.BigToHash(tokenArg(tokenID))

	own, err := it.binder.backend.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{it.address},
		Topics: [][]common.Hash{
			{
				contracts.ItemMinted,
				contracts.ProvenanceRecordAdded,
				contracts.MetadataUpdated,
			},
			{
				tokenTopic,
			},
		},
	})
	if err != nil {
		return nil, translate("nft.history", it.abi, err)
	}

	transfers, err := it.binder.backend.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{it.address},
		Topics: [][]common.Hash{
			{contracts.Transfer},
			nil,
			nil,
			{tokenTopic},
		},
	})
	if err != nil {
		return nil, translate("nft.history", it.abi, err)
	}

	events := make([]Event, 0, len(own)+len(transfers))
	for _, l := range append(own, transfers...) {
		ev, ok := it.decodeEvent(l)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].index < events[j].index
	})
	return events, nil
}

func topicAddress(h common.Hash) common.Address {
	return common.BytesToAddress(h.Bytes())
}

func (it *itemsContract) decodeEvent(l types.Log) (Event, bool) {
	if len(l.Topics) < 2 {
		return Event{}, false
	}
	ev := Event{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		index:       l.Index,
	}

	unpackString := func(name string) string {
		out, err := it.abi.Unpack(name, l.Data)
		if err != nil || len(out) == 0 {
			log.Warn("failed to decode event data", "event", name, "tx", l.TxHash, "err", err)
			return ""
		}
		s, _ := out[0].(string)
		return s
	}

	switch l.Topics[0] {
	case contracts.ItemMinted:
		if len(l.Topics) < 3 {
			return Event{}, false
		}
		ev.Kind = EventMinted
		ev.TokenID = new(uint256.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		ev.To = topicAddress(l.Topics[2])
		ev.Detail = unpackString("ItemMinted")
	case contracts.ProvenanceRecordAdded:
		ev.Kind = EventProvenance
		ev.TokenID = new(uint256.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		ev.Detail = unpackString("ProvenanceRecordAdded")
	case contracts.MetadataUpdated:
		ev.Kind = EventMetadata
		ev.TokenID = new(uint256.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		ev.Detail = unpackString("MetadataUpdated")
	case contracts.Transfer:
		if len(l.Topics) < 4 {
			return Event{}, false
		}
		ev.From = topicAddress(l.Topics[1])
		ev.To = topicAddress(l.Topics[2])
		ev.TokenID = new(uint256.Int).SetBytes(l.Topics[3].Bytes()).Uint64()
		switch {
		case ev.From == (common.Address{}):
			// the mint itself is reported by ItemMinted
			return Event{}, false
		case ev.To == (common.Address{}):
			ev.Kind = EventBurned
		default:
			ev.Kind = EventTransfer
		}
	default:
		return Event{}, false
	}
	return ev, true
}
