package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/chennaiartisanal/provenance/market/contracts"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	RegistryAddress = common.HexToAddress("0x00000000000000000000000000000000a7715a11")
	NFTAddress      = common.HexToAddress("0x00000000000000000000000000000000a7715a12")
)

// revertError mimics the JSON-RPC error a node returns for a reverted call.
type revertError struct {
	msg  string
	data []byte
}

func (e *revertError) Error() string  { return e.msg }
func (e *revertError) ErrorCode() int { return 3 }
func (e *revertError) ErrorData() interface{} {
	if e.data == nil {
		return nil
	}
	return hexutil.Encode(e.data)
}

var stringArgs = func() abi.Arguments {
	t, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}()

func revert(reason string) error {
	packed, err := stringArgs.Pack(reason)
	if err != nil {
		panic(err)
	}
	data := append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
	return &revertError{msg: "execution reverted: " + reason, data: data}
}

func revertCustom(parsed abi.ABI, name string, args ...any) error {
	e, ok := parsed.Errors[name]
	if !ok {
		panic(fmt.Sprintf("unknown custom error %s", name))
	}
	packed, err := e.Inputs.Pack(args...)
	if err != nil {
		panic(err)
	}
	return &revertError{msg: "execution reverted", data: append(slices.Clone(e.ID[:4]), packed...)}
}

type artisanRecord struct {
	name, location, specialization, contact string
	verified                                bool
	registeredAt                            int64
}

type tokenRecord struct {
	uri, name, description, materials string
	artisan, owner                    common.Address
	createdAt                         int64
	provenance                        []string
}

// Ledger is an in-memory chain hosting the artisan registry and the NFT
// contract. It implements the contract backend interfaces of go-ethereum so
// that handles bound to it go through real ABI encoding and signing.
type Ledger struct {
	mu sync.Mutex

	chainID     *big.Int
	signer      types.Signer
	owner       common.Address
	registryABI abi.ABI
	nftABI      abi.ABI
	now         func() time.Time

	artisans     map[common.Address]*artisanRecord
	artisanOrder []common.Address
	tokens       map[uint64]*tokenRecord
	allTokens    []uint64
	nextToken    uint64

	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	logs     []types.Log
	block    uint64

	failing map[string]bool
	calls   map[string]int
}

// NewLedger deploys both contracts with owner as the registry owner.
func NewLedger(owner common.Address) *Ledger {
	registryABI, err := contracts.RegistryABI()
	if err != nil {
		panic(err)
	}
	nftABI, err := contracts.NFTABI()
	if err != nil {
		panic(err)
	}
	chainID := big.NewInt(1337)
	return &Ledger{
		chainID:     chainID,
		signer:      types.LatestSignerForChainID(chainID),
		owner:       owner,
		registryABI: registryABI,
		nftABI:      nftABI,
		now:         time.Now,
		artisans:    make(map[common.Address]*artisanRecord),
		tokens:      make(map[uint64]*tokenRecord),
		nonces:      make(map[common.Address]uint64),
		receipts:    make(map[common.Hash]*types.Receipt),
		failing:     make(map[string]bool),
		calls:       make(map[string]int),
	}
}

func (l *Ledger) Owner() common.Address { return l.owner }

// FailItem makes detail reads of tokenID revert.
func (l *Ledger) FailItem(tokenID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing[fmt.Sprintf("item/%d", tokenID)] = true
}

// FailArtisan makes detail reads of addr revert.
func (l *Ledger) FailArtisan(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing["artisan/"+addr.Hex()] = true
}

// Calls returns how many times method was executed, including dry runs.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func (l *Ledger) event(contract common.Address, parsed abi.ABI, name string, indexed []common.Hash, data ...any) *types.Log {
	ev := parsed.Events[name]
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: contract,
		Topics:  append([]common.Hash{ev.ID}, indexed...),
		Data:    packed,
	}
}

// exec runs a contract call. Handlers validate before mutating, so a revert
// never leaves partial state behind. State only changes when commit is set.
func (l *Ledger) exec(from common.Address, to common.Address, data []byte, commit bool) ([]byte, []*types.Log, error) {
	var parsed abi.ABI
	switch to {
	case RegistryAddress:
		parsed = l.registryABI
	case NFTAddress:
		parsed = l.nftABI
	default:
		return nil, nil, nil
	}
	if len(data) < 4 {
		return nil, nil, &revertError{msg: "execution reverted"}
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, &revertError{msg: "execution reverted"}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, &revertError{msg: "execution reverted"}
	}
	l.calls[method.Name]++

	var (
		out  []any
		logs []*types.Log
	)
	if to == RegistryAddress {
		out, logs, err = l.execRegistry(from, method.Name, args, commit)
	} else {
		out, logs, err = l.execNFT(from, method.Name, args, commit)
	}
	if err != nil {
		return nil, nil, err
	}
	ret, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pack %s outputs: %w", method.Name, err)
	}
	return ret, logs, nil
}

func (l *Ledger) execRegistry(from common.Address, method string, args []any, commit bool) ([]any, []*types.Log, error) {
	switch method {
	case "registerArtisan", "updateArtisanInfo":
		name, location := args[0].(string), args[1].(string)
		specialization, contact := args[2].(string), args[3].(string)
		if name == "" {
			return nil, nil, revert("Name cannot be empty")
		}
		existing := l.artisans[from]
		if method == "registerArtisan" && existing != nil {
			return nil, nil, revert("Artisan already registered")
		}
		if method == "updateArtisanInfo" && existing == nil {
			return nil, nil, revert("Artisan not registered")
		}
		if !commit {
			return nil, nil, nil
		}
		if existing == nil {
			existing = &artisanRecord{registeredAt: l.now().Unix()}
			l.artisans[from] = existing
			l.artisanOrder = append(l.artisanOrder, from)
		}
		existing.name, existing.location = name, location
		existing.specialization, existing.contact = specialization, contact
		if method == "registerArtisan" {
			return nil, []*types.Log{l.event(RegistryAddress, l.registryABI, "ArtisanRegistered", []common.Hash{addrTopic(from)}, name)}, nil
		}
		return nil, []*types.Log{l.event(RegistryAddress, l.registryABI, "ArtisanUpdated", []common.Hash{addrTopic(from)})}, nil

	case "verifyArtisan":
		artisan := args[0].(common.Address)
		if from != l.owner {
			return nil, nil, revertCustom(l.registryABI, "OwnableUnauthorizedAccount", from)
		}
		rec := l.artisans[artisan]
		if rec == nil {
			return nil, nil, revert("Artisan not registered")
		}
		if !commit {
			return nil, nil, nil
		}
		rec.verified = true
		return nil, []*types.Log{l.event(RegistryAddress, l.registryABI, "ArtisanVerified", []common.Hash{addrTopic(artisan)})}, nil

	case "isVerifiedArtisan":
		rec := l.artisans[args[0].(common.Address)]
		return []any{rec != nil && rec.verified}, nil, nil

	case "getArtisanDetails":
		artisan := args[0].(common.Address)
		if l.failing["artisan/"+artisan.Hex()] {
			return nil, nil, revert("forced failure")
		}
		rec := l.artisans[artisan]
		if rec == nil {
			return []any{"", "", "", "", false, new(big.Int)}, nil, nil
		}
		return []any{rec.name, rec.location, rec.specialization, rec.contact, rec.verified, big.NewInt(rec.registeredAt)}, nil, nil

	case "getArtisanCount":
		return []any{u256(uint64(len(l.artisanOrder)))}, nil, nil

	case "artisanAddresses":
		i := args[0].(*big.Int)
		if !i.IsUint64() || i.Uint64() >= uint64(len(l.artisanOrder)) {
			return nil, nil, &revertError{msg: "execution reverted"}
		}
		return []any{l.artisanOrder[i.Uint64()]}, nil, nil

	case "owner":
		return []any{l.owner}, nil, nil
	}
	return nil, nil, &revertError{msg: "execution reverted"}
}

func (l *Ledger) token(id *big.Int) (*tokenRecord, error) {
	if !id.IsUint64() {
		return nil, revertCustom(l.nftABI, "ERC721NonexistentToken", id)
	}
	tok := l.tokens[id.Uint64()]
	if tok == nil {
		return nil, revertCustom(l.nftABI, "ERC721NonexistentToken", id)
	}
	return tok, nil
}

func (l *Ledger) readableToken(id *big.Int) (*tokenRecord, error) {
	tok, err := l.token(id)
	if err != nil {
		return nil, err
	}
	if l.failing[fmt.Sprintf("item/%d", id.Uint64())] {
		return nil, revert("forced failure")
	}
	return tok, nil
}

func (l *Ledger) ownedBy(owner common.Address) []uint64 {
	var ids []uint64
	for _, id := range l.allTokens {
		if l.tokens[id].owner == owner {
			ids = append(ids, id)
		}
	}
	return ids
}

func (l *Ledger) execNFT(from common.Address, method string, args []any, commit bool) ([]any, []*types.Log, error) {
	switch method {
	case "mintItem":
		to, uri := args[0].(common.Address), args[1].(string)
		name, description, materials := args[2].(string), args[3].(string), args[4].(string)
		rec := l.artisans[from]
		if rec == nil || !rec.verified {
			return nil, nil, revert("Only verified artisans can mint")
		}
		id := l.nextToken
		if !commit {
			return []any{u256(id)}, nil, nil
		}
		l.nextToken++
		l.tokens[id] = &tokenRecord{
			uri:         uri,
			name:        name,
			description: description,
			materials:   materials,
			artisan:     from,
			owner:       to,
			createdAt:   l.now().Unix(),
			provenance:  []string{fmt.Sprintf("Created by %s", rec.name)},
		}
		l.allTokens = append(l.allTokens, id)
		return []any{u256(id)}, []*types.Log{
			l.event(NFTAddress, l.nftABI, "Transfer", []common.Hash{{}, addrTopic(to), common.BigToHash(u256(id))}),
			l.event(NFTAddress, l.nftABI, "ItemMinted", []common.Hash{common.BigToHash(u256(id)), addrTopic(from)}, name),
		}, nil

	case "updateMetadata":
		id := args[0].(*big.Int)
		tok, err := l.token(id)
		if err != nil {
			return nil, nil, err
		}
		if tok.owner != from {
			return nil, nil, revert("Only token owner can update metadata")
		}
		if !commit {
			return nil, nil, nil
		}
		tok.uri, tok.name = args[1].(string), args[2].(string)
		tok.description, tok.materials = args[3].(string), args[4].(string)
		return nil, []*types.Log{l.event(NFTAddress, l.nftABI, "MetadataUpdated", []common.Hash{common.BigToHash(id)}, tok.uri)}, nil

	case "burnToken":
		id := args[0].(*big.Int)
		tok, err := l.token(id)
		if err != nil {
			return nil, nil, err
		}
		if tok.owner != from {
			return nil, nil, revertCustom(l.nftABI, "ERC721InsufficientApproval", from, id)
		}
		if !commit {
			return nil, nil, nil
		}
		delete(l.tokens, id.Uint64())
		l.allTokens = slices.DeleteFunc(l.allTokens, func(v uint64) bool { return v == id.Uint64() })
		return nil, []*types.Log{l.event(NFTAddress, l.nftABI, "Transfer", []common.Hash{addrTopic(tok.owner), {}, common.BigToHash(id)})}, nil

	case "transferFrom":
		src, dst, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		tok, err := l.token(id)
		if err != nil {
			return nil, nil, err
		}
		if tok.owner != src {
			return nil, nil, revertCustom(l.nftABI, "ERC721IncorrectOwner", src, id, tok.owner)
		}
		if from != tok.owner {
			return nil, nil, revertCustom(l.nftABI, "ERC721InsufficientApproval", from, id)
		}
		if dst == (common.Address{}) {
			return nil, nil, revert("transfer to the zero address")
		}
		if !commit {
			return nil, nil, nil
		}
		tok.owner = dst
		return nil, []*types.Log{l.event(NFTAddress, l.nftABI, "Transfer", []common.Hash{addrTopic(src), addrTopic(dst), common.BigToHash(id)})}, nil

	case "addProvenanceRecord":
		id, record := args[0].(*big.Int), args[1].(string)
		tok, err := l.token(id)
		if err != nil {
			return nil, nil, err
		}
		if from != tok.owner && from != tok.artisan {
			return nil, nil, revert("Not authorized to add provenance")
		}
		if !commit {
			return nil, nil, nil
		}
		tok.provenance = append(tok.provenance, record)
		return nil, []*types.Log{l.event(NFTAddress, l.nftABI, "ProvenanceRecordAdded", []common.Hash{common.BigToHash(id)}, record)}, nil

	case "totalSupply":
		return []any{u256(uint64(len(l.allTokens)))}, nil, nil

	case "tokenByIndex":
		i := args[0].(*big.Int)
		if !i.IsUint64() || i.Uint64() >= uint64(len(l.allTokens)) {
			return nil, nil, revert("index out of bounds")
		}
		return []any{u256(l.allTokens[i.Uint64()])}, nil, nil

	case "tokenURI":
		tok, err := l.readableToken(args[0].(*big.Int))
		if err != nil {
			return nil, nil, err
		}
		return []any{tok.uri}, nil, nil

	case "getItemDetails":
		tok, err := l.readableToken(args[0].(*big.Int))
		if err != nil {
			return nil, nil, err
		}
		return []any{tok.name, tok.description, tok.materials, big.NewInt(tok.createdAt), tok.artisan}, nil, nil

	case "ownerOf":
		tok, err := l.token(args[0].(*big.Int))
		if err != nil {
			return nil, nil, err
		}
		return []any{tok.owner}, nil, nil

	case "getProvenanceHistory":
		tok, err := l.readableToken(args[0].(*big.Int))
		if err != nil {
			return nil, nil, err
		}
		return []any{slices.Clone(tok.provenance)}, nil, nil

	case "balanceOf":
		return []any{u256(uint64(len(l.ownedBy(args[0].(common.Address)))))}, nil, nil

	case "tokenOfOwnerByIndex":
		owned := l.ownedBy(args[0].(common.Address))
		i := args[1].(*big.Int)
		if !i.IsUint64() || i.Uint64() >= uint64(len(owned)) {
			return nil, nil, revert("owner index out of bounds")
		}
		return []any{u256(owned[i.Uint64()])}, nil, nil
	}
	return nil, nil, &revertError{msg: "execution reverted"}
}

func (l *Ledger) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(l.chainID), nil
}

func (l *Ledger) code(addr common.Address) []byte {
	if addr == RegistryAddress || addr == NFTAddress {
		return []byte{0x60, 0x80, 0x60, 0x40}
	}
	return nil
}

func (l *Ledger) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return l.code(contract), nil
}

func (l *Ledger) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return l.code(account), nil
}

func (l *Ledger) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if call.To == nil {
		return nil, errors.New("contract creation not supported")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ret, _, err := l.exec(call.From, *call.To, call.Data, false)
	return ret, err
}

func (l *Ledger) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if call.To == nil {
		return 0, errors.New("contract creation not supported")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, _, err := l.exec(call.From, *call.To, call.Data, false); err != nil {
		return 0, err
	}
	return 150_000, nil
}

func (l *Ledger) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &types.Header{
		Number:  u256(l.block),
		Time:    uint64(l.now().Unix()),
		BaseFee: big.NewInt(1_000_000_000),
	}, nil
}

func (l *Ledger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (l *Ledger) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (l *Ledger) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[account], nil
}

// SendTransaction mines tx immediately in its own block.
func (l *Ledger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	from, err := types.Sender(l.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.To() == nil {
		return errors.New("contract creation not supported")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.Nonce() != l.nonces[from] {
		return fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), l.nonces[from])
	}
	l.nonces[from]++
	l.block++

	status := types.ReceiptStatusSuccessful
	_, logs, err := l.exec(from, *tx.To(), tx.Data(), true)
	if err != nil {
		status = types.ReceiptStatusFailed
		logs = nil
	}

	for _, lg := range logs {
		lg.BlockNumber = l.block
		lg.TxHash = tx.Hash()
		lg.Index = uint(len(l.logs))
		l.logs = append(l.logs, *lg)
	}

	l.receipts[tx.Hash()] = &types.Receipt{
		Type:        tx.Type(),
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: u256(l.block),
		GasUsed:     150_000,
		Logs:        logs,
	}
	return nil
}

func (l *Ledger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func matches(lg types.Log, q ethereum.FilterQuery) bool {
	if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, lg.Address) {
		return false
	}
	if q.FromBlock != nil && lg.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && q.ToBlock.Sign() >= 0 && lg.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Topics) > len(lg.Topics) {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if !slices.Contains(alternatives, lg.Topics[i]) {
			return false
		}
	}
	return true
}

func (l *Ledger) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []types.Log
	for _, lg := range l.logs {
		if matches(lg, q) {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (l *Ledger) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("log subscriptions not supported")
}
