package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chennaiartisanal/provenance/market/contracts"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"
)

// Backend is the node connection contracts are bound to. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Signer produces transaction signing options for an identity.
type Signer interface {
	Transactor(ctx context.Context, addr common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// EthBinder binds handles to deployed contracts through go-ethereum.
type EthBinder struct {
	backend  Backend
	signer   Signer
	chainID  *big.Int
	limiter  *rate.Limiter
	registry common.Address
	items    common.Address

	registryABI abi.ABI
	itemsABI    abi.ABI
}

type BinderOption func(*EthBinder)

// WithRateLimit caps the rate of node requests made through bound handles.
func WithRateLimit(l *rate.Limiter) BinderOption {
	return func(b *EthBinder) {
		b.limiter = l
	}
}

func NewEthBinder(ctx context.Context, backend Backend, signer Signer, registry, items common.Address, opts ...BinderOption) (*EthBinder, error) {
	registryABI, err := contracts.RegistryABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry abi: %w", err)
	}
	itemsABI, err := contracts.NFTABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse nft abi: %w", err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.ErrLedger, "bind", err, "failed to get chain ID")
	}

	b := &EthBinder{
		backend:     backend,
		signer:      signer,
		chainID:     chainID,
		registry:    registry,
		items:       items,
		registryABI: registryABI,
		itemsABI:    itemsABI,
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

func (b *EthBinder) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

func (b *EthBinder) bind(name string, addr common.Address, parsed abi.ABI, signer common.Address) *boundContract {
	return &boundContract{
		name:     name,
		address:  addr,
		abi:      parsed,
		contract: bind.NewBoundContract(addr, parsed, b.backend, b.backend, b.backend),
		binder:   b,
		signer:   signer,
	}
}

func (b *EthBinder) BindRegistry(ctx context.Context, signer common.Address) (Registry, error) {
	return &registryContract{b.bind("registry", b.registry, b.registryABI, signer)}, nil
}

func (b *EthBinder) BindItems(ctx context.Context, signer common.Address) (Items, error) {
	return &itemsContract{b.bind("nft", b.items, b.itemsABI, signer)}, nil
}

type boundContract struct {
	name     string
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	binder   *EthBinder
	signer   common.Address
}

func (c *boundContract) Signer() common.Address {
	return c.signer
}

func (c *boundContract) wait(ctx context.Context, op string) error {
	if c.binder.limiter == nil {
		return nil
	}
	if err := c.binder.limiter.Wait(ctx); err != nil {
		return failure.Wrap(failure.ErrLedger, op, err, "rate limited")
	}
	return nil
}

func (c *boundContract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	op := c.name + "." + method
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}

	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.signer}, &out, method, args...)
	if err != nil {
		return nil, translate(op, c.abi, err)
	}
	return out, nil
}

// transact submits a transaction and waits until it is mined. A receipt with
// a failed status is an error.
func (c *boundContract) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	op := c.name + "." + method
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}

	opts, err := c.binder.signer.Transactor(ctx, c.signer, c.binder.chainID)
	if err != nil {
		return nil, err
	}

	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, translate(op, c.abi, err)
	}
	log.Debug("transaction submitted", "method", op, "tx", tx.Hash())

	receipt, err := bind.WaitMinedHash(ctx, c.binder.backend, tx.Hash())
	if err != nil {
		return nil, failure.Wrap(failure.ErrLedger, op, err, "failed to wait for transaction")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, failure.New(failure.ErrLedger, op, fmt.Sprintf("transaction %s failed", tx.Hash().Hex()))
	}

	log.Debug("transaction confirmed", "method", op, "tx", tx.Hash(), "block", receipt.BlockNumber)
	return receipt, nil
}

func (c *boundContract) callUint64(ctx context.Context, method string, args ...any) (uint64, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	if err := outputs(method, out, 1); err != nil {
		return 0, err
	}
	n, err := toUint64(out[0])
	if err != nil {
		return 0, failure.Wrap(failure.ErrLedger, c.name+"."+method, err, "")
	}
	return n, nil
}

func (c *boundContract) callAddress(ctx context.Context, method string, args ...any) (common.Address, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	if err := outputs(method, out, 1); err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, failure.New(failure.ErrLedger, c.name+"."+method, "unexpected output type")
	}
	return addr, nil
}

func tokenArg(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}

type registryContract struct {
	*boundContract
}

func (r *registryContract) RegisterArtisan(ctx context.Context, p ArtisanProfile) (*types.Receipt, error) {
	return r.transact(ctx, "registerArtisan", p.Name, p.Location, p.Specialization, p.ContactInfo)
}

func (r *registryContract) UpdateArtisanInfo(ctx context.Context, p ArtisanProfile) (*types.Receipt, error) {
	return r.transact(ctx, "updateArtisanInfo", p.Name, p.Location, p.Specialization, p.ContactInfo)
}

func (r *registryContract) VerifyArtisan(ctx context.Context, artisan common.Address) (*types.Receipt, error) {
	return r.transact(ctx, "verifyArtisan", artisan)
}

func (r *registryContract) IsVerifiedArtisan(ctx context.Context, artisan common.Address) (bool, error) {
	out, err := r.call(ctx, "isVerifiedArtisan", artisan)
	if err != nil {
		return false, err
	}
	if err := outputs("isVerifiedArtisan", out, 1); err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, failure.New(failure.ErrLedger, "registry.isVerifiedArtisan", "unexpected output type")
	}
	return v, nil
}

func (r *registryContract) ArtisanDetails(ctx context.Context, artisan common.Address) (*Artisan, error) {
	out, err := r.call(ctx, "getArtisanDetails", artisan)
	if err != nil {
		return nil, err
	}
	return decodeArtisan(artisan, out)
}

func (r *registryContract) ArtisanCount(ctx context.Context) (uint64, error) {
	return r.callUint64(ctx, "getArtisanCount")
}

func (r *registryContract) ArtisanAt(ctx context.Context, index uint64) (common.Address, error) {
	return r.callAddress(ctx, "artisanAddresses", new(big.Int).SetUint64(index))
}

func (r *registryContract) Owner(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "owner")
}

type itemsContract struct {
	*boundContract
}

func (it *itemsContract) Mint(ctx context.Context, to common.Address, tokenURI string, f ItemFields) (uint64, *types.Receipt, error) {
	receipt, err := it.transact(ctx, "mintItem", to, tokenURI, f.Name, f.Description, f.Materials)
	if err != nil {
		return 0, nil, err
	}

	for _, l := range receipt.Logs {
		if l.Address != it.address || len(l.Topics) < 2 {
			continue
		}
		if l.Topics[0] == contracts.ItemMinted {
			return new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64(), receipt, nil
		}
	}
	return 0, receipt, failure.New(failure.ErrLedger, "nft.mintItem", "receipt carries no ItemMinted event")
}

func (it *itemsContract) UpdateMetadata(ctx context.Context, tokenID uint64, tokenURI string, f ItemFields) (*types.Receipt, error) {
	return it.transact(ctx, "updateMetadata", tokenArg(tokenID), tokenURI, f.Name, f.Description, f.Materials)
}

func (it *itemsContract) Burn(ctx context.Context, tokenID uint64) (*types.Receipt, error) {
	return it.transact(ctx, "burnToken", tokenArg(tokenID))
}

func (it *itemsContract) Transfer(ctx context.Context, from, to common.Address, tokenID uint64) (*types.Receipt, error) {
	return it.transact(ctx, "transferFrom", from, to, tokenArg(tokenID))
}

func (it *itemsContract) AddProvenanceRecord(ctx context.Context, tokenID uint64, record string) (*types.Receipt, error) {
	return it.transact(ctx, "addProvenanceRecord", tokenArg(tokenID), record)
}

func (it *itemsContract) TotalSupply(ctx context.Context) (uint64, error) {
	return it.callUint64(ctx, "totalSupply")
}

func (it *itemsContract) TokenByIndex(ctx context.Context, index uint64) (uint64, error) {
	return it.callUint64(ctx, "tokenByIndex", new(big.Int).SetUint64(index))
}

func (it *itemsContract) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	out, err := it.call(ctx, "tokenURI", tokenArg(tokenID))
	if err != nil {
		return "", err
	}
	if err := outputs("tokenURI", out, 1); err != nil {
		return "", err
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", failure.New(failure.ErrLedger, "nft.tokenURI", "unexpected output type")
	}
	return uri, nil
}

func (it *itemsContract) ItemDetails(ctx context.Context, tokenID uint64) (*ItemDetails, error) {
	out, err := it.call(ctx, "getItemDetails", tokenArg(tokenID))
	if err != nil {
		return nil, err
	}
	return decodeItemDetails(out)
}

func (it *itemsContract) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	return it.callAddress(ctx, "ownerOf", tokenArg(tokenID))
}

func (it *itemsContract) ProvenanceHistory(ctx context.Context, tokenID uint64) ([]string, error) {
	out, err := it.call(ctx, "getProvenanceHistory", tokenArg(tokenID))
	if err != nil {
		return nil, err
	}
	if err := outputs("getProvenanceHistory", out, 1); err != nil {
		return nil, err
	}
	records, ok := out[0].([]string)
	if !ok {
		return nil, failure.New(failure.ErrLedger, "nft.getProvenanceHistory", "unexpected output type")
	}
	return records, nil
}

func (it *itemsContract) BalanceOf(ctx context.Context, owner common.Address) (uint64, error) {
	return it.callUint64(ctx, "balanceOf", owner)
}

func (it *itemsContract) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64) (uint64, error) {
	return it.callUint64(ctx, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(index))
}
