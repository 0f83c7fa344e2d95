package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/chennaiartisanal/provenance/market/contracts"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dataError struct {
	msg  string
	data any
}

func (e dataError) Error() string          { return e.msg }
func (e dataError) ErrorData() interface{} { return e.data }

func revertString(t *testing.T, reason string) []byte {
	t.Helper()
	typ, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: typ}}.Pack(reason)
	require.NoError(t, err)
	return append(append([]byte{}, revertSelector...), packed...)
}

func TestTranslateRevertReason(t *testing.T) {
	nft, err := contracts.NFTABI()
	require.NoError(t, err)

	cases := []struct {
		reason string
		kind   error
	}{
		{"Only verified artisans can mint", failure.ErrUnauthorized},
		{"Ownable: caller is not the owner", failure.ErrUnauthorized},
		{"Artisan not registered", failure.ErrNotFound},
		{"ERC721: invalid token ID", failure.ErrNotFound},
		{"Name cannot be empty", failure.ErrLedger},
	}
	for _, c := range cases {
		t.Run(c.reason, func(t *testing.T) {
			cause := dataError{msg: "execution reverted: " + c.reason, data: hexutil.Encode(revertString(t, c.reason))}
			err := translate("op", nft, fmt.Errorf("call: %w", cause))
			require.ErrorIs(t, err, c.kind)
			assert.Equal(t, c.reason, failure.Message(err))
		})
	}
}

func TestTranslateCustomError(t *testing.T) {
	nft, err := contracts.NFTABI()
	require.NoError(t, err)

	e := nft.Errors["ERC721NonexistentToken"]
	packed, err := e.Inputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	data := append(append([]byte{}, e.ID[:4]...), packed...)

	got := translate("nft.tokenURI", nft, dataError{msg: "execution reverted", data: hexutil.Encode(data)})
	require.ErrorIs(t, got, failure.ErrNotFound)
	assert.Contains(t, failure.Message(got), "ERC721NonexistentToken")

	e = nft.Errors["ERC721IncorrectOwner"]
	packed, err = e.Inputs.Pack(common.Address{1}, big.NewInt(7), common.Address{2})
	require.NoError(t, err)
	data = append(append([]byte{}, e.ID[:4]...), packed...)

	got = translate("nft.transferFrom", nft, dataError{msg: "execution reverted", data: data})
	require.ErrorIs(t, got, failure.ErrUnauthorized)
}

func TestTranslateFallbacks(t *testing.T) {
	nft, err := contracts.NFTABI()
	require.NoError(t, err)

	plain := errors.New("execution reverted: Only token owner can update metadata")
	require.ErrorIs(t, translate("op", nft, plain), failure.ErrUnauthorized)

	require.ErrorIs(t, translate("op", nft, bind.ErrNoCode), failure.ErrLedger)
	require.ErrorIs(t, translate("op", nft, context.DeadlineExceeded), failure.ErrLedger)

	network := errors.New("connection refused")
	got := translate("op", nft, network)
	require.ErrorIs(t, got, failure.ErrLedger)
	require.ErrorIs(t, got, network)

	classified := failure.New(failure.ErrNotConnected, "x", "y")
	assert.Same(t, classified, translate("op", nft, classified))

	assert.NoError(t, translate("op", nft, nil))
}

func TestDecodeArtisanDefaults(t *testing.T) {
	addr := common.Address{9}

	_, err := decodeArtisan(addr, []any{"", "", "", "", false, new(big.Int)})
	require.ErrorIs(t, err, failure.ErrNotFound)

	a, err := decodeArtisan(addr, []any{"Priya", "", "", "p@x.com", true, big.NewInt(1700000000)})
	require.NoError(t, err)
	assert.Equal(t, DefaultLocation, a.Location)
	assert.Equal(t, DefaultSpecialization, a.Specialization)
	assert.True(t, a.IsVerified)
	assert.Equal(t, int64(1700000000), a.RegisteredAt.Unix())

	_, err = decodeArtisan(addr, []any{"too", "few"})
	require.ErrorIs(t, err, failure.ErrLedger)
}

func TestDecodeItemDefaults(t *testing.T) {
	d, err := decodeItemDetails([]any{"", "", "", new(big.Int), common.Address{3}})
	require.NoError(t, err)
	assert.Equal(t, DefaultItemName, d.Name)
	assert.Equal(t, DefaultDescription, d.Description)
	assert.Equal(t, DefaultMaterials, d.Materials)
	assert.True(t, d.CreatedAt.IsZero())
	assert.Equal(t, common.Address{3}, d.Artisan)
}
