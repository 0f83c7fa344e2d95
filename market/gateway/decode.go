package gateway

import (
	"fmt"
	"math/big"
	"time"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/common"
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func unixTime(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}

func toUint64(v any) (uint64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T for uint256", v)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value %s does not fit in uint64", n)
	}
	return n.Uint64(), nil
}

func outputs(method string, out []any, n int) error {
	if len(out) != n {
		return failure.New(failure.ErrLedger, method, fmt.Sprintf("expected %d outputs, got %d", n, len(out)))
	}
	return nil
}

// decodeArtisan converts getArtisanDetails outputs. An empty name is how the
// registry reports an address it has never seen.
func decodeArtisan(addr common.Address, out []any) (*Artisan, error) {
	if err := outputs("getArtisanDetails", out, 6); err != nil {
		return nil, err
	}
	name, ok0 := out[0].(string)
	location, ok1 := out[1].(string)
	specialization, ok2 := out[2].(string)
	contact, ok3 := out[3].(string)
	verified, ok4 := out[4].(bool)
	registered, ok5 := out[5].(*big.Int)
	if !ok0 || !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, failure.New(failure.ErrLedger, "getArtisanDetails", "unexpected output types")
	}

	if name == "" {
		return nil, failure.New(failure.ErrNotFound, "getArtisanDetails", fmt.Sprintf("artisan %s not registered", addr.Hex()))
	}

	return &Artisan{
		Address: addr,
		ArtisanProfile: ArtisanProfile{
			Name:           name,
			Location:       orDefault(location, DefaultLocation),
			Specialization: orDefault(specialization, DefaultSpecialization),
			ContactInfo:    contact,
		},
		IsVerified:   verified,
		RegisteredAt: unixTime(registered),
	}, nil
}

func decodeItemDetails(out []any) (*ItemDetails, error) {
	if err := outputs("getItemDetails", out, 5); err != nil {
		return nil, err
	}
	name, ok0 := out[0].(string)
	description, ok1 := out[1].(string)
	materials, ok2 := out[2].(string)
	created, ok3 := out[3].(*big.Int)
	artisan, ok4 := out[4].(common.Address)
	if !ok0 || !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, failure.New(failure.ErrLedger, "getItemDetails", "unexpected output types")
	}

	return &ItemDetails{
		ItemFields: ItemFields{
			Name:        orDefault(name, DefaultItemName),
			Description: orDefault(description, DefaultDescription),
			Materials:   orDefault(materials, DefaultMaterials),
		},
		Artisan:   artisan,
		CreatedAt: unixTime(created),
	}, nil
}
