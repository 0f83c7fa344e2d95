package ether_test

import (
	"math/big"
	"testing"

	"github.com/chennaiartisanal/provenance/cmd/artisanctl/pkg/ether"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWei(t *testing.T) {
	wei, err := ether.ToWei("100")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000000", wei.String())

	wei, err = ether.ToWei("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1", wei.String())

	for _, bad := range []string{"", "abc", "0", "-1", "0.0000000000000000001"} {
		_, err := ether.ToWei(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromWei(t *testing.T) {
	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "1.5", ether.FromWei(wei))
	assert.Equal(t, "0", ether.FromWei(new(big.Int)))
}
