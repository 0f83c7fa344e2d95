package contracts_test

import (
	"testing"

	"github.com/chennaiartisanal/provenance/market/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestABIsParse(t *testing.T) {
	reg, err := contracts.RegistryABI()
	require.NoError(t, err)
	for _, m := range []string{"registerArtisan", "updateArtisanInfo", "verifyArtisan", "isVerifiedArtisan", "getArtisanDetails", "getArtisanCount", "artisanAddresses", "owner"} {
		assert.Contains(t, reg.Methods, m)
	}

	nft, err := contracts.NFTABI()
	require.NoError(t, err)
	for _, m := range []string{"mintItem", "updateMetadata", "burnToken", "transferFrom", "addProvenanceRecord", "totalSupply", "tokenByIndex", "tokenURI", "getItemDetails", "ownerOf", "getProvenanceHistory", "balanceOf", "tokenOfOwnerByIndex"} {
		assert.Contains(t, nft.Methods, m)
	}
}

func TestEventTopicsMatchABI(t *testing.T) {
	nft, err := contracts.NFTABI()
	require.NoError(t, err)
	assert.Equal(t, contracts.ItemMinted, nft.Events["ItemMinted"].ID)
	assert.Equal(t, contracts.ProvenanceRecordAdded, nft.Events["ProvenanceRecordAdded"].ID)
	assert.Equal(t, contracts.MetadataUpdated, nft.Events["MetadataUpdated"].ID)
	assert.Equal(t, contracts.Transfer, nft.Events["Transfer"].ID)

	reg, err := contracts.RegistryABI()
	require.NoError(t, err)
	assert.Equal(t, contracts.ArtisanRegistered, reg.Events["ArtisanRegistered"].ID)
	assert.Equal(t, contracts.ArtisanVerified, reg.Events["ArtisanVerified"].ID)
	assert.Equal(t, contracts.ArtisanUpdated, reg.Events["ArtisanUpdated"].ID)
}
