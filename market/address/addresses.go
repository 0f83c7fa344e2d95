package address

import "github.com/ethereum/go-ethereum/common"

// Sepolia deployment of the marketplace contracts.
var (
	ArtisanRegistryAddress = common.HexToAddress("0x50F1b11881998a602DA812CbE0B25cde8718f7F7")
	ArtisanalNFTAddress    = common.HexToAddress("0x799058848aD74B399f58D2B4Cb5404cb029FB56c")
)

const SepoliaChainID = 11155111

// IsZero reports whether a is unset.
func IsZero(a common.Address) bool {
	return a == (common.Address{})
}
