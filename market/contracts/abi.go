// Package contracts holds the ABI descriptors and event signatures of the
// artisan registry and the artisanal NFT contracts.
package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ArtisanRegistryABI is the input ABI used to bind the artisan registry.
const ArtisanRegistryABI = `[
	{"type":"function","name":"registerArtisan","stateMutability":"nonpayable","inputs":[
		{"name":"name","type":"string"},{"name":"location","type":"string"},
		{"name":"specialization","type":"string"},{"name":"contactInfo","type":"string"}],"outputs":[]},
	{"type":"function","name":"updateArtisanInfo","stateMutability":"nonpayable","inputs":[
		{"name":"name","type":"string"},{"name":"location","type":"string"},
		{"name":"specialization","type":"string"},{"name":"contactInfo","type":"string"}],"outputs":[]},
	{"type":"function","name":"verifyArtisan","stateMutability":"nonpayable","inputs":[
		{"name":"artisan","type":"address"}],"outputs":[]},
	{"type":"function","name":"isVerifiedArtisan","stateMutability":"view","inputs":[
		{"name":"artisan","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getArtisanDetails","stateMutability":"view","inputs":[
		{"name":"artisan","type":"address"}],"outputs":[
		{"name":"name","type":"string"},{"name":"location","type":"string"},
		{"name":"specialization","type":"string"},{"name":"contactInfo","type":"string"},
		{"name":"isVerified","type":"bool"},{"name":"registrationDate","type":"uint256"}]},
	{"type":"function","name":"getArtisanCount","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}]},
	{"type":"function","name":"artisanAddresses","stateMutability":"view","inputs":[
		{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"address"}]},
	{"type":"event","name":"ArtisanRegistered","anonymous":false,"inputs":[
		{"name":"artisan","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}]},
	{"type":"event","name":"ArtisanVerified","anonymous":false,"inputs":[
		{"name":"artisan","type":"address","indexed":true}]},
	{"type":"event","name":"ArtisanUpdated","anonymous":false,"inputs":[
		{"name":"artisan","type":"address","indexed":true}]},
	{"type":"error","name":"OwnableUnauthorizedAccount","inputs":[
		{"name":"account","type":"address"}]}
]`

// ArtisanalNFTABI is the input ABI used to bind the artisanal NFT contract.
const ArtisanalNFTABI = `[
	{"type":"function","name":"mintItem","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},{"name":"tokenURI","type":"string"},
		{"name":"name","type":"string"},{"name":"description","type":"string"},
		{"name":"materials","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"updateMetadata","stateMutability":"nonpayable","inputs":[
		{"name":"tokenId","type":"uint256"},{"name":"tokenURI","type":"string"},
		{"name":"name","type":"string"},{"name":"description","type":"string"},
		{"name":"materials","type":"string"}],"outputs":[]},
	{"type":"function","name":"burnToken","stateMutability":"nonpayable","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[
		{"name":"from","type":"address"},{"name":"to","type":"address"},
		{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"addProvenanceRecord","stateMutability":"nonpayable","inputs":[
		{"name":"tokenId","type":"uint256"},{"name":"record","type":"string"}],"outputs":[]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenByIndex","stateMutability":"view","inputs":[
		{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getItemDetails","stateMutability":"view","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[
		{"name":"name","type":"string"},{"name":"description","type":"string"},
		{"name":"materials","type":"string"},{"name":"creationDate","type":"uint256"},
		{"name":"artisan","type":"address"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getProvenanceHistory","stateMutability":"view","inputs":[
		{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[
		{"name":"","type":"uint256"}]},
	{"type":"event","name":"ItemMinted","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},{"name":"artisan","type":"address","indexed":true},
		{"name":"name","type":"string","indexed":false}]},
	{"type":"event","name":"ProvenanceRecordAdded","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},{"name":"record","type":"string","indexed":false}]},
	{"type":"event","name":"MetadataUpdated","anonymous":false,"inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},{"name":"tokenURI","type":"string","indexed":false}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},
		{"name":"tokenId","type":"uint256","indexed":true}]},
	{"type":"error","name":"ERC721NonexistentToken","inputs":[
		{"name":"tokenId","type":"uint256"}]},
	{"type":"error","name":"ERC721InsufficientApproval","inputs":[
		{"name":"operator","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"error","name":"ERC721IncorrectOwner","inputs":[
		{"name":"sender","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"owner","type":"address"}]},
	{"type":"error","name":"OwnableUnauthorizedAccount","inputs":[
		{"name":"account","type":"address"}]}
]`

var (
	registryABI = sync.OnceValues(func() (abi.ABI, error) {
		return abi.JSON(strings.NewReader(ArtisanRegistryABI))
	})
	nftABI = sync.OnceValues(func() (abi.ABI, error) {
		return abi.JSON(strings.NewReader(ArtisanalNFTABI))
	})
)

// RegistryABI returns the parsed artisan registry ABI.
func RegistryABI() (abi.ABI, error) {
	return registryABI()
}

// NFTABI returns the parsed artisanal NFT ABI.
func NFTABI() (abi.ABI, error) {
	return nftABI()
}
