package contracts

import "github.com/ethereum/go-ethereum/crypto"

// ItemMinted is emitted once per mint.
// Parameters: tokenId (indexed), artisan (indexed), name
var ItemMinted = crypto.Keccak256Hash([]byte("ItemMinted(uint256,address,string)"))

// ProvenanceRecordAdded is emitted for every appended provenance entry.
// Parameters: tokenId (indexed), record
var ProvenanceRecordAdded = crypto.Keccak256Hash([]byte("ProvenanceRecordAdded(uint256,string)"))

// MetadataUpdated is emitted when the token pointer or descriptive fields change.
// Parameters: tokenId (indexed), tokenURI
var MetadataUpdated = crypto.Keccak256Hash([]byte("MetadataUpdated(uint256,string)"))

// Transfer is the ERC721 transfer event. Mints come from and burns go to the
// zero address.
// Parameters: from (indexed), to (indexed), tokenId (indexed)
var Transfer = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// ArtisanRegistered is emitted on first registration of an address.
// Parameters: artisan (indexed), name
var ArtisanRegistered = crypto.Keccak256Hash([]byte("ArtisanRegistered(address,string)"))

// ArtisanVerified is emitted when the registry owner verifies an artisan.
// Parameters: artisan (indexed)
var ArtisanVerified = crypto.Keccak256Hash([]byte("ArtisanVerified(address)"))

// ArtisanUpdated is emitted when an artisan edits their profile.
// Parameters: artisan (indexed)
var ArtisanUpdated = crypto.Keccak256Hash([]byte("ArtisanUpdated(address)"))
