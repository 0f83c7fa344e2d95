package gateway

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Display defaults for descriptive fields left empty on chain.
const (
	DefaultItemName       = "Unnamed Item"
	DefaultDescription    = "No description available"
	DefaultMaterials      = "Not specified"
	DefaultLocation       = "Unknown Location"
	DefaultSpecialization = "Various Crafts"
)

// ArtisanProfile holds the owner-authored fields of an artisan record.
type ArtisanProfile struct {
	Name           string `json:"name"`
	Location       string `json:"location"`
	Specialization string `json:"specialization"`
	ContactInfo    string `json:"contactInfo"`
}

// Artisan is a registered identity. Address is the natural key.
type Artisan struct {
	Address common.Address `json:"address"`
	ArtisanProfile
	IsVerified   bool      `json:"isVerified"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ItemFields holds the descriptive fields of an item.
type ItemFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Materials   string `json:"materials"`
}

// ItemDetails is what the NFT contract stores for an item besides its
// pointer and owner. Artisan never changes after mint.
type ItemDetails struct {
	ItemFields
	Artisan   common.Address `json:"artisan"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Item is a fully hydrated item record.
type Item struct {
	TokenID  uint64 `json:"tokenId"`
	TokenURI string `json:"tokenURI"`
	ItemDetails
	Owner      common.Address `json:"owner"`
	Provenance []string       `json:"provenance,omitempty"`
}
