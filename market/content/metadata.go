package content

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TraitMaterials    = "Materials"
	TraitCreator      = "Creator"
	TraitCreationDate = "Creation Date"
	TraitLastUpdated  = "Last Updated"
)

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// ItemMetadata is the JSON document a token URI points at.
type ItemMetadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Materials   string      `json:"materials"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// NewItemMetadata builds the document for a freshly minted item, or for an
// updated one when updated is set.
func NewItemMetadata(name, description, materials, image string, creator common.Address, at time.Time, updated bool) ItemMetadata {
	dated := TraitCreationDate
	if updated {
		dated = TraitLastUpdated
	}
	return ItemMetadata{
		Name:        name,
		Description: description,
		Materials:   materials,
		Image:       image,
		Attributes: []Attribute{
			{TraitType: TraitMaterials, Value: materials},
			{TraitType: TraitCreator, Value: creator.Hex()},
			{TraitType: dated, Value: at.UTC().Format(time.RFC3339Nano)},
		},
	}
}

// Attribute returns the value of the named trait.
func (m ItemMetadata) Attribute(trait string) (string, bool) {
	for _, a := range m.Attributes {
		if a.TraitType == trait {
			return a.Value, true
		}
	}
	return "", false
}
