package models

import (
	"fmt"
	"time"
)

// Element is the elemental affinity of a beast template. Code 0 is the
// "unassigned" sentinel and is never valid inside the catalog.
type Element uint8

const (
	ElementNone Element = iota
	ElementFire
	ElementIce
	ElementNature
	ElementThunder
)

func (e Element) Valid() bool {
	return e > ElementNone && e <= ElementThunder
}

func (e Element) String() string {
	switch e {
	case ElementFire:
		return "fire"
	case ElementIce:
		return "ice"
	case ElementNature:
		return "nature"
	case ElementThunder:
		return "thunder"
	default:
		return "none"
	}
}

// Rarity is one of four weighted outcome classes assigned from a uniform
// [1,100] roll: 1-50 common, 51-80 rare, 81-95 unique, 96-100 legendary.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityUnique
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityRare:
		return "rare"
	case RarityUnique:
		return "unique"
	case RarityLegendary:
		return "legendary"
	default:
		return fmt.Sprintf("rarity(%d)", uint8(r))
	}
}

// Stat bounds for minted beasts, inclusive.
const (
	MinHP      = 15000
	MaxHP      = 65535
	MinCombat  = 1500
	MaxCombat  = 4500
	MinRoll    = 1
	MaxRoll    = 100
)

// BeastTemplate is one immutable catalog entry.
type BeastTemplate struct {
	TemplateID uint32  `json:"template_id" yaml:"id"`
	Element    Element `json:"element" yaml:"element"`
	ImageURI   string  `json:"image_uri" yaml:"image"`
}

// MintedBeast is the fully resolved outcome of one fulfilled roll. The engine
// produces it exactly once and hands it to the registry without retaining it.
type MintedBeast struct {
	BeastID    string    `json:"beast_id"`
	OwnerID    int64     `json:"owner_id"`
	TemplateID uint32    `json:"template_id"`
	Element    Element   `json:"element"`
	Rarity     Rarity    `json:"rarity"`
	HP         int       `json:"hp"`
	Attack     int       `json:"attack"`
	Defense    int       `json:"defense"`
	RequestID  string    `json:"request_id"`
	MintedAt   time.Time `json:"minted_at"`
}
