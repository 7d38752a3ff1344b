package gacha

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/big"

	"beast-summon-backend/internal/models"
)

// Per-field domain-separation tags. Each attribute is derived by keying an
// HMAC with the base seed and hashing its own tag, so the five sub-values are
// statistically independent even though they share one random value.
const (
	tagBeast   = "beast"
	tagHP      = "hp"
	tagAttack  = "attack"
	tagDefense = "defense"
	tagRarity  = "rarity"
)

// Derived is the expansion of one random value into the full attribute set.
type Derived struct {
	BeastIndex int
	HP         int
	Attack     int
	Defense    int
	RarityRoll int
	Rarity     models.Rarity
}

// BaseSeed combines the provider's random value with the request id. The
// request id salts the seed: if the provider ever returns the same value for
// two requests, their outcomes stay independent.
func BaseSeed(randomValue []byte, requestID string) []byte {
	h := hmac.New(sha256.New, randomValue)
	h.Write([]byte(requestID))
	return h.Sum(nil)
}

// subValue hashes (seed, tag) and reduces the digest into [min, max].
func subValue(seed []byte, tag string, min, max int) int {
	h := hmac.New(sha256.New, seed)
	h.Write([]byte(tag))
	digest := h.Sum(nil)

	span := big.NewInt(int64(max - min + 1))
	n := new(big.Int).SetBytes(digest)
	n.Mod(n, span)
	return min + int(n.Int64())
}

// RarityFromRoll maps a uniform [1,100] roll onto the fixed tier partition:
// 1-50 common, 51-80 rare, 81-95 unique, 96-100 legendary.
func RarityFromRoll(roll int) models.Rarity {
	switch {
	case roll <= 50:
		return models.RarityCommon
	case roll <= 80:
		return models.RarityRare
	case roll <= 95:
		return models.RarityUnique
	default:
		return models.RarityLegendary
	}
}

// Derive expands one fulfilled random value into the beast index, stats, and
// rarity tier. Deterministic for a fixed (randomValue, requestID) pair.
func Derive(randomValue []byte, requestID string, catalogSize int) Derived {
	seed := BaseSeed(randomValue, requestID)

	d := Derived{
		BeastIndex: subValue(seed, tagBeast, 0, catalogSize-1),
		HP:         subValue(seed, tagHP, models.MinHP, models.MaxHP),
		Attack:     subValue(seed, tagAttack, models.MinCombat, models.MaxCombat),
		Defense:    subValue(seed, tagDefense, models.MinCombat, models.MaxCombat),
		RarityRoll: subValue(seed, tagRarity, models.MinRoll, models.MaxRoll),
	}
	d.Rarity = RarityFromRoll(d.RarityRoll)
	return d
}
