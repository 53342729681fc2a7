package nftrarity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const (
	// RarityInfoSeedLabel is the domain label mixed into every rarity info seed.
	RarityInfoSeedLabel = "rarity_info"

	// LabelSize is the stored size of collection and rarity labels.
	LabelSize = 16

	// SeedLength is the number of seed hash characters used to derive a rarity
	// info address.
	SeedLength = 32
)

// SeedHash returns hex(sha256(hex(collection || rarity || decimal(nonce) || label))).
//
// The full labels are hashed, even when they're longer than LabelSize.
func SeedHash(collection, rarity string, nonce uint64, label string) string {
	var preimage []byte
	preimage = append(preimage, collection...)
	preimage = append(preimage, rarity...)
	preimage = strconv.AppendUint(preimage, nonce, 10)
	preimage = append(preimage, label...)

	digest := sha256.Sum256([]byte(hex.EncodeToString(preimage)))
	return hex.EncodeToString(digest[:])
}

// GetRarityInfoSeed returns the seed a rarity info account is created with.
func GetRarityInfoSeed(collection, rarity string, nonce uint64) string {
	return SeedHash(collection, rarity, nonce, RarityInfoSeedLabel)[:SeedLength]
}

// ToFixedLength left aligns label into a zero padded LabelSize buffer. Labels
// that don't fit are rejected rather than truncated.
func ToFixedLength(label string) ([LabelSize]byte, error) {
	var fixed [LabelSize]byte
	if len(label) > LabelSize {
		return fixed, ErrLabelTooLong
	}

	copy(fixed[:], label)
	return fixed, nil
}

// FromFixedLength strips the zero padding of a stored label.
func FromFixedLength(fixed [LabelSize]byte) string {
	n := len(fixed)
	for n > 0 && fixed[n-1] == 0 {
		n--
	}
	return string(fixed[:n])
}
