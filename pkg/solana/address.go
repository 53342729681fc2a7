package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	ErrInvalidPublicKey = errors.New("invalid public key")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// The generated key is rejected when it's a valid compressed EdwardsPoint,
	// since a private key could then exist for it.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if IsOnCurve(pub[:]) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrInvalidPublicKey
}

// CreateWithSeed mirrors the Solana SDK's Pubkey::create_with_seed, which
// derives sha256(base || seed || owner). Unlike program addresses, the result
// is not forced off the curve.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L126
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(seed) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}

	h := sha256.New()
	for _, v := range [][]byte{base, []byte(seed), owner} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}
	return h.Sum(nil), nil
}

// IsOnCurve reports whether the key is a valid compressed ed25519 point.
//
// The edwards25519.ExtendedGroupElement (the EdwardsPoint) is internal to the
// golang.org/x/crypto library, so we rely (for now) on a deprecated open source
// alternative.
func IsOnCurve(key []byte) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var pub [32]byte
	copy(pub[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&pub)
}
