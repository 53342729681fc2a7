package nftstaking

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidAccountData = errors.New("unexpected account data")

const PoolInfoAccountSize = (8 + // discriminator
	32 + // admin
	32 + // prove_token_authority
	32 + // prove_token_vault
	32 + // prove_token_mint
	32 + // rarity_info
	8) // total_locked

// Offsets of fields that are matched when scanning program accounts
const (
	PoolInfoAdminOffset      = 8
	PoolInfoRarityInfoOffset = 8 + 4*32
)

var poolInfoAccountDiscriminator = []byte{18, 19, 191, 60, 244, 139, 177, 235}

// PoolInfoAccount is the state of a staking pool.
type PoolInfoAccount struct {
	Admin               ed25519.PublicKey
	ProveTokenAuthority ed25519.PublicKey
	ProveTokenVault     ed25519.PublicKey
	ProveTokenMint      ed25519.PublicKey
	RarityInfo          ed25519.PublicKey
	TotalLocked         uint64
}

func (obj *PoolInfoAccount) Clone() *PoolInfoAccount {
	return &PoolInfoAccount{
		Admin:               append(ed25519.PublicKey(nil), obj.Admin...),
		ProveTokenAuthority: append(ed25519.PublicKey(nil), obj.ProveTokenAuthority...),
		ProveTokenVault:     append(ed25519.PublicKey(nil), obj.ProveTokenVault...),
		ProveTokenMint:      append(ed25519.PublicKey(nil), obj.ProveTokenMint...),
		RarityInfo:          append(ed25519.PublicKey(nil), obj.RarityInfo...),
		TotalLocked:         obj.TotalLocked,
	}
}

func (obj *PoolInfoAccount) String() string {
	return "PoolInfoAccount{" +
		"admin='" + base58.Encode(obj.Admin) + "'" +
		", prove_token_authority='" + base58.Encode(obj.ProveTokenAuthority) + "'" +
		", prove_token_vault='" + base58.Encode(obj.ProveTokenVault) + "'" +
		", prove_token_mint='" + base58.Encode(obj.ProveTokenMint) + "'" +
		", rarity_info='" + base58.Encode(obj.RarityInfo) + "'" +
		", total_locked=" + strconv.FormatUint(obj.TotalLocked, 10) +
		"}"
}

func (obj *PoolInfoAccount) Marshal() []byte {
	data := make([]byte, PoolInfoAccountSize)

	var offset int

	putDiscriminator(data, poolInfoAccountDiscriminator, &offset)
	putKey(data, obj.Admin, &offset)
	putKey(data, obj.ProveTokenAuthority, &offset)
	putKey(data, obj.ProveTokenVault, &offset)
	putKey(data, obj.ProveTokenMint, &offset)
	putKey(data, obj.RarityInfo, &offset)
	putUint64(data, obj.TotalLocked, &offset)

	return data
}

func (obj *PoolInfoAccount) Unmarshal(data []byte) error {
	if len(data) < PoolInfoAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, poolInfoAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Admin, &offset)
	getKey(data, &obj.ProveTokenAuthority, &offset)
	getKey(data, &obj.ProveTokenVault, &offset)
	getKey(data, &obj.ProveTokenMint, &offset)
	getKey(data, &obj.RarityInfo, &offset)
	getUint64(data, &obj.TotalLocked, &offset)

	return nil
}
