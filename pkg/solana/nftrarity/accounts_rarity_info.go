package nftrarity

import (
	"bytes"
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidAccountData = errors.New("unexpected account data")

const RarityInfoAccountSize = (8 + // discriminator
	32 + // admin
	LabelSize + // collection
	LabelSize + // rarity
	4) // mint_list

var rarityInfoAccountDiscriminator = []byte{95, 236, 215, 250, 68, 100, 158, 244}

// RarityInfoAccount is the allow list of mints eligible for a collection and
// rarity tier. The mint list only ever grows and may contain duplicates.
type RarityInfoAccount struct {
	Admin      ed25519.PublicKey
	Collection [LabelSize]byte
	Rarity     [LabelSize]byte
	MintList   []ed25519.PublicKey
}

// GetRarityInfoAccountSize is the size of a RarityInfoAccount holding n mints.
func GetRarityInfoAccountSize(n int) int {
	return RarityInfoAccountSize + n*ed25519.PublicKeySize
}

// Contains reports whether mint is in the mint list.
func (obj *RarityInfoAccount) Contains(mint ed25519.PublicKey) bool {
	for _, listed := range obj.MintList {
		if bytes.Equal(listed, mint) {
			return true
		}
	}
	return false
}

// Len is the number of entries in the mint list.
func (obj *RarityInfoAccount) Len() int {
	return len(obj.MintList)
}

func (obj *RarityInfoAccount) CollectionLabel() string {
	return FromFixedLength(obj.Collection)
}

func (obj *RarityInfoAccount) RarityLabel() string {
	return FromFixedLength(obj.Rarity)
}

func (obj *RarityInfoAccount) Clone() *RarityInfoAccount {
	cloned := &RarityInfoAccount{
		Admin:      append(ed25519.PublicKey(nil), obj.Admin...),
		Collection: obj.Collection,
		Rarity:     obj.Rarity,
		MintList:   make([]ed25519.PublicKey, len(obj.MintList)),
	}
	for i, mint := range obj.MintList {
		cloned.MintList[i] = append(ed25519.PublicKey(nil), mint...)
	}
	return cloned
}

func (obj *RarityInfoAccount) String() string {
	var admin string
	if obj.Admin != nil {
		admin = base58.Encode(obj.Admin)
	}

	mints := make([]string, len(obj.MintList))
	for i, mint := range obj.MintList {
		mints[i] = base58.Encode(mint)
	}

	return "RarityInfoAccount{" +
		"admin='" + admin + "'" +
		", collection='" + obj.CollectionLabel() + "'" +
		", rarity='" + obj.RarityLabel() + "'" +
		", mint_list=[" + strings.Join(mints, ", ") + "]" +
		"}"
}

func (obj *RarityInfoAccount) Marshal() []byte {
	data := make([]byte, GetRarityInfoAccountSize(len(obj.MintList)))

	var offset int

	putDiscriminator(data, rarityInfoAccountDiscriminator, &offset)
	putKey(data, obj.Admin, &offset)
	putLabel(data, obj.Collection, &offset)
	putLabel(data, obj.Rarity, &offset)

	putUint32(data, uint32(len(obj.MintList)), &offset)
	for _, mint := range obj.MintList {
		putKey(data, mint, &offset)
	}

	return data
}

// Unmarshal decodes the account. Accounts may be allocated larger than their
// contents, so trailing data is ignored.
func (obj *RarityInfoAccount) Unmarshal(data []byte) error {
	if len(data) < RarityInfoAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, rarityInfoAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Admin, &offset)
	getLabel(data, &obj.Collection, &offset)
	getLabel(data, &obj.Rarity, &offset)

	var length uint32
	getUint32(data, &length, &offset)
	if uint64(len(data)) < uint64(GetRarityInfoAccountSize(0))+uint64(length)*ed25519.PublicKeySize {
		return ErrInvalidAccountData
	}

	obj.MintList = make([]ed25519.PublicKey, length)
	for i := range obj.MintList {
		getKey(data, &obj.MintList[i], &offset)
	}

	return nil
}

// isZeroed reports whether the account data has never been written by the
// program.
func isZeroed(data []byte) bool {
	for _, b := range data[:8] {
		if b != 0 {
			return false
		}
	}
	return true
}
