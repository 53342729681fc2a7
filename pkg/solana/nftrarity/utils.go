package nftrarity

import (
	"crypto/ed25519"
	"encoding/binary"
)

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += 8
}
func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}

func putKey(dst []byte, v ed25519.PublicKey, offset *int) {
	copy(dst[*offset:], v)
	*offset += ed25519.PublicKeySize
}
func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putLabel(dst []byte, v [LabelSize]byte, offset *int) {
	copy(dst[*offset:], v[:])
	*offset += LabelSize
}
func getLabel(src []byte, dst *[LabelSize]byte, offset *int) {
	copy(dst[:], src[*offset:])
	*offset += LabelSize
}

func putUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}
func getUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
}

func putUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}
func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func putString(dst []byte, v string, offset *int) {
	putUint32(dst, uint32(len(v)), offset)
	copy(dst[*offset:], v)
	*offset += len(v)
}

// getString reads a length prefixed string, reporting false if src is too
// short to hold it.
func getString(src []byte, dst *string, offset *int) bool {
	if len(src) < *offset+4 {
		return false
	}

	var length uint32
	getUint32(src, &length, offset)
	if uint64(len(src)) < uint64(*offset)+uint64(length) {
		return false
	}

	*dst = string(src[*offset : *offset+int(length)])
	*offset += int(length)
	return true
}
