// Package shortvec implements the compact-u16 length prefix used by the
// ledger wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedSize = 3

var (
	ErrLenTooLarge    = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrInvalidEncoded = errors.Errorf("invalid encoding (max %d bytes)", maxEncodedSize)
)

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, ErrLenTooLarge is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, ErrLenTooLarge
	}

	buf := make([]byte, 0, maxEncodedSize)
	for {
		b := byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			buf = append(buf, b)
			break
		}
		buf = append(buf, b|0x80)
	}

	return w.Write(buf)
}

// DecodeLen decodes a shortvec encoded len from the reader.
func DecodeLen(r io.Reader) (val int, err error) {
	valBuf := make([]byte, 1)

	for offset := 0; offset < maxEncodedSize; offset++ {
		if _, err := io.ReadFull(r, valBuf); err != nil {
			return 0, err
		}

		val |= int(valBuf[0]&0x7f) << (offset * 7)
		if valBuf[0]&0x80 == 0 {
			return val, nil
		}
	}

	return 0, ErrInvalidEncoded
}
