package nftrarity

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("NFTRnyHzbhLx7XWc9PBKJyP68zFsjwNbUtmYTHc1ow3")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
