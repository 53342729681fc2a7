package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

type expectedMeta struct {
	key      ed25519.PublicKey
	signer   bool
	writable bool
}

func assertLayout(t *testing.T, instruction solana.Instruction, data []byte, metas ...expectedMeta) {
	assert.EqualValues(t, ProgramKey, instruction.Program)
	assert.Equal(t, data, instruction.Data)

	require.Len(t, instruction.Accounts, len(metas))
	for i, expected := range metas {
		assert.EqualValues(t, expected.key, instruction.Accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, expected.signer, instruction.Accounts[i].IsSigner, "account %d", i)
		assert.Equal(t, expected.writable, instruction.Accounts[i].IsWritable, "account %d", i)
	}
}

func amountData(command Command, amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = byte(command)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func TestInitializeMint(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := InitializeMint(keys[0], keys[1], nil, 0)
	require.Len(t, instruction.Data, 67)
	assert.EqualValues(t, CommandInitializeMint, instruction.Data[0])
	assert.EqualValues(t, 0, instruction.Data[1])
	assert.EqualValues(t, keys[1], instruction.Data[2:34])
	assert.EqualValues(t, 0, instruction.Data[34])
	assertLayout(t, instruction, instruction.Data,
		expectedMeta{key: keys[0], writable: true},
		expectedMeta{key: system.RentSysVar},
	)

	// Asset mints carry no decimals and an optional freeze authority
	instruction = InitializeMint(keys[0], keys[1], keys[2], 6)
	assert.EqualValues(t, 6, instruction.Data[1])
	assert.EqualValues(t, 1, instruction.Data[34])
	assert.EqualValues(t, keys[2], instruction.Data[35:])
}

func TestInitializeAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	assertLayout(t, InitializeAccount(keys[0], keys[1], keys[2]), []byte{byte(CommandInitializeAccount)},
		expectedMeta{key: keys[0], writable: true},
		expectedMeta{key: keys[1]},
		expectedMeta{key: keys[2]},
		expectedMeta{key: system.RentSysVar},
	)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 3)

	assertLayout(t, Transfer(keys[0], keys[1], keys[2], 123456789), amountData(CommandTransfer, 123456789),
		expectedMeta{key: keys[0], writable: true},
		expectedMeta{key: keys[1], writable: true},
		expectedMeta{key: keys[2], signer: true},
	)
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	assertLayout(t, MintTo(keys[0], keys[1], keys[2], 1), amountData(CommandMintTo, 1),
		expectedMeta{key: keys[0], writable: true},
		expectedMeta{key: keys[1], writable: true},
		expectedMeta{key: keys[2], signer: true},
	)
}

func TestCloseAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	assertLayout(t, CloseAccount(keys[0], keys[1], keys[2]), []byte{byte(CommandCloseAccount)},
		expectedMeta{key: keys[0], writable: true},
		expectedMeta{key: keys[1], writable: true},
		expectedMeta{key: keys[2], signer: true},
	)
}

func TestError(t *testing.T) {
	assert.Equal(t, "Insufficient funds", ErrorInsufficientFunds.Error())
	assert.EqualValues(t, 1, ErrorInsufficientFunds.Code())
	assert.Equal(t, "token error: 200", Error(200).Error())
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
