package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"sort"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

// ErrInvalidAccountKey is returned when a message references a key that is
// unset or not a 32 byte public key.
var ErrInvalidAccountKey = errors.New("invalid account key")

type (
	Signature [ed25519.SignatureSize]byte
	Blockhash [sha256.Size]byte
)

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid
// for by payer. Accounts referenced more than once are merged, keeping the
// widest permissions requested. Keys are not validated here; Sign rejects a
// transaction that references a malformed key.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true}}
	for _, ixn := range instructions {
		accounts = append(accounts, AccountMeta{PublicKey: ixn.Program, isProgram: true})
		accounts = append(accounts, ixn.Accounts...)
	}
	accounts = mergeAccounts(accounts)
	sort.SliceStable(accounts, func(i, j int) bool {
		return lessAccountMeta(accounts[i], accounts[j])
	})

	var m Message
	for _, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)

		switch {
		case account.IsSigner && !account.IsWritable:
			m.Header.NumSignatures++
			m.Header.NumReadonlySigned++
		case account.IsSigner:
			m.Header.NumSignatures++
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, ixn := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, ixn.Program)),
			Data:         ixn.Data,
		}
		for _, account := range ixn.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(m.Accounts, account.PublicKey)))
		}
		m.Instructions = append(m.Instructions, c)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	if err := t.Message.checkAccounts(); err != nil {
		return err
	}

	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// VerifySignatures checks every required signature against the message.
func (t *Transaction) VerifySignatures() error {
	if len(t.Signatures) == 0 || len(t.Signatures) != int(t.Message.Header.NumSignatures) {
		return TransactionErrorMissingSignatureForFee
	}
	if int(t.Message.Header.NumSignatures) > len(t.Message.Accounts) {
		return TransactionErrorSanitizeFailure
	}
	if t.Message.checkAccounts() != nil {
		return TransactionErrorSanitizeFailure
	}

	messageBytes := t.Message.Marshal()
	for i, s := range t.Signatures {
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, s[:]) {
			return TransactionErrorSignatureFailure
		}
	}

	return nil
}

func (m Message) checkAccounts() error {
	for i, key := range m.Accounts {
		if len(key) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrInvalidAccountKey, "account %d", i)
		}
	}
	return nil
}

// IsSigner reports whether the account at index is a required signer.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index may be written by the
// transaction, based on the legacy header layout.
func (m Message) IsWritable(index int) bool {
	numSigned := int(m.Header.NumSignatures)
	if index < numSigned {
		return index < numSigned-int(m.Header.NumReadonlySigned)
	}

	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// DecompileInstructions expands the compiled instructions back into
// instructions with resolved account metas.
func (m Message) DecompileInstructions() ([]Instruction, error) {
	instructions := make([]Instruction, len(m.Instructions))
	for i, c := range m.Instructions {
		if int(c.ProgramIndex) >= len(m.Accounts) {
			return nil, TransactionErrorInvalidAccountIndex
		}

		ixn := Instruction{
			Program:  m.Accounts[c.ProgramIndex],
			Data:     c.Data,
			Accounts: make([]AccountMeta, len(c.Accounts)),
		}
		for j, index := range c.Accounts {
			if int(index) >= len(m.Accounts) {
				return nil, TransactionErrorInvalidAccountIndex
			}

			ixn.Accounts[j] = AccountMeta{
				PublicKey:  m.Accounts[index],
				IsSigner:   m.IsSigner(int(index)),
				IsWritable: m.IsWritable(int(index)),
			}
		}

		instructions[i] = ixn
	}

	return instructions, nil
}

// mergeAccounts collapses repeated keys into their first occurrence.
func mergeAccounts(accounts []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(accounts))
	positions := make(map[string]int, len(accounts))
	for _, account := range accounts {
		if i, ok := positions[string(account.PublicKey)]; ok {
			merged[i].merge(account)
			continue
		}
		positions[string(account.PublicKey)] = len(merged)
		merged = append(merged, account)
	}
	return merged
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
