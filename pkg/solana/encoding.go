package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking/pkg/solana/shortvec"
)

// Marshal encodes the transaction in the legacy wire format: a compact array
// of signatures followed by the message.
func (t Transaction) Marshal() []byte {
	var b bytes.Buffer

	_, _ = shortvec.EncodeLen(&b, len(t.Signatures))
	for _, s := range t.Signatures {
		b.Write(s[:])
	}
	b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	d := &decoder{buf: bytes.NewBuffer(b)}

	n := d.length("signatures")
	t.Signatures = make([]Signature, n)
	for i := range t.Signatures {
		d.read(t.Signatures[i][:], "signature")
	}
	if d.err != nil {
		return d.err
	}

	return t.Message.Unmarshal(d.buf.Bytes())
}

// Marshal encodes the message bytes that signers sign over.
func (m Message) Marshal() []byte {
	var b bytes.Buffer

	b.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	_, _ = shortvec.EncodeLen(&b, len(m.Accounts))
	for _, a := range m.Accounts {
		b.Write(a)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(&b, len(m.Instructions))
	for _, ixn := range m.Instructions {
		b.WriteByte(ixn.ProgramIndex)
		writeCompact(&b, ixn.Accounts)
		writeCompact(&b, ixn.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}

	// Versioned messages set the high bit of the first byte
	if b[0] > 127 {
		return TransactionErrorUnsupportedVersion
	}

	d := &decoder{buf: bytes.NewBuffer(b)}

	var header [3]byte
	d.read(header[:], "header")
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	m.Accounts = make([]ed25519.PublicKey, d.length("accounts"))
	for i := range m.Accounts {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		d.read(m.Accounts[i], "account")
	}

	d.read(m.RecentBlockhash[:], "recent blockhash")

	m.Instructions = make([]CompiledInstruction, d.length("instructions"))
	for i := range m.Instructions {
		var index [1]byte
		d.read(index[:], "program index")

		c := CompiledInstruction{
			ProgramIndex: index[0],
			Accounts:     d.compact("instruction accounts"),
			Data:         d.compact("instruction data"),
		}
		if d.err != nil {
			return errors.Wrapf(d.err, "invalid instruction %d", i)
		}

		if int(c.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}
		for _, index := range c.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		m.Instructions[i] = c
	}

	return d.err
}

func writeCompact(b *bytes.Buffer, v []byte) {
	_, _ = shortvec.EncodeLen(b, len(v))
	b.Write(v)
}

// decoder reads wire fields, keeping the first error so that callers can
// check once after a run of reads.
type decoder struct {
	buf *bytes.Buffer
	err error
}

func (d *decoder) read(dst []byte, field string) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d.buf, dst); err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", field)
	}
}

func (d *decoder) length(field string) int {
	if d.err != nil {
		return 0
	}
	n, err := shortvec.DecodeLen(d.buf)
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s length", field)
		return 0
	}
	return n
}

func (d *decoder) compact(field string) []byte {
	v := make([]byte, d.length(field))
	d.read(v, field)
	return v
}
