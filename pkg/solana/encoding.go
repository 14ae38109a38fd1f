package solana

import (
	"bytes"
	"crypto/ed25519"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// Transactions and messages use the legacy wire format, with compact-u16
// length prefixes.

func (t Transaction) Marshal() []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	_ = enc.WriteCompactU16(len(t.Signatures))
	for _, s := range t.Signatures {
		_ = enc.WriteBytes(s[:], false)
	}
	_ = enc.WriteBytes(t.Message.Marshal(), false)

	return buf.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	dec := bin.NewBinDecoder(b)

	sigLen, err := dec.ReadCompactU16()
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := range t.Signatures {
		raw, err := readN(dec, len(t.Signatures[i]))
		if err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
		copy(t.Signatures[i][:], raw)
	}

	return (&t.Message).Unmarshal(b[len(b)-dec.Remaining():])
}

func (m Message) Marshal() []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	_ = enc.WriteBytes([]byte{
		m.Header.NumSignatures,
		m.Header.NumReadonlySigned,
		m.Header.NumReadOnly,
	}, false)

	_ = enc.WriteCompactU16(len(m.Accounts))
	for _, a := range m.Accounts {
		_ = enc.WriteBytes(a, false)
	}

	_ = enc.WriteBytes(m.RecentBlockhash[:], false)

	_ = enc.WriteCompactU16(len(m.Instructions))
	for _, i := range m.Instructions {
		_ = enc.WriteBytes([]byte{i.ProgramIndex}, false)

		_ = enc.WriteCompactU16(len(i.Accounts))
		_ = enc.WriteBytes(i.Accounts, false)

		_ = enc.WriteCompactU16(len(i.Data))
		_ = enc.WriteBytes(i.Data, false)
	}

	return buf.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	dec := bin.NewBinDecoder(b)

	header, err := readN(dec, 3)
	if err != nil {
		return errors.Wrap(err, "failed to read message header")
	}
	m.Header.NumSignatures = header[0]
	m.Header.NumReadonlySigned = header[1]
	m.Header.NumReadOnly = header[2]

	accountLen, err := dec.ReadCompactU16()
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := range m.Accounts {
		raw, err := readN(dec, ed25519.PublicKeySize)
		if err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
		m.Accounts[i] = raw
	}

	blockhash, err := readN(dec, len(m.RecentBlockhash))
	if err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}
	copy(m.RecentBlockhash[:], blockhash)

	instructionLen, err := dec.ReadCompactU16()
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := range m.Instructions {
		var c CompiledInstruction

		programIndex, err := readN(dec, 1)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		c.ProgramIndex = programIndex[0]
		if int(c.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}

		accountLen, err := dec.ReadCompactU16()
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		if c.Accounts, err = readN(dec, accountLen); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}
		for _, index := range c.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		dataLen, err := dec.ReadCompactU16()
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		if c.Data, err = readN(dec, dataLen); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	return nil
}

// readN reads exactly n bytes into a new slice
func readN(dec *bin.Decoder, n int) ([]byte, error) {
	if n > dec.Remaining() {
		return nil, errors.Errorf("need %d bytes, %d remaining", n, dec.Remaining())
	}
	raw, err := dec.ReadNBytes(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), raw...), nil
}

// Decompile resolves a compiled instruction back into its program, accounts
// and data.
func (m Message) Decompile(index int) (Instruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return Instruction{}, errors.Errorf("instruction index out of range: %d", index)
	}

	c := m.Instructions[index]
	ix := Instruction{
		Program: m.Accounts[c.ProgramIndex],
		Data:    c.Data,
	}

	numAccounts := len(m.Accounts)
	numSigners := int(m.Header.NumSignatures)
	for _, i := range c.Accounts {
		pos := int(i)

		var isWritable bool
		if pos < numSigners {
			isWritable = pos < numSigners-int(m.Header.NumReadonlySigned)
		} else {
			isWritable = pos < numAccounts-int(m.Header.NumReadOnly)
		}

		ix.Accounts = append(ix.Accounts, AccountMeta{
			PublicKey:  m.Accounts[pos],
			IsSigner:   pos < numSigners,
			IsWritable: isWritable,
		})
	}

	return ix, nil
}
