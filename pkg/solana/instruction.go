package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	isPayer    bool
	isProgram  bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// compareAccountMeta orders accounts the way the runtime expects them in a
// message: the payer first, then signers before non-signers and writable
// before read-only within each group, with invoked programs last. Ties are
// broken by public key.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func compareAccountMeta(a, b AccountMeta) int {
	if a.isPayer != b.isPayer {
		return boolOrder(a.isPayer)
	}
	if a.isProgram != b.isProgram {
		return boolOrder(!a.isProgram)
	}
	if a.IsSigner != b.IsSigner {
		return boolOrder(a.IsSigner)
	}
	if a.IsWritable != b.IsWritable {
		return boolOrder(a.IsWritable)
	}
	return bytes.Compare(a.PublicKey, b.PublicKey)
}

// boolOrder sorts the side holding first before the other
func boolOrder(first bool) int {
	if first {
		return -1
	}
	return 1
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction represents an instruction that has been compiled into a transaction.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
