package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = solana.MustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// NativeMint is the mint of wrapped SOL.
//
// Current key: So11111111111111111111111111111111111111112
var NativeMint = solana.MustBase58Decode("So11111111111111111111111111111111111111112")

// IsNativeMint returns whether mint is the wrapped SOL mint.
func IsNativeMint(mint ed25519.PublicKey) bool {
	return bytes.Equal(mint, NativeMint)
}

type Command byte

const (
	// nolint:varcheck,deadcode,unused
	CommandInitializeMint Command = iota
	// nolint:varcheck,deadcode,unused
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	// nolint:varcheck,deadcode,unused
	CommandSetAuthority
	// nolint:varcheck,deadcode,unused
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	CommandCloseAccount
	// nolint:varcheck,deadcode,unused
	CommandFreezeAccount
	// nolint:varcheck,deadcode,unused
	CommandThawAccount
	// nolint:varcheck,deadcode,unused
	CommandTransfer2
	// nolint:varcheck,deadcode,unused
	CommandApprove2
	// nolint:varcheck,deadcode,unused
	CommandMintTo2
	// nolint:varcheck,deadcode,unused
	CommandBurn2
	// nolint:varcheck,deadcode,unused
	CommandInitializeAccount2
	CommandSyncNative

	CommandUnknown = Command(math.MaxUint8)
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
var errorNames = []string{
	"NotRentExempt",
	"InsufficientFunds",
	"InvalidMint",
	"MintMismatch",
	"OwnerMismatch",
	"FixedSupply",
	"AlreadyInUse",
	"InvalidNumberOfProvidedSigners",
	"InvalidNumberOfRequiredSigners",
	"UninitializedState",
	"NativeNotSupported",
	"NonNativeHasBalance",
	"InvalidInstruction",
	"InvalidState",
	"Overflow",
	"AuthorityTypeNotSupported",
	"MintCannotFreeze",
	"AccountFrozen",
	"MintDecimalsMismatch",
	"NonNativeNotSupported",
}

// ErrorName returns the token program's name for a custom error code.
func ErrorName(code uint32) (string, bool) {
	if int(code) >= len(errorNames) {
		return "", false
	}
	return errorNames[code], true
}

func GetCommand(m solana.Message, index int) (Command, error) {
	if index < 0 || index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The source account's owner/delegate.
	data := make([]byte, 1+8)
	data[0] = byte(CommandTransfer)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(source, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledTransfer struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := compiledTokenInstruction(m, index, CommandTransfer)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		Source:      m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Owner:       m.Accounts[i.Accounts[2]],
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

// SyncNative updates the token amount of a wrapped SOL account to match its
// lamport balance, minus the rent exempt reserve.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L392-L399
func SyncNative(account ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The native token account to sync with its underlying lamports.
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandSyncNative)},
		solana.NewAccountMeta(account, false),
	)
}

type DecompiledSyncNative struct {
	Account ed25519.PublicKey
}

func DecompileSyncNative(m solana.Message, index int) (*DecompiledSyncNative, error) {
	i, err := compiledTokenInstruction(m, index, CommandSyncNative)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 1 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 1 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledSyncNative{
		Account: m.Accounts[i.Accounts[0]],
	}, nil
}

func compiledTokenInstruction(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	actual, err := GetCommand(m, index)
	if err != nil {
		return solana.CompiledInstruction{}, err
	}
	if actual != command {
		return solana.CompiledInstruction{}, solana.ErrIncorrectInstruction
	}

	return m.Instructions[index], nil
}
