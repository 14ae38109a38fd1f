package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/solana"
)

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := Transfer(keys[0], keys[1], keys[2], 123456789)

	assert.Equal(t, ProgramKey, instruction.Program)
	require.Len(t, instruction.Data, 9)
	assert.EqualValues(t, CommandTransfer, instruction.Data[0])
	assert.EqualValues(t, 123456789, binary.LittleEndian.Uint64(instruction.Data[1:]))

	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[2].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)

	decompiled, err := DecompileTransfer(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 123456789, decompiled.Amount)

	_, err = DecompileSyncNative(solana.NewTransaction(keys[2], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestSyncNative(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := SyncNative(keys[1])

	assert.Equal(t, ProgramKey, instruction.Program)
	assert.Equal(t, []byte{17}, instruction.Data)
	require.Len(t, instruction.Accounts, 1)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)

	tx := solana.NewTransaction(keys[0], instruction)

	command, err := GetCommand(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandSyncNative, command)

	decompiled, err := DecompileSyncNative(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[1], decompiled.Account)

	_, err = DecompileTransfer(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	_, err = DecompileSyncNative(tx.Message, 1)
	assert.Error(t, err)
}

func TestGetCommand_WrongProgram(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := solana.NewInstruction(keys[1], []byte{byte(CommandTransfer)})
	_, err := GetCommand(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestNativeMint(t *testing.T) {
	assert.True(t, IsNativeMint(NativeMint))
	assert.False(t, IsNativeMint(generateKeys(t, 1)[0]))
}

func TestErrorName(t *testing.T) {
	name, ok := ErrorName(1)
	require.True(t, ok)
	assert.Equal(t, "InsufficientFunds", name)

	name, ok = ErrorName(19)
	require.True(t, ok)
	assert.Equal(t, "NonNativeNotSupported", name)

	_, ok = ErrorName(6000)
	assert.False(t, ok)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}
