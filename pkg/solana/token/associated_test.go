package token

import (
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/system"
)

func TestGetAssociatedAccount(t *testing.T) {
	for _, tc := range []struct {
		wallet, mint, expected string
	}{
		{
			wallet:   "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			mint:     "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
			expected: "H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ",
		},
	} {
		wallet, err := base58.Decode(tc.wallet)
		require.NoError(t, err)
		mint, err := base58.Decode(tc.mint)
		require.NoError(t, err)

		actual, bump, err := GetAssociatedAccountAndBump(wallet, mint)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(actual))

		rederived, err := solana.CreateProgramAddress(AssociatedTokenAccountProgramKey, wallet, ProgramKey, mint, []byte{bump})
		require.NoError(t, err)
		assert.EqualValues(t, actual, rederived)
	}
}

func TestCreateAssociatedAccount(t *testing.T) {
	keys := generateKeys(t, 2)

	expectedAddr, err := GetAssociatedAccount(keys[1], NativeMint)
	require.NoError(t, err)

	ixn, addr, err := CreateAssociatedTokenAccount(keys[0], keys[1], NativeMint)
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)

	assert.EqualValues(t, AssociatedTokenAccountProgramKey, ixn.Program)
	assert.Equal(t, []byte{commandCreate}, ixn.Data)
	require.Len(t, ixn.Accounts, createAssociatedAccountCount)
	assert.True(t, ixn.Accounts[0].IsSigner)
	assert.True(t, ixn.Accounts[0].IsWritable)
	assert.False(t, ixn.Accounts[1].IsSigner)
	assert.True(t, ixn.Accounts[1].IsWritable)
	for _, meta := range ixn.Accounts[2:] {
		assert.False(t, meta.IsSigner)
		assert.False(t, meta.IsWritable)
	}

	m := solana.NewTransaction(keys[0], ixn).Message

	decompiled, err := DecompileCreateAssociatedAccount(m, 0)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Subsidizer)
	assert.EqualValues(t, addr, decompiled.Address)
	assert.EqualValues(t, keys[1], decompiled.Owner)
	assert.EqualValues(t, NativeMint, decompiled.Mint)

	_, err = DecompileCreateAssociatedAccount(m, 1)
	assert.Error(t, err)

	transfer := system.Transfer(keys[0], keys[1], 1)
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], transfer).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	ixn.Data = []byte{5}
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], ixn).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}
