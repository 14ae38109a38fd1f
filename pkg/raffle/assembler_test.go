package raffle

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/accountcompression"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/system"
	"github.com/code-payments/craffles/pkg/solana/token"
	"github.com/code-payments/craffles/pkg/testutil"
)

func TestTreeDescriptor(t *testing.T) {
	descriptor := TreeDescriptor{MaxDepth: 14, MaxBufferSize: 64}
	require.NoError(t, descriptor.Validate())

	size, err := descriptor.AccountSize()
	require.NoError(t, err)
	assert.EqualValues(t, 31800, size)
	assert.EqualValues(t, 16384, descriptor.Capacity())

	_, err = TreeDescriptor{MaxDepth: 14, MaxBufferSize: 65}.AccountSize()
	assert.True(t, errors.Is(err, ErrInvalidDepthSizePair))

	_, err = TreeDescriptor{MaxDepth: 14, MaxBufferSize: 64, CanopyDepth: 14}.AccountSize()
	assert.True(t, errors.Is(err, ErrInvalidDepthSizePair))

	var prev uint64
	for _, pair := range []TreeDescriptor{
		{MaxDepth: 14, MaxBufferSize: 64},
		{MaxDepth: 14, MaxBufferSize: 256},
		{MaxDepth: 20, MaxBufferSize: 256},
		{MaxDepth: 24, MaxBufferSize: 256},
	} {
		size, err := pair.AccountSize()
		require.NoError(t, err)
		assert.True(t, size > prev)
		prev = size
	}
}

func TestAssembleCreateTree(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	addresses, err := DeriveRaffleAddresses(keys[0])
	require.NoError(t, err)

	instructions, err := AssembleCreateTree(&CreateTreeState{
		Payer:        keys[1],
		TreeCreator:  keys[1],
		Addresses:    addresses,
		Descriptor:   TreeDescriptor{MaxDepth: 14, MaxBufferSize: 64},
		RentLamports: 1234,
	})
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	assert.EqualValues(t, system.ProgramKey[:], instructions[0].Program)
	assert.EqualValues(t, 1234, binary.LittleEndian.Uint64(instructions[0].Data[4:]))
	assert.EqualValues(t, 31800, binary.LittleEndian.Uint64(instructions[0].Data[12:]))
	assert.EqualValues(t, accountcompression.PROGRAM_ID, instructions[0].Data[20:52])
	assert.EqualValues(t, addresses.Tree, instructions[0].Accounts[1].PublicKey)
	assert.True(t, instructions[0].Accounts[1].IsSigner)

	assert.EqualValues(t, bubblegum.PROGRAM_ID, instructions[1].Program)
	args, err := bubblegum.ParseCreateTreeInstructionArgs(instructions[1].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 14, args.MaxDepth)
	assert.EqualValues(t, 64, args.MaxBufferSize)
	require.NotNil(t, args.Public)
	assert.False(t, *args.Public)

	_, err = AssembleCreateTree(&CreateTreeState{
		Payer:      keys[1],
		Addresses:  addresses,
		Descriptor: TreeDescriptor{MaxDepth: 15, MaxBufferSize: 128},
	})
	var assemblyErr *AssemblyError
	require.True(t, errors.As(err, &assemblyErr))
	assert.True(t, errors.Is(err, ErrInvalidDepthSizePair))
}

func TestAssembleCreateRaffle(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	addresses, err := DeriveRaffleAddresses(keys[0])
	require.NoError(t, err)

	descriptor := TreeDescriptor{MaxDepth: 14, MaxBufferSize: 64}
	state := &CreateRaffleState{
		Creator:      keys[1],
		Addresses:    addresses,
		ProceedsMint: keys[2],
		Descriptor:   descriptor,
		EndTimestamp: 1_700_000_000,
		TicketPrice:  1_000_000,
		RentLamports: 5678,
	}

	// Tree account is allocated alongside the raffle
	instructions, err := AssembleCreateRaffle(state)
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	assert.EqualValues(t, system.ProgramKey[:], instructions[0].Program)
	assert.EqualValues(t, 31800, binary.LittleEndian.Uint64(instructions[0].Data[12:]))
	assert.EqualValues(t, craffles.PROGRAM_ID, instructions[1].Program)

	args, err := craffles.ParseCreateRaffleInstructionArgs(instructions[1].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_700_000_000, args.EndTimestamp)
	assert.EqualValues(t, 1_000_000, args.TicketPrice)
	assert.EqualValues(t, 14, args.MaxDepth)
	assert.EqualValues(t, 64, args.MaxBufferSize)

	assert.EqualValues(t, addresses.Raffle, instructions[1].Accounts[0].PublicKey)
	assert.EqualValues(t, addresses.Proceeds, instructions[1].Accounts[1].PublicKey)
	assert.EqualValues(t, keys[2], instructions[1].Accounts[2].PublicKey)
	assert.EqualValues(t, addresses.Tree, instructions[1].Accounts[3].PublicKey)
	assert.EqualValues(t, addresses.TreeAuthority, instructions[1].Accounts[4].PublicKey)

	// Pre-allocated and zeroed tree account is used as is
	state.TreeAccount = &solana.AccountInfo{
		Data:  make([]byte, 31800),
		Owner: accountcompression.PROGRAM_ID,
	}
	instructions, err = AssembleCreateRaffle(state)
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.EqualValues(t, craffles.PROGRAM_ID, instructions[0].Program)

	for _, invalid := range []*solana.AccountInfo{
		{Data: make([]byte, 31800), Owner: keys[1]},
		{Data: make([]byte, 31799), Owner: accountcompression.PROGRAM_ID},
		{Data: append(make([]byte, 31799), 1), Owner: accountcompression.PROGRAM_ID},
	} {
		state.TreeAccount = invalid
		_, err = AssembleCreateRaffle(state)

		var assemblyErr *AssemblyError
		require.True(t, errors.As(err, &assemblyErr))
		assert.True(t, errors.Is(err, ErrTreeAlreadyInitialized))
		assert.EqualValues(t, addresses.Tree, assemblyErr.Address)
	}
}

func TestAssembleBuyTickets_Sequences(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	tree, buyer, usdcMint := keys[0], keys[1], keys[2]

	addresses, err := DeriveRaffleAddresses(tree)
	require.NoError(t, err)

	raffle := &craffles.RaffleAccount{
		Creator:      keys[2],
		EndTimestamp: 1_700_000_000,
		TicketPrice:  250_000,
		MerkleTree:   tree,
	}

	nativeAta, err := DeriveBuyerTokenAccount(buyer, token.NativeMint)
	require.NoError(t, err)
	usdcAta, err := DeriveBuyerTokenAccount(buyer, usdcMint)
	require.NoError(t, err)

	for _, tc := range []struct {
		mint     []byte
		ata      []byte
		exists   bool
		expected int
	}{
		{token.NativeMint, nativeAta, false, 4},
		{token.NativeMint, nativeAta, true, 3},
		{usdcMint, usdcAta, false, 1},
		{usdcMint, usdcAta, true, 1},
	} {
		instructions, err := AssembleBuyTickets(&BuyTicketsState{
			Buyer:                   buyer,
			Addresses:               addresses,
			Raffle:                  raffle,
			ProceedsMint:            tc.mint,
			BuyerTokenAccount:       tc.ata,
			BuyerTokenAccountExists: tc.exists,
			TicketCount:             4,
			WrapScalingFactor:       1,
			Metadata:                validMetadata(),
		})
		require.NoError(t, err)
		require.Len(t, instructions, tc.expected)

		buyTickets := instructions[len(instructions)-1]
		assert.EqualValues(t, craffles.PROGRAM_ID, buyTickets.Program)
		assert.EqualValues(t, addresses.Raffle, buyTickets.Accounts[0].PublicKey)
		assert.EqualValues(t, addresses.Proceeds, buyTickets.Accounts[1].PublicKey)
		assert.EqualValues(t, addresses.TreeAuthority, buyTickets.Accounts[2].PublicKey)
		assert.EqualValues(t, tc.ata, buyTickets.Accounts[6].PublicKey)

		args, err := craffles.ParseBuyTicketsInstructionArgs(buyTickets.Data)
		require.NoError(t, err)
		assert.EqualValues(t, 4, args.Amount)

		if tc.expected == 1 {
			continue
		}

		offset := 0
		if tc.expected == 4 {
			assert.EqualValues(t, token.AssociatedTokenAccountProgramKey, instructions[0].Program)
			offset = 1
		}

		transfer := instructions[offset]
		assert.EqualValues(t, system.ProgramKey[:], transfer.Program)
		assert.EqualValues(t, buyer, transfer.Accounts[0].PublicKey)
		assert.EqualValues(t, nativeAta, transfer.Accounts[1].PublicKey)
		assert.EqualValues(t, 1_000_000, binary.LittleEndian.Uint64(transfer.Data[4:]))

		syncNative := instructions[offset+1]
		assert.EqualValues(t, token.ProgramKey, syncNative.Program)
		assert.Equal(t, []byte{17}, syncNative.Data)
		assert.EqualValues(t, nativeAta, syncNative.Accounts[0].PublicKey)
	}
}

func TestAssembleBuyTickets_Validation(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	tree, buyer, other := keys[0], keys[1], keys[2]

	addresses, err := DeriveRaffleAddresses(tree)
	require.NoError(t, err)
	ata, err := DeriveBuyerTokenAccount(buyer, token.NativeMint)
	require.NoError(t, err)

	newState := func() *BuyTicketsState {
		return &BuyTicketsState{
			Buyer:     buyer,
			Addresses: addresses,
			Raffle: &craffles.RaffleAccount{
				TicketPrice: 1000,
				MerkleTree:  tree,
			},
			ProceedsMint:      token.NativeMint,
			BuyerTokenAccount: ata,
			TicketCount:       1,
			WrapScalingFactor: 1,
			Metadata:          validMetadata(bubblegum.Creator{Address: buyer, Share: 100}),
		}
	}

	_, err = AssembleBuyTickets(newState())
	require.NoError(t, err)

	state := newState()
	state.TicketCount = 0
	_, err = AssembleBuyTickets(state)
	assertAssemblyError(t, err, ErrInvalidTicketCount)

	state = newState()
	state.TicketCount = math.MaxUint16 + 1
	_, err = AssembleBuyTickets(state)
	assertAssemblyError(t, err, ErrInvalidTicketCount)

	state = newState()
	state.Metadata = validMetadata(bubblegum.Creator{Address: buyer, Share: 90})
	_, err = AssembleBuyTickets(state)
	assertAssemblyError(t, err, bubblegum.ErrInvalidCreatorShares)

	state = newState()
	state.Metadata = validMetadata(
		bubblegum.Creator{Address: buyer, Share: 60},
		bubblegum.Creator{Address: other, Share: 40},
	)
	_, err = AssembleBuyTickets(state)
	require.NoError(t, err)

	state = newState()
	state.Raffle.TicketPrice = math.MaxUint64
	state.TicketCount = 2
	_, err = AssembleBuyTickets(state)
	assertAssemblyError(t, err, ErrAmountOverflow)

	state = newState()
	state.BuyerTokenAccount = other
	_, err = AssembleBuyTickets(state)
	var assemblyErr *AssemblyError
	assert.True(t, errors.As(err, &assemblyErr))
}

func TestWrapLamports(t *testing.T) {
	lamports, err := WrapLamports(250_000, 4, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, lamports)

	lamports, err = WrapLamports(1, 3, 1_000_000_000)
	require.NoError(t, err)
	assert.EqualValues(t, 3_000_000_000, lamports)

	_, err = WrapLamports(math.MaxUint64/2+1, 2, 1)
	assert.True(t, errors.Is(err, ErrAmountOverflow))

	_, err = WrapLamports(math.MaxUint64/4, 2, 3)
	assert.True(t, errors.Is(err, ErrAmountOverflow))

	_, err = WrapLamports(1, 1, 0)
	assert.Error(t, err)
}

func assertAssemblyError(t *testing.T, err error, target error) {
	require.Error(t, err)

	var assemblyErr *AssemblyError
	require.True(t, errors.As(err, &assemblyErr))
	assert.True(t, errors.Is(err, target))
	assert.False(t, IsRetryable(err))
}
