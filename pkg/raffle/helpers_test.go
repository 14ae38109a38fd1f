package raffle

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
	memory_receipt_store "github.com/code-payments/craffles/pkg/raffle/data/receipt/memory"
	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/token"
	"github.com/code-payments/craffles/pkg/testutil"
)

type testEnv struct {
	sc           *testutil.SolanaClient
	receipts     receipt.Store
	orchestrator *Orchestrator
	now          time.Time
}

func setup(t *testing.T, overrides *ConfigOverrides) *testEnv {
	if overrides == nil {
		overrides = &ConfigOverrides{}
	}

	env := &testEnv{
		sc:       testutil.NewSolanaClient(),
		receipts: memory_receipt_store.New(),
		now:      time.Unix(1_700_000_000, 0),
	}
	env.orchestrator = NewOrchestrator(
		env.sc,
		WithOverriddenConfigs(overrides),
		WithReceiptStore(env.receipts),
		WithClock(func() time.Time { return env.now }),
	)
	return env
}

// setupRaffle puts a raffle and its proceeds account on chain for tree
func (e *testEnv) setupRaffle(t *testing.T, tree, mint ed25519.PublicKey, endTimestamp int64, ticketPrice uint64) *RaffleAddresses {
	addresses, err := DeriveRaffleAddresses(tree)
	require.NoError(t, err)

	raffle := &craffles.RaffleAccount{
		Creator:      testutil.GenerateSolanaKeys(t, 1)[0],
		EndTimestamp: endTimestamp,
		TicketPrice:  ticketPrice,
		MerkleTree:   tree,
	}
	e.sc.SetAccount(addresses.Raffle, solana.AccountInfo{
		Data:  raffle.Marshal(),
		Owner: craffles.PROGRAM_ID,
	})

	e.setTokenAccount(addresses.Proceeds, addresses.Raffle, mint, 0)

	return addresses
}

func (e *testEnv) setTokenAccount(address, owner, mint ed25519.PublicKey, amount uint64) {
	account := &token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	e.sc.SetAccount(address, solana.AccountInfo{
		Data:  account.Marshal(),
		Owner: token.ProgramKey,
	})
}

func (e *testEnv) setTreeConfig(treeAuthority, creator ed25519.PublicKey, capacity, minted uint64) {
	data := make([]byte, bubblegum.TreeConfigAccountSize)
	copy(data, bubblegum.TreeConfigAccountDiscriminator)
	copy(data[8:], creator)
	copy(data[40:], creator)
	binary.LittleEndian.PutUint64(data[72:], capacity)
	binary.LittleEndian.PutUint64(data[80:], minted)

	e.sc.SetAccount(treeAuthority, solana.AccountInfo{
		Data:  data,
		Owner: bubblegum.PROGRAM_ID,
	})
}

func (e *testEnv) submittedInstructions(t *testing.T, index int) []solana.Instruction {
	require.True(t, index < len(e.sc.Submitted))

	txn := e.sc.Submitted[index]
	instructions := make([]solana.Instruction, len(txn.Message.Instructions))
	for i := range txn.Message.Instructions {
		ix, err := txn.Message.Decompile(i)
		require.NoError(t, err)
		instructions[i] = ix
	}
	return instructions
}

func validMetadata(creators ...bubblegum.Creator) *bubblegum.MetadataArgs {
	editionNonce := uint8(0)
	tokenStandard := bubblegum.TokenStandardNonFungible
	return &bubblegum.MetadataArgs{
		Name:                "Ticket",
		Symbol:              "TIX",
		Uri:                 "https://example.com/ticket.json",
		PrimarySaleHappened: true,
		IsMutable:           true,
		EditionNonce:        &editionNonce,
		TokenStandard:       &tokenStandard,
		TokenProgramVersion: bubblegum.TokenProgramVersionOriginal,
		Creators:            creators,
	}
}
