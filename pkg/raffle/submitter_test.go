package raffle

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/config/memory"
	"github.com/code-payments/craffles/pkg/config/wrapper"
	"github.com/code-payments/craffles/pkg/solana"
	compute_budget "github.com/code-payments/craffles/pkg/solana/computebudget"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/system"
	"github.com/code-payments/craffles/pkg/solana/token"
	"github.com/code-payments/craffles/pkg/testutil"
)

func TestSubmitter_HappyPath(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()
	submitter := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{}))

	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]

	confirmation, err := submitter.Submit(ctx, []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}, payer)
	require.NoError(t, err)

	require.Len(t, sc.Simulated, 1)
	require.Len(t, sc.Submitted, 1)

	txn := sc.Submitted[0]
	assert.Equal(t, txn.Signature(), confirmation.Signature)
	assert.Equal(t, sc.Blockhash, txn.Message.RecentBlockhash)
	assert.Len(t, txn.Message.Instructions, 1)
	assert.EqualValues(t, 100, confirmation.Slot)
	require.NotNil(t, confirmation.Simulation)
	assert.EqualValues(t, 12345, confirmation.Simulation.UnitsConsumed)
}

func TestSubmitter_ComputeBudgetAndSkipSimulation(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()
	submitter := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{
		SkipSimulation:   true,
		ComputeUnitLimit: 300_000,
		ComputeUnitPrice: 5,
	}))

	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]

	confirmation, err := submitter.Submit(ctx, []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}, payer)
	require.NoError(t, err)
	assert.Nil(t, confirmation.Simulation)
	assert.Empty(t, sc.Simulated)

	require.Len(t, sc.Submitted, 1)
	txn := sc.Submitted[0]
	require.Len(t, txn.Message.Instructions, 3)

	limit, err := txn.Message.Decompile(0)
	require.NoError(t, err)
	assert.EqualValues(t, compute_budget.ProgramKey, limit.Program)
	units, err := compute_budget.ParseSetComputeUnitLimitIxnData(limit.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 300_000, units)

	price, err := txn.Message.Decompile(1)
	require.NoError(t, err)
	microLamports, err := compute_budget.ParseSetComputeUnitPriceIxnData(price.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 5, microLamports)
}

func TestSubmitter_SimulationFailure(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()
	submitter := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{}))

	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]

	sc.SimulationErr = customError(t, 1, uint32(craffles.RaffleErrorRaffleEnded))

	_, err := submitter.Submit(ctx, []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
		solana.NewInstruction(craffles.PROGRAM_ID, []byte{1}),
	}, payer)

	submissionErr := assertSubmissionError(t, err, SubmissionFailureValidation, StepSimulate)
	assert.Nil(t, submissionErr.Signature)
	assert.Equal(t, "RaffleEnded (6001): Raffle has ended", submissionErr.ProgramError)
	assert.Contains(t, err.Error(), "RaffleEnded")
	assert.Empty(t, sc.Submitted)
}

func TestSubmitter_SendFailures(t *testing.T) {
	ctx := context.Background()
	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]
	instructions := []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}

	sc := testutil.NewSolanaClient()
	sc.SubmitErr = solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	_, err := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, instructions, payer)
	submissionErr := assertSubmissionError(t, err, SubmissionFailureNetwork, StepSend)
	assert.NotNil(t, submissionErr.Signature)

	sc = testutil.NewSolanaClient()
	sc.SubmitErr = errors.New("connection refused")
	_, err = NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, instructions, payer)
	assertSubmissionError(t, err, SubmissionFailureNetwork, StepSend)

	sc = testutil.NewSolanaClient()
	sc.BlockhashErr = errors.New("service unavailable")
	_, err = NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, instructions, payer)
	assertSubmissionError(t, err, SubmissionFailureNetwork, StepGetBlockhash)
	assert.Empty(t, sc.Simulated)
}

func TestSubmitter_ExecutionFailure(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()
	sc.ExecutionErr = customError(t, 0, 1)

	payer := testutil.GenerateSolanaKeypair(t)
	keys := testutil.GenerateSolanaKeys(t, 2)

	_, err := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{SkipSimulation: true})).Submit(ctx, []solana.Instruction{
		token.Transfer(keys[0], keys[1], payer.Public().(ed25519.PublicKey), 10),
	}, payer)

	submissionErr := assertSubmissionError(t, err, SubmissionFailureValidation, StepConfirm)
	require.NotNil(t, submissionErr.Signature)
	assert.Equal(t, sc.Submitted[0].Signature(), *submissionErr.Signature)
	assert.Equal(t, "InsufficientFunds (1)", submissionErr.ProgramError)
}

func TestSubmitter_Unconfirmed(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()
	sc.ConfirmationStatus = "processed"

	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{ConfirmationPollLimit: 2})).Submit(ctx, []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}, payer)

	assertSubmissionError(t, err, SubmissionFailureNetwork, StepConfirm)
	assert.True(t, solana.IsConfirmationTimeout(err))
	assert.Len(t, sc.Submitted, 1)
}

func TestSubmitter_Cancellation(t *testing.T) {
	sc := testutil.NewSolanaClient()
	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}, payer)

	assertSubmissionError(t, err, SubmissionFailureNetwork, StepCheckContext)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, sc.Simulated)
	assert.Empty(t, sc.Submitted)
}

func TestSubmitter_MissingSigner(t *testing.T) {
	ctx := context.Background()
	sc := testutil.NewSolanaClient()

	payer := testutil.GenerateSolanaKeypair(t)
	keys := testutil.GenerateSolanaKeys(t, 2)

	// The new account must sign its own creation
	_, err := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, []solana.Instruction{
		system.CreateAccount(payer.Public().(ed25519.PublicKey), keys[0], keys[1], 1, 0),
	}, payer)

	assertSubmissionError(t, err, SubmissionFailureValidation, StepSign)
	assert.Empty(t, sc.Submitted)

	_, err = NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{})).Submit(ctx, nil, payer)
	assertSubmissionError(t, err, SubmissionFailureValidation, StepSign)
}

func customError(t *testing.T, index int, code uint32) *solana.TransactionError {
	txErr, err := solana.ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{
			json.Number(strconv.Itoa(index)),
			map[string]interface{}{
				"Custom": json.Number(strconv.FormatUint(uint64(code), 10)),
			},
		},
	})
	require.NoError(t, err)
	return txErr
}

func assertSubmissionError(t *testing.T, err error, kind SubmissionFailureKind, step Step) *SubmissionError {
	require.Error(t, err)

	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))
	assert.Equal(t, kind, submissionErr.Kind)
	assert.Equal(t, step, submissionErr.Step)
	assert.Equal(t, kind == SubmissionFailureNetwork, IsRetryable(err))
	return submissionErr
}

func TestSubmitter_InvalidInputs(t *testing.T) {
	ctx := context.Background()
	payer := testutil.GenerateSolanaKeypair(t)
	dest := testutil.GenerateSolanaKeys(t, 1)[0]
	instructions := []solana.Instruction{
		system.Transfer(payer.Public().(ed25519.PublicKey), dest, 1),
	}

	sc := testutil.NewSolanaClient()
	submitter := NewSubmitter(sc, WithOverriddenConfigs(&ConfigOverrides{}))

	_, err := submitter.Submit(ctx, instructions, nil)
	assertSubmissionError(t, err, SubmissionFailureValidation, StepSign)
	assert.True(t, errors.Is(err, ErrInvalidSigner))

	_, err = submitter.Submit(ctx, instructions, payer, payer[:32])
	assertSubmissionError(t, err, SubmissionFailureValidation, StepSign)
	assert.True(t, errors.Is(err, ErrInvalidSigner))

	// Compute unit limits are u32 on chain
	c := WithOverriddenConfigs(&ConfigOverrides{})()
	c.computeUnitLimit = wrapper.NewUint64Config(memory.NewConfig(uint64(math.MaxUint32)+1), defaultComputeUnitLimit)
	_, err = newSubmitter(sc, c).Submit(ctx, instructions, payer)
	var assemblyErr *AssemblyError
	require.True(t, errors.As(err, &assemblyErr))
	assert.Equal(t, StepAssemble, assemblyErr.Step)

	assert.Empty(t, sc.Simulated)
	assert.Empty(t, sc.Submitted)
}
