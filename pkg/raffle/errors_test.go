package raffle

import (
	"context"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/system"
	"github.com/code-payments/craffles/pkg/solana/token"
	"github.com/code-payments/craffles/pkg/testutil"
)

func TestIsRetryable(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"cancelled", context.Canceled, false},
		{"derivation", &DerivationError{Step: StepDeriveAddresses, Err: errors.New("no bump")}, false},
		{"query", &InspectionError{Kind: InspectionFailureQuery, Step: StepLookupAccount, Err: errors.New("timeout")}, true},
		{"invalid data", &InspectionError{Kind: InspectionFailureInvalidData, Step: StepDecodeAccount, Err: errors.New("bad")}, false},
		{"assembly", &AssemblyError{Step: StepAssemble, Err: ErrRaffleEnded}, false},
		{"validation", &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSimulate, Err: errors.New("rejected")}, false},
		{"network", &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepSend, Err: errors.New("unavailable")}, true},
		{"wrapped network", errors.Wrap(&SubmissionError{Kind: SubmissionFailureNetwork, Step: StepConfirm, Err: errors.New("timeout")}, "buy"), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsRetryable(tc.err))
		})
	}
}

func TestErrorStrings(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)

	err := &AssemblyError{Step: StepAssemble, Err: ErrInvalidTicketCount}
	assert.Equal(t, "assemble: invalid input: invalid ticket count", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidTicketCount))

	err = &AssemblyError{Step: StepAssemble, Address: keys[0], Err: ErrRaffleEnded}
	assert.Contains(t, err.Error(), base58.Encode(keys[0]))

	inspectionErr := &InspectionError{Kind: InspectionFailureInvalidData, Step: StepDecodeAccount, Address: keys[0], Err: ErrAccountNotFound}
	assert.Contains(t, inspectionErr.Error(), "decode_account: invalid_data failure")
	assert.True(t, errors.Is(inspectionErr, ErrAccountNotFound))

	var sig solana.Signature
	sig[0] = 1
	submissionErr := &SubmissionError{
		Kind:         SubmissionFailureValidation,
		Step:         StepSend,
		Signature:    &sig,
		ProgramError: "RaffleEnded (6001): Raffle has ended",
		Err:          errors.New("transaction failed"),
	}
	assert.Equal(
		t,
		"send: validation failure (signature "+sig.String()+"): RaffleEnded (6001): Raffle has ended: transaction failed",
		submissionErr.Error(),
	)
}

func TestProgramErrorName(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instructions := []solana.Instruction{
		system.Transfer(keys[0], keys[1], 1),
		token.SyncNative(keys[1]),
		{Program: craffles.PROGRAM_ID},
	}

	assert.Empty(t, programErrorName(nil, instructions))
	assert.Empty(t, programErrorName(solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound), instructions))

	assert.Equal(t, "custom program error 7", programErrorName(customError(t, 0, 7), instructions))
	assert.Equal(t, "InsufficientFunds (1)", programErrorName(customError(t, 1, 1), instructions))
	assert.Equal(t, "custom program error 999", programErrorName(customError(t, 1, 999), instructions))
	assert.Equal(t, craffles.RaffleErrorRaffleEnded.Error(), programErrorName(customError(t, 2, uint32(craffles.RaffleErrorRaffleEnded)), instructions))
	assert.Empty(t, programErrorName(customError(t, 3, 1), instructions))
}
