package raffle

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/token"
)

var (
	// ErrInvalidTicketCount indicates a purchase of zero tickets, or more than
	// a single instruction can carry
	ErrInvalidTicketCount = errors.New("invalid ticket count")

	// ErrRaffleEnded indicates the raffle end timestamp has passed
	ErrRaffleEnded = errors.New("raffle has ended")

	// ErrRaffleNotFound indicates there is no raffle for the tree
	ErrRaffleNotFound = errors.New("raffle not found")

	// ErrTreeAlreadyInitialized indicates the tree account exists but cannot
	// be handed to create_raffle
	ErrTreeAlreadyInitialized = errors.New("tree account already initialized")

	// ErrInvalidDepthSizePair indicates a tree descriptor the account
	// compression program rejects
	ErrInvalidDepthSizePair = errors.New("invalid tree depth and buffer size")

	// ErrAmountOverflow indicates the wrap amount does not fit in 64 bits
	ErrAmountOverflow = errors.New("amount overflows u64")

	// ErrInvalidSigner indicates a required signing key is missing or malformed
	ErrInvalidSigner = errors.New("invalid signer key")

	// ErrAccountNotFound indicates a typed read targeted an empty address
	ErrAccountNotFound = errors.New("account not found")
)

type Step string

const (
	StepDeriveAddresses Step = "derive_addresses"
	StepLookupAccount   Step = "lookup_account"
	StepDecodeAccount   Step = "decode_account"
	StepListAccounts    Step = "list_accounts"
	StepGetRent         Step = "get_rent"
	StepAssemble        Step = "assemble"
	StepCheckContext    Step = "check_context"
	StepGetBlockhash    Step = "get_blockhash"
	StepSign            Step = "sign"
	StepSimulate        Step = "simulate"
	StepSend            Step = "send"
	StepConfirm         Step = "confirm"
)

// DerivationError indicates no program derived address could be found for
// the given seeds.
type DerivationError struct {
	Step    Step
	Program ed25519.PublicKey
	Err     error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("%s: derivation under %s failed: %v", e.Step, base58.Encode(e.Program), e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

type InspectionFailureKind uint8

const (
	InspectionFailureQuery InspectionFailureKind = iota
	InspectionFailureInvalidData
)

func (k InspectionFailureKind) String() string {
	switch k {
	case InspectionFailureQuery:
		return "query"
	case InspectionFailureInvalidData:
		return "invalid_data"
	default:
		return "unknown"
	}
}

// InspectionError indicates on-chain state could not be read, or was read
// but could not be decoded.
type InspectionError struct {
	Kind    InspectionFailureKind
	Step    Step
	Address ed25519.PublicKey
	Err     error
}

func (e *InspectionError) Error() string {
	return fmt.Sprintf("%s: %s failure at %s: %v", e.Step, e.Kind, base58.Encode(e.Address), e.Err)
}

func (e *InspectionError) Unwrap() error {
	return e.Err
}

// AssemblyError indicates the inputs cannot produce a valid instruction
// sequence. Nothing was sent.
type AssemblyError struct {
	Step    Step
	Address ed25519.PublicKey
	Err     error
}

func (e *AssemblyError) Error() string {
	if len(e.Address) > 0 {
		return fmt.Sprintf("%s: invalid input for %s: %v", e.Step, base58.Encode(e.Address), e.Err)
	}
	return fmt.Sprintf("%s: invalid input: %v", e.Step, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

type SubmissionFailureKind uint8

const (
	SubmissionFailureValidation SubmissionFailureKind = iota
	SubmissionFailureNetwork
)

func (k SubmissionFailureKind) String() string {
	switch k {
	case SubmissionFailureValidation:
		return "validation"
	case SubmissionFailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// SubmissionError indicates a transaction was rejected, failed on chain or
// could not be confirmed.
type SubmissionError struct {
	Kind      SubmissionFailureKind
	Step      Step
	Signature *solana.Signature

	// ProgramError is a human readable name for a custom program error code,
	// when one could be resolved.
	ProgramError string

	Err error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Step, e.Kind)
	if e.Signature != nil {
		msg += fmt.Sprintf(" (signature %s)", e.Signature.String())
	}
	if len(e.ProgramError) > 0 {
		msg += ": " + e.ProgramError
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsRetryable returns whether err is transient. Failed queries and network
// submission failures are, everything else would fail the same way again.
func IsRetryable(err error) bool {
	var inspectionErr *InspectionError
	if errors.As(err, &inspectionErr) {
		return inspectionErr.Kind == InspectionFailureQuery
	}

	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return submissionErr.Kind == SubmissionFailureNetwork
	}

	return false
}

// programErrorName resolves the custom error code of txErr against the
// program of the failing instruction.
func programErrorName(txErr *solana.TransactionError, instructions []solana.Instruction) string {
	if txErr == nil {
		return ""
	}

	code, index, ok := txErr.CustomErrorCode()
	if !ok || index < 0 || index >= len(instructions) {
		return ""
	}

	program := instructions[index].Program
	switch {
	case bytes.Equal(program, craffles.PROGRAM_ID):
		if raffleErr, ok := craffles.GetRaffleError(code); ok {
			return raffleErr.Error()
		}
	case bytes.Equal(program, token.ProgramKey):
		if name, ok := token.ErrorName(code); ok {
			return fmt.Sprintf("%s (%d)", name, code)
		}
	}

	return fmt.Sprintf("custom program error %d", code)
}
