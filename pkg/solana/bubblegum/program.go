package bubblegum

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/craffles/pkg/solana"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = solana.MustBase58Decode("BGUMAp9Gq7iTEuizy4pqaxsTyUCBK68MDfK752saRPUY")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SPL_ACCOUNT_COMPRESSION_PROGRAM_ID = ed25519.PublicKey(solana.MustBase58Decode("cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK"))
	SPL_NOOP_PROGRAM_ID                = ed25519.PublicKey(solana.MustBase58Decode("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"))
	SYSTEM_PROGRAM_ID                  = ed25519.PublicKey(solana.MustBase58Decode("11111111111111111111111111111111"))
)
