package accountcompression

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/craffles/pkg/solana"
)

var (
	ErrInvalidAccountData   = errors.New("unexpected account data")
	ErrInvalidDepthSizePair = errors.New("invalid max depth and max buffer size pair")
	ErrInvalidCanopyDepth   = errors.New("canopy depth must be less than max depth")
)

var (
	PROGRAM_ADDRESS = solana.MustBase58Decode("cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	NOOP_PROGRAM_ID = ed25519.PublicKey(solana.MustBase58Decode("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"))
)
