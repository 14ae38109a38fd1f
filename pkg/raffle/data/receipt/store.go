package receipt

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrReceiptAlreadyExists indicates a receipt already exists for the invocation
	ErrReceiptAlreadyExists = errors.New("receipt already exists")

	// ErrReceiptNotFound indicates no receipt matched the query
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrInvalidStateTransition indicates an update to a receipt that already
	// reached a terminal state
	ErrInvalidStateTransition = errors.New("invalid receipt state transition")
)

type Store interface {
	// Put creates a new receipt
	Put(ctx context.Context, record *Record) error

	// Update sets the state, signature, raffle, amount and error of an existing
	// receipt. Receipts in a terminal state cannot be updated.
	Update(ctx context.Context, record *Record) error

	// Get gets a receipt by its invocation id
	Get(ctx context.Context, invocationId uuid.UUID) (*Record, error)

	// GetAllByPayer gets the most recent receipts for a payer, newest first
	GetAllByPayer(ctx context.Context, payer string, limit uint64) ([]*Record, error)

	// GetAllByTree gets the most recent receipts for a tree, newest first
	GetAllByTree(ctx context.Context, tree string, limit uint64) ([]*Record, error)
}
