package receipt

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Workflow string

const (
	WorkflowCreateTree   Workflow = "create_tree"
	WorkflowCreateRaffle Workflow = "create_raffle"
	WorkflowBuyTickets   Workflow = "buy_tickets"
)

type State uint8

const (
	StateUnknown State = iota
	StatePending
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns whether no further updates are expected.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// Record journals a single workflow invocation.
type Record struct {
	Id uint64

	InvocationId uuid.UUID
	Workflow     Workflow
	State        State

	Signature string
	Payer     string
	Tree      string
	Raffle    string

	TicketCount uint32
	Amount      uint64

	Error string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if r.InvocationId == uuid.Nil {
		return errors.New("invocation id is required")
	}

	switch r.Workflow {
	case WorkflowCreateTree, WorkflowCreateRaffle, WorkflowBuyTickets:
	default:
		return errors.Errorf("invalid workflow %q", r.Workflow)
	}

	if r.State == StateUnknown {
		return errors.New("state is required")
	}

	if len(r.Payer) == 0 {
		return errors.New("payer is required")
	}

	if len(r.Tree) == 0 {
		return errors.New("tree is required")
	}

	if r.Workflow == WorkflowBuyTickets && r.TicketCount == 0 {
		return errors.New("ticket count is required when buying tickets")
	}

	if r.Amount > math.MaxInt64 {
		return errors.Errorf("amount %d exceeds max storable value", r.Amount)
	}

	if r.State == StateConfirmed && len(r.Signature) == 0 {
		return errors.New("signature is required when confirmed")
	}

	if r.State == StateFailed && len(r.Error) == 0 {
		return errors.New("error is required when failed")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		InvocationId: r.InvocationId,
		Workflow:     r.Workflow,
		State:        r.State,

		Signature: r.Signature,
		Payer:     r.Payer,
		Tree:      r.Tree,
		Raffle:    r.Raffle,

		TicketCount: r.TicketCount,
		Amount:      r.Amount,

		Error: r.Error,

		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	*dst = r.Clone()
}
