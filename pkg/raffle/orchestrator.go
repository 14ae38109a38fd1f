package raffle

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/craffles/pkg/pointer"
	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/token"
)

type WorkflowState string

const (
	WorkflowStateIdle              WorkflowState = "idle"
	WorkflowStateAddressesResolved WorkflowState = "addresses_resolved"
	WorkflowStateBranchesResolved  WorkflowState = "branches_resolved"
	WorkflowStateDone              WorkflowState = "done"
	WorkflowStateFailed            WorkflowState = "failed"
)

type CreateTreeRequest struct {
	Payer ed25519.PrivateKey
	Tree  ed25519.PrivateKey

	// Optional, defaults to the payer
	TreeCreator ed25519.PublicKey

	// Optional, default from config
	Descriptor *TreeDescriptor
	Public     *bool
}

type CreateTreeResult struct {
	InvocationId uuid.UUID
	Addresses    *RaffleAddresses
	Descriptor   TreeDescriptor
	Confirmation *Confirmation
}

type CreateRaffleRequest struct {
	Creator ed25519.PrivateKey

	// Always required to address the raffle. It only signs when its account
	// has to be allocated.
	Tree ed25519.PrivateKey

	ProceedsMint ed25519.PublicKey
	EndTime      time.Time
	TicketPrice  uint64

	// Optional, default from config
	Descriptor *TreeDescriptor

	// Optional template for the tickets that will be sold. It's validated
	// before anything is sent.
	TicketMetadata *bubblegum.MetadataArgs
}

type CreateRaffleResult struct {
	InvocationId      uuid.UUID
	Addresses         *RaffleAddresses
	Descriptor        TreeDescriptor
	TreeAccountExists bool
	Confirmation      *Confirmation
}

type BuyTicketsRequest struct {
	Buyer       ed25519.PrivateKey
	Tree        ed25519.PublicKey
	TicketCount uint32

	// Optional, default from config
	TicketMetadata *bubblegum.MetadataArgs
}

type BuyTicketsResult struct {
	InvocationId            uuid.UUID
	Addresses               *RaffleAddresses
	ProceedsMint            ed25519.PublicKey
	BuyerTokenAccount       ed25519.PublicKey
	BuyerTokenAccountExists bool
	WrappedLamports         uint64
	Instructions            int
	Confirmation            *Confirmation
}

type RaffleStatus struct {
	Addresses       *RaffleAddresses
	Raffle          *craffles.RaffleAccount
	ProceedsMint    ed25519.PublicKey
	ProceedsBalance uint64
	TicketsSold     uint64
	Capacity        uint64
	Ended           bool
}

type Option func(*Orchestrator)

// WithReceiptStore journals every invocation to store
func WithReceiptStore(store receipt.Store) Option {
	return func(o *Orchestrator) {
		o.receipts = store
	}
}

// WithClock overrides the clock used for the raffle end check
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs the raffle workflows. Each invocation resolves
// addresses, inspects state, assembles instructions and submits a single
// transaction. Failed invocations are not retried.
type Orchestrator struct {
	log       *logrus.Entry
	conf      *conf
	inspector *Inspector
	submitter *Submitter
	receipts  receipt.Store
	now       func() time.Time
}

func NewOrchestrator(sc solana.Client, configProvider ConfigProvider, opts ...Option) *Orchestrator {
	log := logrus.StandardLogger().WithField("type", "raffle/orchestrator")

	c := configProvider()

	commitment, err := solana.CommitmentFromString(c.commitment.Get(context.Background()))
	if err != nil {
		log.WithError(err).Warn("invalid commitment, using confirmed")
		commitment = solana.CommitmentConfirmed
	}

	o := &Orchestrator{
		log:       log,
		conf:      c,
		inspector: NewInspector(sc, commitment),
		submitter: newSubmitter(sc, c),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Inspector exposes the account reader used by the workflows
func (o *Orchestrator) Inspector() *Inspector {
	return o.inspector
}

// CreateTree allocates a tree and initializes it with bubblegum directly.
func (o *Orchestrator) CreateTree(ctx context.Context, req *CreateTreeRequest) (*CreateTreeResult, error) {
	payer, err := signerPublicKey("payer", req.Payer)
	if err != nil {
		return nil, err
	}
	tree, err := signerPublicKey("tree", req.Tree)
	if err != nil {
		return nil, err
	}
	if len(req.TreeCreator) > 0 && len(req.TreeCreator) != ed25519.PublicKeySize {
		return nil, &AssemblyError{Step: StepDeriveAddresses, Err: errors.Errorf("invalid tree creator length %d", len(req.TreeCreator))}
	}

	invocationId := uuid.New()

	log := o.log.WithFields(logrus.Fields{
		"method":     "CreateTree",
		"invocation": invocationId.String(),
		"payer":      base58.Encode(payer),
		"tree":       base58.Encode(tree),
	})
	w := o.newWorkflow(ctx, log, &receipt.Record{
		InvocationId: invocationId,
		Workflow:     receipt.WorkflowCreateTree,
		Payer:        base58.Encode(payer),
		Tree:         base58.Encode(tree),
	})

	descriptor, err := o.treeDescriptor(ctx, req.Descriptor)
	if err != nil {
		return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: tree, Err: err})
	}
	size, err := descriptor.AccountSize()
	if err != nil {
		return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: tree, Err: err})
	}

	addresses, err := DeriveRaffleAddresses(tree)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.transition(WorkflowStateAddressesResolved)

	rent, err := o.inspector.GetRentExemptBalance(ctx, size)
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	treeCreator := req.TreeCreator
	if len(treeCreator) == 0 {
		treeCreator = payer
	}

	public := pointer.BoolOrDefault(req.Public, o.conf.treePublic.Get(ctx))

	instructions, err := AssembleCreateTree(&CreateTreeState{
		Payer:        payer,
		TreeCreator:  treeCreator,
		Addresses:    addresses,
		Descriptor:   descriptor,
		RentLamports: rent,
		Public:       public,
	})
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	confirmation, err := o.submitter.Submit(ctx, instructions, req.Payer, req.Tree)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.done(ctx, confirmation, 0)

	return &CreateTreeResult{
		InvocationId: invocationId,
		Addresses:    addresses,
		Descriptor:   descriptor,
		Confirmation: confirmation,
	}, nil
}

// CreateRaffle creates a raffle and its proceeds account, letting the raffle
// program initialize the tree. The tree account is allocated in the same
// transaction unless a zeroed one already exists.
func (o *Orchestrator) CreateRaffle(ctx context.Context, req *CreateRaffleRequest) (*CreateRaffleResult, error) {
	creator, err := signerPublicKey("creator", req.Creator)
	if err != nil {
		return nil, err
	}
	tree, err := signerPublicKey("tree", req.Tree)
	if err != nil {
		return nil, err
	}

	invocationId := uuid.New()

	log := o.log.WithFields(logrus.Fields{
		"method":     "CreateRaffle",
		"invocation": invocationId.String(),
		"creator":    base58.Encode(creator),
		"tree":       base58.Encode(tree),
	})
	w := o.newWorkflow(ctx, log, &receipt.Record{
		InvocationId: invocationId,
		Workflow:     receipt.WorkflowCreateRaffle,
		Payer:        base58.Encode(creator),
		Tree:         base58.Encode(tree),
	})

	if req.TicketMetadata != nil {
		if err := ticketMetadata(ctx, o.conf, req.TicketMetadata, creator).Validate(); err != nil {
			return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Err: err})
		}
	}

	descriptor, err := o.treeDescriptor(ctx, req.Descriptor)
	if err != nil {
		return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: tree, Err: err})
	}
	size, err := descriptor.AccountSize()
	if err != nil {
		return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: tree, Err: err})
	}

	addresses, err := DeriveRaffleAddresses(tree)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.record.Raffle = base58.Encode(addresses.Raffle)
	w.transition(WorkflowStateAddressesResolved)

	treeState, err := o.inspector.Lookup(ctx, tree)
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	var treeAccount *solana.AccountInfo
	var rent uint64
	if treeState.Exists() {
		treeAccount = &treeState.Info
	} else {
		rent, err = o.inspector.GetRentExemptBalance(ctx, size)
		if err != nil {
			return nil, w.fail(ctx, err)
		}
	}
	w.log = w.log.WithField("tree_exists", treeState.Exists())
	w.transition(WorkflowStateBranchesResolved)

	instructions, err := AssembleCreateRaffle(&CreateRaffleState{
		Creator:      creator,
		Addresses:    addresses,
		ProceedsMint: req.ProceedsMint,
		Descriptor:   descriptor,
		EndTimestamp: req.EndTime.Unix(),
		TicketPrice:  req.TicketPrice,
		TreeAccount:  treeAccount,
		RentLamports: rent,
	})
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	var signers []ed25519.PrivateKey
	if !treeState.Exists() {
		signers = append(signers, req.Tree)
	}

	confirmation, err := o.submitter.Submit(ctx, instructions, req.Creator, signers...)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.done(ctx, confirmation, 0)

	return &CreateRaffleResult{
		InvocationId:      invocationId,
		Addresses:         addresses,
		Descriptor:        descriptor,
		TreeAccountExists: treeState.Exists(),
		Confirmation:      confirmation,
	}, nil
}

// BuyTickets buys tickets from the raffle bound to req.Tree, wrapping native
// funds into the buyer's associated token account when the raffle is paid
// in the native mint.
func (o *Orchestrator) BuyTickets(ctx context.Context, req *BuyTicketsRequest) (*BuyTicketsResult, error) {
	buyer, err := signerPublicKey("buyer", req.Buyer)
	if err != nil {
		return nil, err
	}

	invocationId := uuid.New()

	log := o.log.WithFields(logrus.Fields{
		"method":       "BuyTickets",
		"invocation":   invocationId.String(),
		"buyer":        base58.Encode(buyer),
		"tree":         base58.Encode(req.Tree),
		"ticket_count": req.TicketCount,
	})
	w := o.newWorkflow(ctx, log, &receipt.Record{
		InvocationId: invocationId,
		Workflow:     receipt.WorkflowBuyTickets,
		Payer:        base58.Encode(buyer),
		Tree:         base58.Encode(req.Tree),
		TicketCount:  req.TicketCount,
	})

	addresses, err := DeriveRaffleAddresses(req.Tree)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.record.Raffle = base58.Encode(addresses.Raffle)
	w.transition(WorkflowStateAddressesResolved)

	raffle, err := o.inspector.GetRaffle(ctx, addresses.Raffle)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, w.fail(ctx, &AssemblyError{Step: StepLookupAccount, Address: addresses.Raffle, Err: ErrRaffleNotFound})
	} else if err != nil {
		return nil, w.fail(ctx, err)
	}

	if raffle.HasEnded(o.now()) {
		return nil, w.fail(ctx, &AssemblyError{
			Step:    StepAssemble,
			Address: addresses.Raffle,
			Err:     errors.Wrapf(ErrRaffleEnded, "ended at %s", time.Unix(raffle.EndTimestamp, 0).UTC()),
		})
	}

	proceeds, err := o.inspector.GetTokenAccount(ctx, addresses.Proceeds, nil)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, w.fail(ctx, &InspectionError{Kind: InspectionFailureInvalidData, Step: StepLookupAccount, Address: addresses.Proceeds, Err: err})
	} else if err != nil {
		return nil, w.fail(ctx, err)
	}
	proceedsMint := proceeds.Mint

	buyerTokenAccount, err := DeriveBuyerTokenAccount(buyer, proceedsMint)
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	var buyerTokenAccountExists bool
	_, err = o.inspector.GetTokenAccount(ctx, buyerTokenAccount, proceedsMint)
	switch {
	case err == nil:
		buyerTokenAccountExists = true
	case errors.Is(err, ErrAccountNotFound):
	default:
		return nil, w.fail(ctx, err)
	}
	w.log = w.log.WithFields(logrus.Fields{
		"proceeds_mint":      base58.Encode(proceedsMint),
		"buyer_token_exists": buyerTokenAccountExists,
	})
	w.transition(WorkflowStateBranchesResolved)

	amount, err := WrapLamports(raffle.TicketPrice, req.TicketCount, 1)
	if err != nil {
		return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: addresses.Raffle, Err: err})
	}

	wrapScalingFactor := o.conf.wrapScalingFactor.Get(ctx)
	instructions, err := AssembleBuyTickets(&BuyTicketsState{
		Buyer:                   buyer,
		Addresses:               addresses,
		Raffle:                  raffle,
		ProceedsMint:            proceedsMint,
		BuyerTokenAccount:       buyerTokenAccount,
		BuyerTokenAccountExists: buyerTokenAccountExists,
		TicketCount:             req.TicketCount,
		WrapScalingFactor:       wrapScalingFactor,
		Metadata:                ticketMetadata(ctx, o.conf, req.TicketMetadata, buyer),
	})
	if err != nil {
		return nil, w.fail(ctx, err)
	}

	var wrapped uint64
	if token.IsNativeMint(proceedsMint) {
		wrapped, err = WrapLamports(raffle.TicketPrice, req.TicketCount, wrapScalingFactor)
		if err != nil {
			return nil, w.fail(ctx, &AssemblyError{Step: StepAssemble, Address: addresses.Raffle, Err: err})
		}
	}

	confirmation, err := o.submitter.Submit(ctx, instructions, req.Buyer)
	if err != nil {
		return nil, w.fail(ctx, err)
	}
	w.done(ctx, confirmation, amount)

	return &BuyTicketsResult{
		InvocationId:            invocationId,
		Addresses:               addresses,
		ProceedsMint:            proceedsMint,
		BuyerTokenAccount:       buyerTokenAccount,
		BuyerTokenAccountExists: buyerTokenAccountExists,
		WrappedLamports:         wrapped,
		Instructions:            len(instructions),
		Confirmation:            confirmation,
	}, nil
}

// GetRaffleStatus reads the raffle bound to tree along with its proceeds and
// the number of tickets minted into the tree.
func (o *Orchestrator) GetRaffleStatus(ctx context.Context, tree ed25519.PublicKey) (*RaffleStatus, error) {
	addresses, err := DeriveRaffleAddresses(tree)
	if err != nil {
		return nil, err
	}

	raffle, err := o.inspector.GetRaffle(ctx, addresses.Raffle)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, &AssemblyError{Step: StepLookupAccount, Address: addresses.Raffle, Err: ErrRaffleNotFound}
	} else if err != nil {
		return nil, err
	}

	proceeds, err := o.inspector.GetTokenAccount(ctx, addresses.Proceeds, nil)
	if err != nil {
		return nil, err
	}

	treeConfig, err := o.inspector.GetTreeConfig(ctx, addresses.TreeAuthority)
	if err != nil {
		return nil, err
	}

	return &RaffleStatus{
		Addresses:       addresses,
		Raffle:          raffle,
		ProceedsMint:    proceeds.Mint,
		ProceedsBalance: proceeds.Amount,
		TicketsSold:     treeConfig.NumMinted,
		Capacity:        treeConfig.TotalMintCapacity,
		Ended:           raffle.HasEnded(o.now()),
	}, nil
}

// ListRaffles returns the raffles created by creator
func (o *Orchestrator) ListRaffles(ctx context.Context, creator ed25519.PublicKey) ([]*RaffleListing, error) {
	return o.inspector.ListRaffles(ctx, creator)
}

func (o *Orchestrator) treeDescriptor(ctx context.Context, override *TreeDescriptor) (TreeDescriptor, error) {
	if override != nil {
		return *override, nil
	}

	var descriptor TreeDescriptor
	var err error
	if descriptor.MaxDepth, err = getUint32(ctx, TreeMaxDepthConfigEnvName, o.conf.treeMaxDepth); err != nil {
		return descriptor, err
	}
	if descriptor.MaxBufferSize, err = getUint32(ctx, TreeMaxBufferSizeConfigEnvName, o.conf.treeMaxBufferSize); err != nil {
		return descriptor, err
	}
	if descriptor.CanopyDepth, err = getUint32(ctx, TreeCanopyDepthConfigEnvName, o.conf.treeCanopyDepth); err != nil {
		return descriptor, err
	}
	return descriptor, nil
}

// signerPublicKey returns the public half of a required signing key
func signerPublicKey(name string, key ed25519.PrivateKey) (ed25519.PublicKey, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, &AssemblyError{
			Step: StepDeriveAddresses,
			Err:  errors.Wrapf(ErrInvalidSigner, "%s key has length %d", name, len(key)),
		}
	}
	return key.Public().(ed25519.PublicKey), nil
}

// workflow tracks a single invocation through its states and mirrors it
// into the receipt store when one is configured.
type workflow struct {
	log      *logrus.Entry
	receipts receipt.Store
	record   *receipt.Record
	state    WorkflowState
	started  bool
}

func (o *Orchestrator) newWorkflow(ctx context.Context, log *logrus.Entry, record *receipt.Record) *workflow {
	w := &workflow{
		log:      log,
		receipts: o.receipts,
		record:   record,
		state:    WorkflowStateIdle,
	}

	record.State = receipt.StatePending
	if w.receipts != nil {
		if err := w.receipts.Put(ctx, record); err != nil {
			log.WithError(err).Warn("failure journaling invocation")
		} else {
			w.started = true
		}
	}

	log.WithField("state", w.state).Debug("workflow started")
	return w
}

func (w *workflow) transition(state WorkflowState) {
	w.log.WithFields(logrus.Fields{
		"from": w.state,
		"to":   state,
	}).Debug("workflow transition")
	w.state = state
}

func (w *workflow) fail(ctx context.Context, err error) error {
	w.log.WithError(err).WithField("from", w.state).Info("workflow failed")
	w.state = WorkflowStateFailed

	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) && submissionErr.Signature != nil {
		w.record.Signature = submissionErr.Signature.String()
	}
	w.record.State = receipt.StateFailed
	w.record.Error = err.Error()
	w.journal(ctx)

	return err
}

func (w *workflow) done(ctx context.Context, confirmation *Confirmation, amount uint64) {
	w.log.WithFields(logrus.Fields{
		"signature": confirmation.Signature.String(),
		"slot":      confirmation.Slot,
	}).Info("workflow done")
	w.state = WorkflowStateDone

	w.record.State = receipt.StateConfirmed
	w.record.Signature = confirmation.Signature.String()
	w.record.Amount = amount
	w.journal(ctx)
}

func (w *workflow) journal(ctx context.Context) {
	if !w.started {
		return
	}

	// The outcome is recorded even when the caller's context was cancelled
	if err := w.receipts.Update(context.WithoutCancel(ctx), w.record); err != nil {
		w.log.WithError(err).Warn("failure journaling invocation outcome")
	}
}
