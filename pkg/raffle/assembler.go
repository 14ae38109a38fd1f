package raffle

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math"
	"math/bits"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/accountcompression"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/system"
	"github.com/code-payments/craffles/pkg/solana/token"
)

// TreeDescriptor is the shape of a concurrent merkle tree.
type TreeDescriptor struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	CanopyDepth   uint32
}

func (d TreeDescriptor) Validate() error {
	if !accountcompression.IsValidDepthSizePair(d.MaxDepth, d.MaxBufferSize) {
		return errors.Wrapf(ErrInvalidDepthSizePair, "depth=%d, buffer=%d", d.MaxDepth, d.MaxBufferSize)
	}
	if d.CanopyDepth > 0 && d.CanopyDepth >= d.MaxDepth {
		return errors.Wrapf(ErrInvalidDepthSizePair, "canopy=%d, depth=%d", d.CanopyDepth, d.MaxDepth)
	}
	return nil
}

// AccountSize returns the number of bytes the tree account must allocate.
func (d TreeDescriptor) AccountSize() (uint64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return accountcompression.GetConcurrentMerkleTreeAccountSize(d.MaxDepth, d.MaxBufferSize, d.CanopyDepth)
}

// Capacity returns the number of tickets the tree can hold.
func (d TreeDescriptor) Capacity() uint64 {
	return accountcompression.GetMaxCapacity(d.MaxDepth)
}

func (d TreeDescriptor) String() string {
	return fmt.Sprintf("TreeDescriptor{depth=%d,buffer=%d,canopy=%d}", d.MaxDepth, d.MaxBufferSize, d.CanopyDepth)
}

// CreateTreeState is everything needed to allocate a tree and initialize it
// with bubblegum directly.
type CreateTreeState struct {
	Payer        ed25519.PublicKey
	TreeCreator  ed25519.PublicKey
	Addresses    *RaffleAddresses
	Descriptor   TreeDescriptor
	RentLamports uint64
	Public       bool
}

// AssembleCreateTree returns the allocation of the tree account followed by
// bubblegum's create_tree.
func AssembleCreateTree(state *CreateTreeState) ([]solana.Instruction, error) {
	size, err := state.Descriptor.AccountSize()
	if err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Address: state.Addresses.Tree, Err: err}
	}

	public := state.Public
	return []solana.Instruction{
		system.CreateAccount(
			state.Payer,
			state.Addresses.Tree,
			accountcompression.PROGRAM_ID,
			state.RentLamports,
			size,
		),
		bubblegum.NewCreateTreeInstruction(
			&bubblegum.CreateTreeInstructionAccounts{
				TreeAuthority: state.Addresses.TreeAuthority,
				MerkleTree:    state.Addresses.Tree,
				Payer:         state.Payer,
				TreeCreator:   state.TreeCreator,
			},
			&bubblegum.CreateTreeInstructionArgs{
				MaxDepth:      state.Descriptor.MaxDepth,
				MaxBufferSize: state.Descriptor.MaxBufferSize,
				Public:        &public,
			},
		),
	}, nil
}

// CreateRaffleState is everything needed to create a raffle over a tree that
// create_raffle will initialize.
type CreateRaffleState struct {
	Creator      ed25519.PublicKey
	Addresses    *RaffleAddresses
	ProceedsMint ed25519.PublicKey
	Descriptor   TreeDescriptor
	EndTimestamp int64
	TicketPrice  uint64

	// TreeAccount is the current tree account, or nil when it does not exist
	// and must be allocated in the same transaction.
	TreeAccount  *solana.AccountInfo
	RentLamports uint64
}

// AssembleCreateRaffle returns create_raffle, preceded by the allocation of
// the tree account when it does not exist yet. An existing tree account must
// be owned by the compression program, sized for the descriptor and zeroed.
func AssembleCreateRaffle(state *CreateRaffleState) ([]solana.Instruction, error) {
	tree := state.Addresses.Tree

	size, err := state.Descriptor.AccountSize()
	if err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Address: tree, Err: err}
	}

	if len(state.ProceedsMint) != ed25519.PublicKeySize {
		return nil, &AssemblyError{Step: StepAssemble, Err: errors.New("proceeds mint is required")}
	}

	var instructions []solana.Instruction
	if state.TreeAccount == nil {
		instructions = append(instructions, system.CreateAccount(
			state.Creator,
			tree,
			accountcompression.PROGRAM_ID,
			state.RentLamports,
			size,
		))
	} else if err := checkZeroedTree(state.TreeAccount, size); err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Address: tree, Err: err}
	}

	instructions = append(instructions, craffles.NewCreateRaffleInstruction(
		&craffles.CreateRaffleInstructionAccounts{
			Raffle:        state.Addresses.Raffle,
			Proceeds:      state.Addresses.Proceeds,
			ProceedsMint:  state.ProceedsMint,
			MerkleTree:    tree,
			TreeAuthority: state.Addresses.TreeAuthority,
			Creator:       state.Creator,
		},
		&craffles.CreateRaffleInstructionArgs{
			EndTimestamp:  state.EndTimestamp,
			TicketPrice:   state.TicketPrice,
			MaxDepth:      state.Descriptor.MaxDepth,
			MaxBufferSize: state.Descriptor.MaxBufferSize,
		},
	))

	return instructions, nil
}

func checkZeroedTree(info *solana.AccountInfo, size uint64) error {
	if !bytes.Equal(info.Owner, accountcompression.PROGRAM_ID) {
		return errors.Wrapf(ErrTreeAlreadyInitialized, "owned by %s", base58.Encode(info.Owner))
	}
	if uint64(len(info.Data)) != size {
		return errors.Wrapf(ErrTreeAlreadyInitialized, "size %d, expected %d", len(info.Data), size)
	}
	for _, b := range info.Data {
		if b != 0 {
			return errors.Wrap(ErrTreeAlreadyInitialized, "data is not zeroed")
		}
	}
	return nil
}

// BuyTicketsState is everything needed to buy tickets from a raffle.
type BuyTicketsState struct {
	Buyer        ed25519.PublicKey
	Addresses    *RaffleAddresses
	Raffle       *craffles.RaffleAccount
	ProceedsMint ed25519.PublicKey

	BuyerTokenAccount       ed25519.PublicKey
	BuyerTokenAccountExists bool

	TicketCount       uint32
	WrapScalingFactor uint64
	Metadata          *bubblegum.MetadataArgs
}

// AssembleBuyTickets returns the purchase, preceded by the native wrapping
// steps when proceeds are paid in the native mint:
//
//	native, no token account: [create ATA, transfer, sync native, buy tickets]
//	native, token account:    [transfer, sync native, buy tickets]
//	any other mint:           [buy tickets]
func AssembleBuyTickets(state *BuyTicketsState) ([]solana.Instruction, error) {
	if state.TicketCount == 0 || state.TicketCount > math.MaxUint16 {
		return nil, &AssemblyError{Step: StepAssemble, Address: state.Addresses.Raffle, Err: errors.Wrapf(ErrInvalidTicketCount, "got %d", state.TicketCount)}
	}

	if state.Metadata == nil {
		return nil, &AssemblyError{Step: StepAssemble, Err: errors.New("ticket metadata is required")}
	}
	if err := state.Metadata.Validate(); err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Err: err}
	}

	var instructions []solana.Instruction
	if token.IsNativeMint(state.ProceedsMint) {
		lamports, err := WrapLamports(state.Raffle.TicketPrice, state.TicketCount, state.WrapScalingFactor)
		if err != nil {
			return nil, &AssemblyError{Step: StepAssemble, Address: state.Addresses.Raffle, Err: err}
		}

		if !state.BuyerTokenAccountExists {
			create, ata, err := token.CreateAssociatedTokenAccount(state.Buyer, state.Buyer, state.ProceedsMint)
			if err != nil {
				return nil, &DerivationError{Step: StepAssemble, Program: token.AssociatedTokenAccountProgramKey, Err: err}
			}
			if !bytes.Equal(ata, state.BuyerTokenAccount) {
				return nil, &AssemblyError{
					Step:    StepAssemble,
					Address: state.BuyerTokenAccount,
					Err:     errors.Errorf("buyer token account is not the associated account %s", base58.Encode(ata)),
				}
			}
			instructions = append(instructions, create)
		}

		instructions = append(
			instructions,
			system.Transfer(state.Buyer, state.BuyerTokenAccount, lamports),
			token.SyncNative(state.BuyerTokenAccount),
		)
	}

	buyTickets, err := craffles.NewBuyTicketsInstruction(
		&craffles.BuyTicketsInstructionAccounts{
			Raffle:            state.Addresses.Raffle,
			Proceeds:          state.Addresses.Proceeds,
			TreeAuthority:     state.Addresses.TreeAuthority,
			MerkleTree:        state.Addresses.Tree,
			BuyerTokenAccount: state.BuyerTokenAccount,
			Buyer:             state.Buyer,
		},
		&craffles.BuyTicketsInstructionArgs{
			Amount:   uint16(state.TicketCount),
			Metadata: state.Metadata,
		},
	)
	if err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Err: err}
	}

	return append(instructions, buyTickets), nil
}

// WrapLamports returns the lamports to wrap for a purchase:
// ticketPrice * ticketCount * scalingFactor.
func WrapLamports(ticketPrice uint64, ticketCount uint32, scalingFactor uint64) (uint64, error) {
	if scalingFactor == 0 {
		return 0, errors.New("scaling factor must be positive")
	}

	hi, total := bits.Mul64(ticketPrice, uint64(ticketCount))
	if hi != 0 {
		return 0, errors.Wrapf(ErrAmountOverflow, "%d * %d", ticketPrice, ticketCount)
	}

	hi, total = bits.Mul64(total, scalingFactor)
	if hi != 0 {
		return 0, errors.Wrapf(ErrAmountOverflow, "%d * %d * %d", ticketPrice, ticketCount, scalingFactor)
	}

	return total, nil
}
