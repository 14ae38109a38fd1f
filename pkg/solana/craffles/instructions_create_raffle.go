package craffles

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
)

var CreateRaffleInstructionDiscriminator = anchorDiscriminator("global", "create_raffle")

const (
	CreateRaffleInstructionArgsSize = (8 + // end_timestamp
		8 + // ticket_price
		4 + // max_depth
		4) // max_buffer_size
)

type CreateRaffleInstructionArgs struct {
	EndTimestamp  int64
	TicketPrice   uint64
	MaxDepth      uint32
	MaxBufferSize uint32
}

type CreateRaffleInstructionAccounts struct {
	Raffle        ed25519.PublicKey
	Proceeds      ed25519.PublicKey
	ProceedsMint  ed25519.PublicKey
	MerkleTree    ed25519.PublicKey
	TreeAuthority ed25519.PublicKey
	Creator       ed25519.PublicKey
}

// NewCreateRaffleInstruction initializes the raffle and its proceeds token
// account, and creates the bubblegum tree config for an allocated, zeroed
// merkle tree account.
func NewCreateRaffleInstruction(
	accounts *CreateRaffleInstructionAccounts,
	args *CreateRaffleInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 8+CreateRaffleInstructionArgsSize)

	putDiscriminator(data, CreateRaffleInstructionDiscriminator, &offset)
	putInt64(data, args.EndTimestamp, &offset)
	putUint64(data, args.TicketPrice, &offset)
	putUint32(data, args.MaxDepth, &offset)
	putUint32(data, args.MaxBufferSize, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Raffle,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Proceeds,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.ProceedsMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MerkleTree,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TreeAuthority,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Creator,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SPL_NOOP_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_ACCOUNT_COMPRESSION_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  BUBBLEGUM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func ParseCreateRaffleInstructionArgs(data []byte) (*CreateRaffleInstructionArgs, error) {
	if len(data) != 8+CreateRaffleInstructionArgsSize {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "length %d", len(data))
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, CreateRaffleInstructionDiscriminator) {
		return nil, errors.Wrap(ErrInvalidInstructionData, "not a create_raffle instruction")
	}

	var args CreateRaffleInstructionArgs
	getInt64(data, &args.EndTimestamp, &offset)
	getUint64(data, &args.TicketPrice, &offset)
	getUint32(data, &args.MaxDepth, &offset)
	getUint32(data, &args.MaxBufferSize, &offset)
	return &args, nil
}
