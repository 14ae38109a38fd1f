package bubblegum

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
)

var createTreeInstructionDiscriminator = []byte{165, 83, 136, 142, 89, 202, 47, 220}

const (
	CreateTreeInstructionArgsSize = (4 + // max_depth
		4 + // max_buffer_size
		2) // public (Option<bool>)
)

type CreateTreeInstructionArgs struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	Public        *bool
}

type CreateTreeInstructionAccounts struct {
	TreeAuthority ed25519.PublicKey
	MerkleTree    ed25519.PublicKey
	Payer         ed25519.PublicKey
	TreeCreator   ed25519.PublicKey
}

// NewCreateTreeInstruction initializes the TreeConfig for an allocated, zeroed
// merkle tree account owned by the account compression program.
func NewCreateTreeInstruction(
	accounts *CreateTreeInstructionAccounts,
	args *CreateTreeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 8+CreateTreeInstructionArgsSize)

	putDiscriminator(data, createTreeInstructionDiscriminator, &offset)
	putUint32(data, args.MaxDepth, &offset)
	putUint32(data, args.MaxBufferSize, &offset)
	putOptionalBool(data, args.Public, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data[:offset],

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.TreeAuthority,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MerkleTree,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.TreeCreator,
				IsWritable: false,
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
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

// ParseCreateTreeInstructionArgs decodes the data of a create_tree instruction.
func ParseCreateTreeInstructionArgs(data []byte) (*CreateTreeInstructionArgs, error) {
	if len(data) < 8+4+4+1 {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "length %d", len(data))
	}
	if !bytes.Equal(data[:8], createTreeInstructionDiscriminator) {
		return nil, errors.Wrap(ErrInvalidInstructionData, "not a create_tree instruction")
	}

	args := &CreateTreeInstructionArgs{
		MaxDepth:      binary.LittleEndian.Uint32(data[8:]),
		MaxBufferSize: binary.LittleEndian.Uint32(data[12:]),
	}

	switch data[16] {
	case 0:
	case 1:
		if len(data) < 18 {
			return nil, errors.Wrap(ErrInvalidInstructionData, "missing public flag")
		}
		public := data[17] != 0
		args.Public = &public
	default:
		return nil, errors.Wrapf(ErrInvalidInstructionData, "invalid option tag %d", data[16])
	}

	return args, nil
}
