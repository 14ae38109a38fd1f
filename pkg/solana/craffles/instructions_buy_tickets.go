package craffles

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
)

var BuyTicketsInstructionDiscriminator = anchorDiscriminator("global", "buy_tickets")

type BuyTicketsInstructionArgs struct {
	Amount   uint16
	Metadata *bubblegum.MetadataArgs
}

type BuyTicketsInstructionAccounts struct {
	Raffle            ed25519.PublicKey
	Proceeds          ed25519.PublicKey
	TreeAuthority     ed25519.PublicKey
	MerkleTree        ed25519.PublicKey
	BuyerTokenAccount ed25519.PublicKey
	Buyer             ed25519.PublicKey
}

// NewBuyTicketsInstruction mints one compressed ticket to the buyer, who is
// both leaf owner and delegate, and moves the ticket price times amount from
// the buyer's token account into the raffle proceeds.
func NewBuyTicketsInstruction(
	accounts *BuyTicketsInstructionAccounts,
	args *BuyTicketsInstructionArgs,
) (solana.Instruction, error) {
	metadata, err := args.Metadata.Marshal()
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error serializing metadata")
	}

	var offset int

	// Serialize instruction arguments
	data := make([]byte, 8+2+len(metadata))

	putDiscriminator(data, BuyTicketsInstructionDiscriminator, &offset)
	putUint16(data, args.Amount, &offset)
	copy(data[offset:], metadata)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Raffle,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Proceeds,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TreeAuthority,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Buyer, // leaf owner
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Buyer, // leaf delegate
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MerkleTree,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.BuyerTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Buyer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  BUBBLEGUM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
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
	}, nil
}

func ParseBuyTicketsInstructionArgs(data []byte) (*BuyTicketsInstructionArgs, error) {
	if len(data) < 8+2 {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "length %d", len(data))
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, BuyTicketsInstructionDiscriminator) {
		return nil, errors.Wrap(ErrInvalidInstructionData, "not a buy_tickets instruction")
	}

	args := &BuyTicketsInstructionArgs{
		Metadata: &bubblegum.MetadataArgs{},
	}
	getUint16(data, &args.Amount, &offset)

	n, err := args.Metadata.Unmarshal(data[offset:])
	if err != nil {
		return nil, errors.Wrap(err, "error decoding metadata")
	}
	if offset+n != len(data) {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "%d trailing bytes", len(data)-offset-n)
	}

	return args, nil
}
