package raffle

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/token"
)

// RaffleAddresses are the program derived addresses of a raffle, all rooted
// at its merkle tree.
type RaffleAddresses struct {
	Tree ed25519.PublicKey

	TreeAuthority     ed25519.PublicKey
	TreeAuthorityBump uint8

	Raffle     ed25519.PublicKey
	RaffleBump uint8

	Proceeds     ed25519.PublicKey
	ProceedsBump uint8
}

func (a *RaffleAddresses) String() string {
	return fmt.Sprintf(
		"RaffleAddresses{Tree=%s,TreeAuthority=%s,Raffle=%s,Proceeds=%s}",
		base58.Encode(a.Tree),
		base58.Encode(a.TreeAuthority),
		base58.Encode(a.Raffle),
		base58.Encode(a.Proceeds),
	)
}

// DeriveRaffleAddresses derives the tree authority, raffle and proceeds
// addresses for tree. It is pure and deterministic.
func DeriveRaffleAddresses(tree ed25519.PublicKey) (*RaffleAddresses, error) {
	if len(tree) != ed25519.PublicKeySize {
		return nil, &AssemblyError{Step: StepDeriveAddresses, Err: errors.Errorf("invalid tree address length %d", len(tree))}
	}

	treeAuthority, treeAuthorityBump, err := bubblegum.GetTreeAuthorityAddress(&bubblegum.GetTreeAuthorityAddressArgs{
		MerkleTree: tree,
	})
	if err != nil {
		return nil, &DerivationError{Step: StepDeriveAddresses, Program: bubblegum.PROGRAM_ID, Err: err}
	}

	raffle, raffleBump, err := craffles.GetRaffleAddress(&craffles.GetRaffleAddressArgs{
		MerkleTree: tree,
	})
	if err != nil {
		return nil, &DerivationError{Step: StepDeriveAddresses, Program: craffles.PROGRAM_ID, Err: err}
	}

	proceeds, proceedsBump, err := craffles.GetProceedsAddress(&craffles.GetProceedsAddressArgs{
		Raffle: raffle,
	})
	if err != nil {
		return nil, &DerivationError{Step: StepDeriveAddresses, Program: craffles.PROGRAM_ID, Err: err}
	}

	return &RaffleAddresses{
		Tree: tree,

		TreeAuthority:     treeAuthority,
		TreeAuthorityBump: treeAuthorityBump,

		Raffle:     raffle,
		RaffleBump: raffleBump,

		Proceeds:     proceeds,
		ProceedsBump: proceedsBump,
	}, nil
}

// DeriveBuyerTokenAccount derives the associated token account of buyer for
// mint.
func DeriveBuyerTokenAccount(buyer, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	ata, err := token.GetAssociatedAccount(buyer, mint)
	if err != nil {
		return nil, &DerivationError{Step: StepDeriveAddresses, Program: token.AssociatedTokenAccountProgramKey, Err: err}
	}
	return ata, nil
}
