package bubblegum

import (
	"crypto/ed25519"

	"github.com/code-payments/craffles/pkg/solana"
)

type GetTreeAuthorityAddressArgs struct {
	MerkleTree ed25519.PublicKey
}

// GetTreeAuthorityAddress returns the TreeConfig address for a merkle tree.
func GetTreeAuthorityAddress(args *GetTreeAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.MerkleTree,
	)
}
