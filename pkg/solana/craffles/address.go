package craffles

import (
	"crypto/ed25519"

	"github.com/code-payments/craffles/pkg/solana"
)

var (
	RafflePrefix   = []byte("raffle")
	ProceedsPrefix = []byte("proceeds")
)

type GetRaffleAddressArgs struct {
	MerkleTree ed25519.PublicKey
}

func GetRaffleAddress(args *GetRaffleAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		RafflePrefix,
		args.MerkleTree,
	)
}

type GetProceedsAddressArgs struct {
	Raffle ed25519.PublicKey
}

func GetProceedsAddress(args *GetProceedsAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		ProceedsPrefix,
		args.Raffle,
	)
}
