package bubblegum

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	TreeConfigAccountSize = (8 + // discriminator
		32 + // tree_creator
		32 + // tree_delegate
		8 + // total_mint_capacity
		8 + // num_minted
		1 + // is_public
		1) // is_decompressible
)

var TreeConfigAccountDiscriminator = []byte{122, 245, 175, 248, 171, 34, 0, 207}

type DecompressibleState uint8

const (
	DecompressibleStateEnabled DecompressibleState = iota
	DecompressibleStateDisabled
)

// TreeConfigAccount lives at the tree authority address and tracks how many
// leaves have been minted into the tree.
type TreeConfigAccount struct {
	TreeCreator       ed25519.PublicKey
	TreeDelegate      ed25519.PublicKey
	TotalMintCapacity uint64
	NumMinted         uint64
	IsPublic          bool
	IsDecompressible  DecompressibleState
}

func (obj *TreeConfigAccount) Unmarshal(data []byte) error {
	if len(data) < TreeConfigAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, TreeConfigAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.TreeCreator, &offset)
	getKey(data, &obj.TreeDelegate, &offset)
	getUint64(data, &obj.TotalMintCapacity, &offset)
	getUint64(data, &obj.NumMinted, &offset)
	getBool(data, &obj.IsPublic, &offset)

	var decompressible uint8
	getUint8(data, &decompressible, &offset)
	obj.IsDecompressible = DecompressibleState(decompressible)

	return nil
}

// Remaining returns the number of leaves that can still be minted.
func (obj *TreeConfigAccount) Remaining() uint64 {
	if obj.NumMinted >= obj.TotalMintCapacity {
		return 0
	}
	return obj.TotalMintCapacity - obj.NumMinted
}

func (obj *TreeConfigAccount) String() string {
	return fmt.Sprintf(
		"TreeConfig{tree_creator=%s,tree_delegate=%s,total_mint_capacity=%d,num_minted=%d,is_public=%v}",
		base58.Encode(obj.TreeCreator),
		base58.Encode(obj.TreeDelegate),
		obj.TotalMintCapacity,
		obj.NumMinted,
		obj.IsPublic,
	)
}
