package accountcompression

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	sbinary "github.com/code-payments/craffles/pkg/solana/binary"
)

const (
	ConcurrentMerkleTreeHeaderSize = (1 + // account_type
		1 + // header version
		4 + // max_buffer_size
		4 + // max_depth
		32 + // authority
		8 + // creation_slot
		6) // padding

	concurrentMerkleTreeFieldsSize = (8 + // sequence_number
		8 + // active_index
		8) // buffer_size
)

type CompressionAccountType uint8

const (
	CompressionAccountTypeUninitialized CompressionAccountType = iota
	CompressionAccountTypeConcurrentMerkleTree
)

// GetConcurrentMerkleTreeAccountSize returns the number of bytes a tree
// account needs for the given shape.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/9610bed5349f7a198f5d1fdd4e8b8b5ba3734279/account-compression/sdk/src/accounts/ConcurrentMerkleTreeAccount.ts#L220
func GetConcurrentMerkleTreeAccountSize(maxDepth, maxBufferSize, canopyDepth uint32) (uint64, error) {
	if !IsValidDepthSizePair(maxDepth, maxBufferSize) {
		return 0, errors.Wrapf(ErrInvalidDepthSizePair, "depth=%d, buffer=%d", maxDepth, maxBufferSize)
	}
	if canopyDepth > 0 && canopyDepth >= maxDepth {
		return 0, errors.Wrapf(ErrInvalidCanopyDepth, "canopy=%d, depth=%d", canopyDepth, maxDepth)
	}

	return ConcurrentMerkleTreeHeaderSize +
		concurrentMerkleTreeFieldsSize +
		uint64(maxBufferSize)*pathSize(maxDepth) + // change_logs
		pathSize(maxDepth) + // rightmost_proof
		canopySize(canopyDepth), nil
}

// GetMaxCapacity returns the number of leaves a tree of maxDepth can hold.
func GetMaxCapacity(maxDepth uint32) uint64 {
	return uint64(1) << maxDepth
}

// A change log entry and the rightmost proof share the same footprint:
// a 32 byte node, maxDepth path nodes, a u32 index and u32 padding.
func pathSize(maxDepth uint32) uint64 {
	return 40 + 32*uint64(maxDepth)
}

func canopySize(canopyDepth uint32) uint64 {
	if canopyDepth == 0 {
		return 0
	}
	return ((uint64(1) << (canopyDepth + 1)) - 2) * 32
}

type ConcurrentMerkleTreeHeader struct {
	AccountType   CompressionAccountType
	Version       uint8
	MaxBufferSize uint32
	MaxDepth      uint32
	Authority     ed25519.PublicKey
	CreationSlot  uint64
}

// ConcurrentMerkleTreeAccount is the decoded prefix of a tree account along
// with the rightmost leaf index, which is the number of leaves appended.
type ConcurrentMerkleTreeAccount struct {
	Header         ConcurrentMerkleTreeHeader
	SequenceNumber uint64
	ActiveIndex    uint64
	BufferSize     uint64
	RightmostIndex uint32
}

func (obj *ConcurrentMerkleTreeAccount) Unmarshal(data []byte) error {
	if len(data) < ConcurrentMerkleTreeHeaderSize+concurrentMerkleTreeFieldsSize {
		return ErrInvalidAccountData
	}

	var offset int
	var accountType uint8
	sbinary.GetUint8(data, &accountType, &offset)
	obj.Header.AccountType = CompressionAccountType(accountType)
	if obj.Header.AccountType != CompressionAccountTypeConcurrentMerkleTree {
		return errors.Wrapf(ErrInvalidAccountData, "account type %d", accountType)
	}

	sbinary.GetUint8(data[offset:], &obj.Header.Version, &offset)
	sbinary.GetUint32(data[offset:], &obj.Header.MaxBufferSize, &offset)
	sbinary.GetUint32(data[offset:], &obj.Header.MaxDepth, &offset)
	sbinary.GetKey32(data[offset:], &obj.Header.Authority, &offset)
	sbinary.GetUint64(data[offset:], &obj.Header.CreationSlot, &offset)
	offset += 6 // padding

	sbinary.GetUint64(data[offset:], &obj.SequenceNumber, &offset)
	sbinary.GetUint64(data[offset:], &obj.ActiveIndex, &offset)
	sbinary.GetUint64(data[offset:], &obj.BufferSize, &offset)

	if !IsValidDepthSizePair(obj.Header.MaxDepth, obj.Header.MaxBufferSize) {
		return errors.Wrapf(ErrInvalidDepthSizePair, "depth=%d, buffer=%d", obj.Header.MaxDepth, obj.Header.MaxBufferSize)
	}

	rightmostIndexOffset := uint64(offset) +
		uint64(obj.Header.MaxBufferSize)*pathSize(obj.Header.MaxDepth) +
		32*uint64(obj.Header.MaxDepth) + // proof
		32 // leaf
	if uint64(len(data)) < rightmostIndexOffset+8 {
		return errors.Wrapf(ErrInvalidAccountData, "size %d", len(data))
	}
	obj.RightmostIndex = binary.LittleEndian.Uint32(data[rightmostIndexOffset:])

	return nil
}

func (obj *ConcurrentMerkleTreeAccount) String() string {
	return fmt.Sprintf(
		"ConcurrentMerkleTree{max_depth=%d,max_buffer_size=%d,authority=%s,creation_slot=%d,sequence_number=%d,rightmost_index=%d}",
		obj.Header.MaxDepth,
		obj.Header.MaxBufferSize,
		base58.Encode(obj.Header.Authority),
		obj.Header.CreationSlot,
		obj.SequenceNumber,
		obj.RightmostIndex,
	)
}
