package compute_budget

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
)

// ProgramKey is the address of the compute budget program.
//
// Current key: ComputeBudget111111111111111111111111111111
var ProgramKey = solana.MustBase58Decode("ComputeBudget111111111111111111111111111111")

const (
	// nolint:varcheck,deadcode,unused
	commandRequestUnits uint8 = iota
	// nolint:varcheck,deadcode,unused
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

var ErrInvalidInstructionData = errors.New("invalid compute budget instruction data")

// SetComputeUnitLimit caps the compute units the transaction may consume.
func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute
// unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(ProgramKey, data)
}

// Prepend returns instructions with compute budget instructions in front for
// every non-zero setting. A zero limit and price leave instructions untouched.
func Prepend(limit uint32, microLamports uint64, instructions ...solana.Instruction) []solana.Instruction {
	var res []solana.Instruction
	if limit > 0 {
		res = append(res, SetComputeUnitLimit(limit))
	}
	if microLamports > 0 {
		res = append(res, SetComputeUnitPrice(microLamports))
	}
	return append(res, instructions...)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.Wrapf(ErrInvalidInstructionData, "length %d", len(data))
	}

	if data[0] != commandSetComputeUnitLimit {
		return 0, errors.Wrap(ErrInvalidInstructionData, "not a set compute unit limit instruction")
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, errors.Wrapf(ErrInvalidInstructionData, "length %d", len(data))
	}

	if data[0] != commandSetComputeUnitPrice {
		return 0, errors.Wrap(ErrInvalidInstructionData, "not a set compute unit price instruction")
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}
