package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeRaw(t *testing.T, s string) interface{} {
	d := json.NewDecoder(bytes.NewBufferString(s))

	var raw interface{}
	require.NoError(t, d.Decode(&raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[3,{"Custom":6001}]}`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 3, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(6001), *e.InstructionError().CustomError())

	code, index, ok := e.CustomErrorCode()
	assert.True(t, ok)
	assert.EqualValues(t, 6001, code)
	assert.Equal(t, 3, index)

	e, err = ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 0, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())
	_, _, ok = e.CustomErrorCode()
	assert.False(t, ok)

	e, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
	assert.Equal(t, "BlockhashNotFound", e.Error())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseRPCError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err":  decodeRaw(t, `{"InstructionError":[1,{"Custom":1}]}`),
			"logs": []interface{}{"Program log: Error: insufficient funds"},
		},
	}

	e, err := ParseRPCError(rpcErr)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.Equal(t, 1, e.InstructionError().Index)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32602, Message: "invalid params"})
	assert.Error(t, err)

	e, err = ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestNewTransactionError(t *testing.T) {
	e := NewTransactionError(TransactionErrorBlockhashNotFound)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Equal(t, "BlockhashNotFound", e.raw)
	assert.Nil(t, e.InstructionError())
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"7",
		7.0,
		json.Number("7"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 7, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
