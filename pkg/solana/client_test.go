package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero},
		},
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed},
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &one},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized},
			confirmed: true,
			finalized: true,
		},
		{
			s:         SignatureStatus{Slot: 10},
			confirmed: true,
			finalized: true,
		},
	}

	for i, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed(), i)
		assert.Equal(t, tc.finalized, tc.s.Finalized(), i)
		assert.True(t, tc.s.Satisfies(CommitmentProcessed), i)
		assert.Equal(t, tc.confirmed, tc.s.Satisfies(CommitmentConfirmed), i)
		assert.Equal(t, tc.finalized, tc.s.Satisfies(CommitmentFinalized), i)
	}
}

func TestCommitmentFromString(t *testing.T) {
	for _, c := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		actual, err := CommitmentFromString(c.Commitment)
		require.NoError(t, err)
		assert.Equal(t, c, actual)
	}

	_, err := CommitmentFromString("max")
	assert.Error(t, err)
}

// rpcServer serves canned JSON-RPC results keyed by method name.
type rpcServer struct {
	sync.Mutex
	results map[string]interface{}
	calls   map[string][]json.RawMessage
}

func newTestServer(t *testing.T, results map[string]interface{}) (*rpcServer, Client) {
	s := &rpcServer{
		results: results,
		calls:   make(map[string][]json.RawMessage),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			ID     int             `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		s.Lock()
		s.calls[req.Method] = append(s.calls[req.Method], req.Params)
		result, ok := s.results[req.Method]
		s.Unlock()

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	return s, New(srv.URL)
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, c := newTestServer(t, map[string]interface{}{
		"getAccountInfo": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"lamports":   2039280,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
				"executable": false,
			},
		},
	})

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, owner, info.Owner)
	assert.EqualValues(t, 2039280, info.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)
}

func TestClient_GetAccountInfo_NotFound(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, c := newTestServer(t, map[string]interface{}{
		"getAccountInfo": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   nil,
		},
	})

	_, err = c.GetAccountInfo(account, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetLatestBlockhash_Cached(t *testing.T) {
	var expected Blockhash
	expected[0] = 7

	s, c := newTestServer(t, map[string]interface{}{
		"getLatestBlockhash": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"blockhash":            base58.Encode(expected[:]),
				"lastValidBlockHeight": 100,
			},
		},
	})

	for i := 0; i < 3; i++ {
		actual, err := c.GetLatestBlockhash()
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	s.Lock()
	defer s.Unlock()
	assert.Len(t, s.calls["getLatestBlockhash"], 1)
}

func TestClient_SimulateTransaction(t *testing.T) {
	_, c := newTestServer(t, map[string]interface{}{
		"simulateTransaction": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"err":           map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}}},
				"logs":          []string{"Program log: AnchorError occurred"},
				"unitsConsumed": 1400,
			},
		},
	})

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	txn := NewTransaction(pub, NewInstruction(pub, []byte{1}, NewAccountMeta(pub, true)))
	require.NoError(t, txn.Sign(priv))

	result, err := c.SimulateTransaction(txn, CommitmentConfirmed)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	code, index, ok := result.Err.CustomErrorCode()
	assert.True(t, ok)
	assert.EqualValues(t, 6001, code)
	assert.Equal(t, 0, index)
	assert.Equal(t, []string{"Program log: AnchorError occurred"}, result.Logs)
	assert.EqualValues(t, 1400, result.UnitsConsumed)
}

func TestPollSignatureStatus(t *testing.T) {
	_, c := newTestServer(t, map[string]interface{}{
		"getSignatureStatuses": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               5,
					"confirmations":      3,
					"confirmationStatus": "confirmed",
					"err":                nil,
				},
			},
		},
	})

	status, err := PollSignatureStatus(context.Background(), c, Signature{1}, CommitmentConfirmed, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, status.Slot)
	assert.Nil(t, status.ErrorResult)
}

func TestPollSignatureStatus_Failed(t *testing.T) {
	_, c := newTestServer(t, map[string]interface{}{
		"getSignatureStatuses": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               5,
					"confirmations":      nil,
					"confirmationStatus": "finalized",
					"err":                map[string]interface{}{"InstructionError": []interface{}{3, map[string]interface{}{"Custom": 6001}}},
				},
			},
		},
	})

	status, err := PollSignatureStatus(context.Background(), c, Signature{1}, CommitmentConfirmed, 3)
	require.Error(t, err)
	require.NotNil(t, status)

	txErr, ok := err.(*TransactionError)
	require.True(t, ok)
	assert.Equal(t, TransactionErrorInstructionError, txErr.ErrorKey())
}

func TestPollSignatureStatus_ContextCancelled(t *testing.T) {
	_, c := newTestServer(t, map[string]interface{}{
		"getSignatureStatuses": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   []interface{}{nil},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PollSignatureStatus(ctx, c, Signature{1}, CommitmentConfirmed, 100)
	assert.True(t, IsConfirmationTimeout(err))
}
