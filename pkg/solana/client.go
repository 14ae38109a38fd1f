package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	"golang.org/x/time/rate"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602

	// DefaultRequestsPerSecond is the request budget of a client created
	// without explicit options. Public RPC endpoints allow roughly this much.
	DefaultRequestsPerSecond = 10
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromString parses a commitment level name.
func CommitmentFromString(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment level %q", s)
	}
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// ProgramAccount is an account returned by a program account scan.
type ProgramAccount struct {
	PublicKey ed25519.PublicKey
	Account   AccountInfo
}

// ProgramAccountFilter narrows a program account scan. Exactly one of
// DataSize or Memcmp is expected to be set.
type ProgramAccountFilter struct {
	DataSize *uint64
	Memcmp   *MemcmpFilter
}

type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// DataSizeFilter matches accounts with exactly size bytes of data.
func DataSizeFilter(size uint64) ProgramAccountFilter {
	return ProgramAccountFilter{DataSize: &size}
}

// BytesFilter matches accounts containing value at offset.
func BytesFilter(offset uint64, value []byte) ProgramAccountFilter {
	return ProgramAccountFilter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: value}}
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return s.Confirmations != nil && *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Satisfies returns whether the status has reached the desired commitment.
func (s SignatureStatus) Satisfies(commitment Commitment) bool {
	switch commitment {
	case CommitmentFinalized:
		return s.Finalized()
	case CommitmentConfirmed:
		return s.Confirmed()
	default:
		return true
	}
}

// SimulationResult is the outcome of a simulateTransaction call.
type SimulationResult struct {
	Err           *TransactionError
	Logs          []string
	UnitsConsumed uint64
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetProgramAccounts(program ed25519.PublicKey, commitment Commitment, filters ...ProgramAccountFilter) ([]ProgramAccount, error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SimulateTransaction(Transaction, Commitment) (*SimulationResult, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	limiter *rate.Limiter

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil, DefaultRequestsPerSecond)
}

// NewWithRPCOptions returns a client configured with the specified RPC
// options. Outgoing requests are limited to requestsPerSecond, with a burst
// of the same size.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts, requestsPerSecond int) Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}

	return &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		client:  jsonrpc.NewClientWithOpts(endpoint, opts),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// maxCallRetries bounds the retries of a request that was rate limited or
// hit an unhealthy node
const maxCallRetries = 3

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return backoff.Permanent(err)
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		err = c.handleRpcError(method, err)
		if err != errRateLimited && err != errServiceError {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithMaxRetries(b, maxCallRetries))
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		c.log.WithField("method", method).WithError(err).Warn("rpc service error")
		return errServiceError
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetLatestBlockhash() (hash Blockhash, err error) {
	// Refresh on a randomized window so that concurrent callers don't all
	// hit the RPC node at the same moment.
	window := time.Duration(float64(2*time.Second) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash", []interface{}{CommitmentFinalized}); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length: %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp rpcResponse
	if err := c.call(&resp, "getBalance", base58.Encode(account[:]), CommitmentProcessed); err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if ok && jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

func (c *client) SimulateTransaction(txn Transaction, commitment Commitment) (*SimulationResult, error) {
	config := struct {
		Encoding   string `json:"encoding"`
		Commitment string `json:"commitment"`
		SigVerify  bool   `json:"sigVerify"`
	}{
		Encoding:   "base64",
		Commitment: commitment.Commitment,
		SigVerify:  true,
	}

	var resp struct {
		Value struct {
			Err           interface{} `json:"err"`
			Logs          []string    `json:"logs"`
			UnitsConsumed uint64      `json:"unitsConsumed"`
		} `json:"value"`
	}
	if err := c.call(&resp, "simulateTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config); err != nil {
		return nil, errors.Wrap(err, "simulateTransaction() failed to send request")
	}

	txErr, err := ParseTransactionError(resp.Value.Err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse simulation error")
	}

	return &SimulationResult{
		Err:           txErr,
		Logs:          resp.Value.Logs,
		UnitsConsumed: resp.Value.UnitsConsumed,
	}, nil
}

// SubmitTransaction sends a signed transaction with preflight checks
// disabled. Callers wanting preflight should use SimulateTransaction first.
func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signature()

	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       true,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.call(&sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err == nil {
		return sig, nil
	}

	jsonRPCErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
	}

	txResult, parseErr := ParseRPCError(jsonRPCErr)
	if parseErr != nil || txResult == nil {
		return sig, err
	}

	return sig, txResult
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data in response")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetProgramAccounts(program ed25519.PublicKey, commitment Commitment, filters ...ProgramAccountFilter) ([]ProgramAccount, error) {
	type memcmp struct {
		Offset uint64 `json:"offset"`
		Bytes  string `json:"bytes"`
	}

	type filter struct {
		DataSize *uint64 `json:"dataSize,omitempty"`
		Memcmp   *memcmp `json:"memcmp,omitempty"`
	}

	rpcFilters := make([]filter, len(filters))
	for i, f := range filters {
		rpcFilters[i].DataSize = f.DataSize
		if f.Memcmp != nil {
			rpcFilters[i].Memcmp = &memcmp{
				Offset: f.Memcmp.Offset,
				Bytes:  base58.Encode(f.Memcmp.Bytes),
			}
		}
	}

	config := struct {
		Commitment string   `json:"commitment"`
		Encoding   string   `json:"encoding"`
		Filters    []filter `json:"filters,omitempty"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
		Filters:    rpcFilters,
	}

	var resp []struct {
		PubKey  string `json:"pubkey"`
		Account struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"account"`
	}
	if err := c.call(&resp, "getProgramAccounts", base58.Encode(program), config); err != nil {
		return nil, errors.Wrap(err, "getProgramAccounts() failed to send request")
	}

	res := make([]ProgramAccount, 0, len(resp))
	for _, raw := range resp {
		pub, err := base58.Decode(raw.PubKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 encoded account")
		}

		owner, err := base58.Decode(raw.Account.Owner)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 encoded owner")
		}

		var data []byte
		if len(raw.Account.Data) > 0 {
			data, err = base64.StdEncoding.DecodeString(raw.Account.Data[0])
			if err != nil {
				return nil, errors.Wrap(err, "invalid base64 encoded data")
			}
		}

		res = append(res, ProgramAccount{
			PublicKey: pub,
			Account: AccountInfo{
				Data:       data,
				Owner:      owner,
				Lamports:   raw.Account.Lamports,
				Executable: raw.Account.Executable,
			},
		})
	}

	return res, nil
}

func (c *client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sigStr string
	if err := c.call(&sigStr, "requestAirdrop", base58.Encode(account[:]), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	sigBytes, err := base58.Decode(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	var sig Signature
	copy(sig[:], sigBytes)

	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

// GetSignatureStatus polls until the signature reaches the requested
// commitment, the transaction fails, or the poll limit is exhausted.
func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	return PollSignatureStatus(context.Background(), c, sig, commitment, sigStatusPollLimit)
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(&resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}

		if len(v.Err) > 0 && !bytes.Equal(v.Err, []byte("null")) {
			var txError interface{}
			d := json.NewDecoder(bytes.NewBuffer(v.Err))
			d.UseNumber()
			if err := d.Decode(&txError); err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			parsed, err := ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
			statuses[i].ErrorResult = parsed
		}
	}

	return statuses, nil
}

var errConfirmationsNotReached = errors.New("confirmations not reached")

// PollSignatureStatus polls the client until sig reaches commitment. A
// transaction that landed with an error is returned as its *TransactionError
// alongside the status. Polling stops early when ctx is done.
func PollSignatureStatus(ctx context.Context, c Client, sig Signature, commitment Commitment, maxAttempts uint) (*SignatureStatus, error) {
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	var s *SignatureStatus
	var pending error
	err := backoff.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return backoff.Permanent(err)
			}

			if len(statuses) == 0 || statuses[0] == nil {
				pending = ErrSignatureNotFound
				return pending
			}

			s = statuses[0]
			if s.ErrorResult != nil {
				return backoff.Permanent(s.ErrorResult)
			}

			if s.Satisfies(commitment) {
				return nil
			}

			pending = errConfirmationsNotReached
			return pending
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(PollRate), uint64(maxAttempts-1)),
			ctx,
		),
	)

	if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr && pending != nil {
		return s, errors.Wrap(pending, ctxErr.Error())
	}
	if err == errConfirmationsNotReached && s != nil {
		return s, errors.Wrapf(err, "status %s after %d polls", s.ConfirmationStatus, maxAttempts)
	}

	return s, err
}

// IsConfirmationTimeout returns whether err came from a poll that stopped
// before the signature reached the requested commitment.
func IsConfirmationTimeout(err error) bool {
	return errors.Is(err, ErrSignatureNotFound) || errors.Is(err, errConfirmationsNotReached)
}
