package testutil

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// LamportsPerByte is the rent charged per allocated byte by SolanaClient
const LamportsPerByte = 6960

// SolanaClient is an in memory solana.Client. Transactions are recorded but
// never executed, so account state only changes through SetAccount.
type SolanaClient struct {
	mu sync.Mutex

	accounts        map[string]solana.AccountInfo
	accountErrors   map[string]error
	programAccounts []solana.ProgramAccount
	balances        map[string]uint64

	Blockhash    solana.Blockhash
	BlockhashErr error
	RentErr      error

	// SimulationErr is reported by simulations, SubmitErr by sends and
	// ExecutionErr by signature statuses
	SimulationErr *solana.TransactionError
	SubmitErr     error
	ExecutionErr  *solana.TransactionError
	StatusErr     error

	// ConfirmationStatus of submitted transactions, defaults to finalized
	ConfirmationStatus string

	Simulated []solana.Transaction
	Submitted []solana.Transaction
	Airdrops  map[string]uint64
}

func NewSolanaClient() *SolanaClient {
	return &SolanaClient{
		accounts:      make(map[string]solana.AccountInfo),
		accountErrors: make(map[string]error),
		balances:      make(map[string]uint64),
		Blockhash:     sha256.Sum256([]byte("blockhash")),
		Airdrops:      make(map[string]uint64),
	}
}

func (c *SolanaClient) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[base58.Encode(address)] = info
}

func (c *SolanaClient) SetAccountError(address ed25519.PublicKey, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accountErrors[base58.Encode(address)] = err
}

func (c *SolanaClient) SetProgramAccounts(accounts ...solana.ProgramAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.programAccounts = accounts
}

func (c *SolanaClient) SetBalance(address ed25519.PublicKey, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.balances[base58.Encode(address)] = lamports
}

func (c *SolanaClient) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := base58.Encode(address)
	if err, ok := c.accountErrors[key]; ok {
		return solana.AccountInfo{}, err
	}

	info, ok := c.accounts[key]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *SolanaClient) GetBalance(address ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[base58.Encode(address)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return balance, nil
}

func (c *SolanaClient) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Blockhash, c.BlockhashErr
}

func (c *SolanaClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.RentErr != nil {
		return 0, c.RentErr
	}
	return (size + 128) * LamportsPerByte, nil
}

func (c *SolanaClient) GetProgramAccounts(program ed25519.PublicKey, _ solana.Commitment, filters ...solana.ProgramAccountFilter) ([]solana.ProgramAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res []solana.ProgramAccount
	for _, account := range c.programAccounts {
		if !bytes.Equal(account.Account.Owner, program) {
			continue
		}

		matches := true
		for _, filter := range filters {
			if filter.DataSize != nil && uint64(len(account.Account.Data)) != *filter.DataSize {
				matches = false
			}
			if filter.Memcmp != nil {
				end := filter.Memcmp.Offset + uint64(len(filter.Memcmp.Bytes))
				if end > uint64(len(account.Account.Data)) || !bytes.Equal(account.Account.Data[filter.Memcmp.Offset:end], filter.Memcmp.Bytes) {
					matches = false
				}
			}
		}

		if matches {
			res = append(res, account)
		}
	}
	return res, nil
}

func (c *SolanaClient) GetSignatureStatus(sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses([]solana.Signature{sig})
	if err != nil {
		return nil, err
	}
	if statuses[0] == nil {
		return nil, solana.ErrSignatureNotFound
	}
	return statuses[0], nil
}

func (c *SolanaClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.StatusErr != nil {
		return nil, c.StatusErr
	}

	confirmationStatus := c.ConfirmationStatus
	if len(confirmationStatus) == 0 {
		confirmationStatus = "finalized"
	}

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		for _, txn := range c.Submitted {
			if txn.Signature() != sig {
				continue
			}

			statuses[i] = &solana.SignatureStatus{
				Slot:               100,
				ErrorResult:        c.ExecutionErr,
				ConfirmationStatus: confirmationStatus,
			}
			if confirmationStatus != "finalized" {
				confirmations := 1
				if confirmationStatus == "processed" {
					confirmations = 0
				}
				statuses[i].Confirmations = &confirmations
			}
		}
	}
	return statuses, nil
}

func (c *SolanaClient) RequestAirdrop(address ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := base58.Encode(address)
	c.Airdrops[key] += lamports
	c.balances[key] += lamports

	var sig solana.Signature
	copy(sig[:], address)
	return sig, nil
}

func (c *SolanaClient) SimulateTransaction(txn solana.Transaction, _ solana.Commitment) (*solana.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Simulated = append(c.Simulated, txn)
	return &solana.SimulationResult{
		Err:           c.SimulationErr,
		Logs:          []string{"Program log: simulated"},
		UnitsConsumed: 12345,
	}, nil
}

func (c *SolanaClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SubmitErr != nil {
		return txn.Signature(), c.SubmitErr
	}

	c.Submitted = append(c.Submitted, txn)
	return txn.Signature(), nil
}
