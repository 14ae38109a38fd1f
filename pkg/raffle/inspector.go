package raffle

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/craffles/pkg/cache"
	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/accountcompression"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
	"github.com/code-payments/craffles/pkg/solana/craffles"
	"github.com/code-payments/craffles/pkg/solana/token"
)

type LookupResult uint8

const (
	LookupNotFound LookupResult = iota
	LookupFound
)

func (r LookupResult) String() string {
	switch r {
	case LookupFound:
		return "found"
	default:
		return "not_found"
	}
}

// AccountState is the outcome of a lookup that reached the RPC node. Info is
// only set when Result is LookupFound.
type AccountState struct {
	Address ed25519.PublicKey
	Result  LookupResult
	Info    solana.AccountInfo
}

func (s *AccountState) Exists() bool {
	return s.Result == LookupFound
}

// RaffleListing is a raffle account found by a program account scan.
type RaffleListing struct {
	Address ed25519.PublicKey
	Raffle  *craffles.RaffleAccount
}

// rentCacheSize bounds the number of account sizes with a cached
// rent-exempt balance
const rentCacheSize = 64

// Inspector reads and decodes the on-chain accounts the workflows depend on.
// A failed query is never reported as a missing account.
type Inspector struct {
	log        *logrus.Entry
	sc         solana.Client
	commitment solana.Commitment
	rent       cache.Cache[uint64, uint64]
}

func NewInspector(sc solana.Client, commitment solana.Commitment) *Inspector {
	return &Inspector{
		log:        logrus.StandardLogger().WithField("type", "raffle/inspector"),
		sc:         sc,
		commitment: commitment,
		rent:       cache.New[uint64, uint64](rentCacheSize),
	}
}

// Lookup fetches the account at address.
func (i *Inspector) Lookup(ctx context.Context, address ed25519.PublicKey) (*AccountState, error) {
	if err := checkContext(ctx, address); err != nil {
		return nil, err
	}

	info, err := i.sc.GetAccountInfo(address, i.commitment)
	if err == solana.ErrNoAccountInfo {
		return &AccountState{
			Address: address,
			Result:  LookupNotFound,
		}, nil
	} else if err != nil {
		i.log.WithError(err).WithField("address", base58.Encode(address)).Debug("account lookup failed")
		return nil, &InspectionError{
			Kind:    InspectionFailureQuery,
			Step:    StepLookupAccount,
			Address: address,
			Err:     err,
		}
	}

	return &AccountState{
		Address: address,
		Result:  LookupFound,
		Info:    info,
	}, nil
}

// Exists returns whether an account lives at address.
func (i *Inspector) Exists(ctx context.Context, address ed25519.PublicKey) (bool, error) {
	state, err := i.Lookup(ctx, address)
	if err != nil {
		return false, err
	}
	return state.Exists(), nil
}

// GetRaffle reads the raffle record at address. ErrAccountNotFound is
// returned when nothing lives there.
func (i *Inspector) GetRaffle(ctx context.Context, address ed25519.PublicKey) (*craffles.RaffleAccount, error) {
	info, err := i.lookupOwned(ctx, address, craffles.PROGRAM_ID)
	if err != nil {
		return nil, err
	}

	var raffle craffles.RaffleAccount
	if err := raffle.Unmarshal(info.Data); err != nil {
		return nil, invalidData(address, err)
	}
	return &raffle, nil
}

// GetTokenAccount reads the token account at address, checking its mint when
// one is provided. An account that exists but is not a valid token account
// is an InspectionError, not ErrAccountNotFound.
func (i *Inspector) GetTokenAccount(ctx context.Context, address, mint ed25519.PublicKey) (*token.Account, error) {
	info, err := i.lookupOwned(ctx, address, token.ProgramKey)
	if err != nil {
		return nil, err
	}

	account, err := token.ParseAccount(*info, mint)
	if err != nil {
		return nil, invalidData(address, err)
	}
	return account, nil
}

// GetTreeConfig reads the bubblegum tree config at the tree authority.
func (i *Inspector) GetTreeConfig(ctx context.Context, treeAuthority ed25519.PublicKey) (*bubblegum.TreeConfigAccount, error) {
	info, err := i.lookupOwned(ctx, treeAuthority, bubblegum.PROGRAM_ID)
	if err != nil {
		return nil, err
	}

	var treeConfig bubblegum.TreeConfigAccount
	if err := treeConfig.Unmarshal(info.Data); err != nil {
		return nil, invalidData(treeAuthority, err)
	}
	return &treeConfig, nil
}

// GetTreeHeader reads the header of an initialized concurrent merkle tree.
func (i *Inspector) GetTreeHeader(ctx context.Context, tree ed25519.PublicKey) (*accountcompression.ConcurrentMerkleTreeAccount, error) {
	info, err := i.lookupOwned(ctx, tree, accountcompression.PROGRAM_ID)
	if err != nil {
		return nil, err
	}

	var header accountcompression.ConcurrentMerkleTreeAccount
	if err := header.Unmarshal(info.Data); err != nil {
		return nil, invalidData(tree, err)
	}
	return &header, nil
}

// GetRentExemptBalance returns the lamports required for an account of size
// bytes to be rent exempt. Balances are cached per size for the lifetime of
// the inspector.
func (i *Inspector) GetRentExemptBalance(ctx context.Context, size uint64) (uint64, error) {
	if err := checkContext(ctx, nil); err != nil {
		return 0, err
	}

	if cached, ok := i.rent.Retrieve(size); ok {
		return cached, nil
	}

	lamports, err := i.sc.GetMinimumBalanceForRentExemption(size)
	if err != nil {
		return 0, &InspectionError{
			Kind: InspectionFailureQuery,
			Step: StepGetRent,
			Err:  err,
		}
	}

	i.rent.Insert(size, lamports, 1)
	return lamports, nil
}

// ListRaffles scans the raffle program for raffles created by creator.
// Accounts that fail to decode are skipped.
func (i *Inspector) ListRaffles(ctx context.Context, creator ed25519.PublicKey) ([]*RaffleListing, error) {
	log := i.log.WithFields(logrus.Fields{
		"method":  "ListRaffles",
		"creator": base58.Encode(creator),
	})

	if err := checkContext(ctx, creator); err != nil {
		return nil, err
	}

	accounts, err := i.sc.GetProgramAccounts(
		craffles.PROGRAM_ID,
		i.commitment,
		solana.DataSizeFilter(craffles.RaffleAccountSize),
		solana.BytesFilter(craffles.RaffleAccountCreatorOffset, creator),
	)
	if err != nil {
		return nil, &InspectionError{
			Kind:    InspectionFailureQuery,
			Step:    StepListAccounts,
			Address: craffles.PROGRAM_ID,
			Err:     err,
		}
	}

	listings := make([]*RaffleListing, 0, len(accounts))
	for _, account := range accounts {
		var raffle craffles.RaffleAccount
		if err := raffle.Unmarshal(account.Account.Data); err != nil {
			log.WithError(err).WithField("raffle", base58.Encode(account.PublicKey)).Debug("skipping undecodable raffle account")
			continue
		}

		listings = append(listings, &RaffleListing{
			Address: account.PublicKey,
			Raffle:  &raffle,
		})
	}
	return listings, nil
}

func (i *Inspector) lookupOwned(ctx context.Context, address, owner ed25519.PublicKey) (*solana.AccountInfo, error) {
	state, err := i.Lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	if !state.Exists() {
		return nil, errors.Wrap(ErrAccountNotFound, base58.Encode(address))
	}

	if !bytes.Equal(state.Info.Owner, owner) {
		return nil, invalidData(address, errors.Errorf("owned by %s, expected %s", base58.Encode(state.Info.Owner), base58.Encode(owner)))
	}

	return &state.Info, nil
}

func invalidData(address ed25519.PublicKey, err error) error {
	return &InspectionError{
		Kind:    InspectionFailureInvalidData,
		Step:    StepDecodeAccount,
		Address: address,
		Err:     err,
	}
}

// checkContext reports a cancelled or expired context as a query failure
// against address.
func checkContext(ctx context.Context, address ed25519.PublicKey) error {
	if err := ctx.Err(); err != nil {
		return &InspectionError{
			Kind:    InspectionFailureQuery,
			Step:    StepCheckContext,
			Address: address,
			Err:     err,
		}
	}
	return nil
}
