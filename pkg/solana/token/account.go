package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/binary"
)

// ErrInvalidTokenAccount indicates that a Solana account exists at the given
// address, but it is either not initialized, or not configured correctly.
var ErrInvalidTokenAccount = errors.New("invalid token account")

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// COption<T> tag width in the packed layout
const optionSize = 4

// Account is the packed SPL token account.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64

	Delegate        ed25519.PublicKey
	DelegatedAmount uint64

	State AccountState

	// Rent exempt reserve, set only on wrapped SOL accounts
	IsNative *uint64

	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b[offset:], a.Owner, &offset)
	binary.PutUint64(b[offset:], a.Amount, &offset)
	binary.PutOptionalKey32(b[offset:], a.Delegate, &offset, optionSize)
	binary.PutUint8(b[offset:], uint8(a.State), &offset)
	binary.PutOptionalUint64(b[offset:], a.IsNative, &offset, optionSize)
	binary.PutUint64(b[offset:], a.DelegatedAmount, &offset)
	binary.PutOptionalKey32(b[offset:], a.CloseAuthority, &offset, optionSize)

	return b
}

func (a *Account) Unmarshal(b []byte) error {
	if len(b) != AccountSize {
		return errors.Wrapf(ErrInvalidTokenAccount, "unexpected data size %d", len(b))
	}

	*a = Account{}

	var state uint8
	var offset int
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b[offset:], &a.Owner, &offset)
	binary.GetUint64(b[offset:], &a.Amount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.Delegate, &offset, optionSize)
	binary.GetUint8(b[offset:], &state, &offset)
	binary.GetOptionalUint64(b[offset:], &a.IsNative, &offset, optionSize)
	binary.GetUint64(b[offset:], &a.DelegatedAmount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.CloseAuthority, &offset, optionSize)

	if state > uint8(AccountStateFrozen) {
		return errors.Wrapf(ErrInvalidTokenAccount, "unknown state %d", state)
	}
	a.State = AccountState(state)

	return nil
}

// IsWrappedNative reports whether the account holds wrapped SOL.
func (a *Account) IsWrappedNative() bool {
	return a.IsNative != nil
}

// ParseAccount decodes info as an initialized token account, optionally
// checking its mint.
func ParseAccount(info solana.AccountInfo, mint ed25519.PublicKey) (*Account, error) {
	if !bytes.Equal(info.Owner, ProgramKey) {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "not owned by the token program")
	}

	var account Account
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, err
	}

	if account.State == AccountStateUninitialized {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "uninitialized")
	}

	if len(mint) > 0 && !bytes.Equal(mint, account.Mint) {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "mint mismatch")
	}

	return &account, nil
}
