package payment

import (
	"context"
	"errors"
	"math/big"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNotSupported          = errors.New("not supported by this payment mode")
)

// Service moves the settlement token between accounts. Every transfer returns a reference of the
// movement (ledger id or transaction hash).
type Service interface {
	// Transfer moves tokens held by from, which must be an account controlled by the service.
	Transfer(ctx context.Context, from, to string, amount *big.Int) (string, error)

	// TransferFrom moves tokens of owner to `to`, spending the allowance owner has given to the
	// escrow account.
	TransferFrom(ctx context.Context, owner, to string, amount *big.Int) (string, error)

	BalanceOf(ctx context.Context, address string) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)

	// Approve and Mint are only available for the database ledger.
	Approve(ctx context.Context, owner, spender string, amount *big.Int) error
	Mint(ctx context.Context, address string, amount *big.Int) error
}
