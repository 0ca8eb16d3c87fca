package payment

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

// ledgerService keeps balances and allowances in the database. Every operation joins the
// transaction of the context if there is one, so a token movement commits or rolls back together
// with the raffle state change it pays for.
type ledgerService struct {
	escrow    string
	tokenRepo repository.TokenRepository
}

func NewLedgerService(escrow string, tokenRepo repository.TokenRepository) *ledgerService {
	return &ledgerService{escrow: escrow, tokenRepo: tokenRepo}
}

func (s *ledgerService) Transfer(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() < 0 {
		return "", ErrInvalidAmount
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := s.move(ctx, from, to, amount); err != nil {
		return "", err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return "", err
	}

	return s.newRef(), nil
}

func (s *ledgerService) TransferFrom(ctx context.Context, owner, to string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() < 0 {
		return "", ErrInvalidAmount
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	allowance, err := s.tokenRepo.GetAllowance(ctx, owner, s.escrow)
	if err != nil {
		return "", err
	}

	if allowance.Int().Cmp(amount) < 0 {
		return "", ErrInsufficientAllowance
	}

	remaining := new(big.Int).Sub(allowance.Int(), amount)
	if err := s.tokenRepo.CompareAndSetAllowance(
		ctx, owner, s.escrow, allowance, entity.NewBigInt(remaining)); err != nil {
		return "", fmt.Errorf("cannot spend allowance: %w", err)
	}

	if err := s.move(ctx, owner, to, amount); err != nil {
		return "", err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return "", err
	}

	return s.newRef(), nil
}

func (s *ledgerService) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	balance, err := s.tokenRepo.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	return balance.Int(), nil
}

func (s *ledgerService) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	allowance, err := s.tokenRepo.GetAllowance(ctx, owner, spender)
	if err != nil {
		return nil, err
	}

	return allowance.Int(), nil
}

func (s *ledgerService) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	current, err := s.tokenRepo.GetAllowance(ctx, owner, spender)
	if err != nil {
		return err
	}

	if current.Int().Cmp(amount) == 0 {
		return nil
	}

	if err := s.tokenRepo.CompareAndSetAllowance(ctx, owner, spender, current, entity.NewBigInt(amount)); err != nil {
		return err
	}

	_, err = xcontext.WithCommitDBTransaction(ctx)
	return err
}

func (s *ledgerService) Mint(ctx context.Context, address string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	balance, err := s.tokenRepo.GetBalance(ctx, address)
	if err != nil {
		return err
	}

	newBalance := new(big.Int).Add(balance.Int(), amount)
	if err := s.tokenRepo.CompareAndSetBalance(ctx, address, balance, entity.NewBigInt(newBalance)); err != nil {
		return err
	}

	_, err = xcontext.WithCommitDBTransaction(ctx)
	return err
}

func (s *ledgerService) move(ctx context.Context, from, to string, amount *big.Int) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}

	fromBalance, err := s.tokenRepo.GetBalance(ctx, from)
	if err != nil {
		return err
	}

	if fromBalance.Int().Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	newFrom := new(big.Int).Sub(fromBalance.Int(), amount)
	if err := s.tokenRepo.CompareAndSetBalance(ctx, from, fromBalance, entity.NewBigInt(newFrom)); err != nil {
		return fmt.Errorf("cannot debit %s: %w", from, err)
	}

	toBalance, err := s.tokenRepo.GetBalance(ctx, to)
	if err != nil {
		return err
	}

	newTo := new(big.Int).Add(toBalance.Int(), amount)
	if err := s.tokenRepo.CompareAndSetBalance(ctx, to, toBalance, entity.NewBigInt(newTo)); err != nil {
		return fmt.Errorf("cannot credit %s: %w", to, err)
	}

	return nil
}

func (s *ledgerService) newRef() string {
	return "ledger:" + uuid.NewString()
}
