package repository

import (
	"context"
	"errors"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type TokenRepository interface {
	GetBalance(ctx context.Context, address string) (entity.BigInt, error)
	GetAllowance(ctx context.Context, owner, spender string) (entity.BigInt, error)

	// CompareAndSetBalance replaces the balance only if it is still old. A missing row counts as
	// a zero balance.
	CompareAndSetBalance(ctx context.Context, address string, old, new entity.BigInt) error
	CompareAndSetAllowance(ctx context.Context, owner, spender string, old, new entity.BigInt) error
}

type tokenRepository struct{}

func NewTokenRepository() *tokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) GetBalance(ctx context.Context, address string) (entity.BigInt, error) {
	var result entity.TokenBalance
	err := xcontext.DB(ctx).Take(&result, "address=?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.NewBigInt(nil), nil
	}

	if err != nil {
		return entity.BigInt{}, err
	}

	return result.Balance, nil
}

func (r *tokenRepository) GetAllowance(ctx context.Context, owner, spender string) (entity.BigInt, error) {
	var result entity.TokenAllowance
	err := xcontext.DB(ctx).Take(&result, "owner=? AND spender=?", owner, spender).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.NewBigInt(nil), nil
	}

	if err != nil {
		return entity.BigInt{}, err
	}

	return result.Amount, nil
}

func (r *tokenRepository) CompareAndSetBalance(
	ctx context.Context, address string, old, new entity.BigInt,
) error {
	tx := xcontext.DB(ctx).Model(&entity.TokenBalance{}).
		Where("address=? AND balance=?", address, old).
		Update("balance", new)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 0 {
		return nil
	}

	if old.Int().Sign() != 0 {
		return gorm.ErrRecordNotFound
	}

	// The account has never held tokens. A concurrent insert fails on the primary key.
	return xcontext.DB(ctx).Create(&entity.TokenBalance{Address: address, Balance: new}).Error
}

func (r *tokenRepository) CompareAndSetAllowance(
	ctx context.Context, owner, spender string, old, new entity.BigInt,
) error {
	tx := xcontext.DB(ctx).Model(&entity.TokenAllowance{}).
		Where("owner=? AND spender=? AND amount=?", owner, spender, old).
		Update("amount", new)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 0 {
		return nil
	}

	if old.Int().Sign() != 0 {
		return gorm.ErrRecordNotFound
	}

	return xcontext.DB(ctx).Create(&entity.TokenAllowance{Owner: owner, Spender: spender, Amount: new}).Error
}
