package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type SettlementRepository interface {
	Create(ctx context.Context, settlement *entity.Settlement) error
	GetByRaffleID(ctx context.Context, raffleID uint64) (*entity.Settlement, error)
}

type settlementRepository struct{}

func NewSettlementRepository() *settlementRepository {
	return &settlementRepository{}
}

func (r *settlementRepository) Create(ctx context.Context, settlement *entity.Settlement) error {
	return xcontext.DB(ctx).Create(settlement).Error
}

func (r *settlementRepository) GetByRaffleID(ctx context.Context, raffleID uint64) (*entity.Settlement, error) {
	var result entity.Settlement
	if err := xcontext.DB(ctx).Take(&result, "raffle_id=?", raffleID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
