package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type RaffleEventRepository interface {
	Create(ctx context.Context, event *entity.RaffleEvent) error
	GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.RaffleEvent, error)
}

type raffleEventRepository struct{}

func NewRaffleEventRepository() *raffleEventRepository {
	return &raffleEventRepository{}
}

func (r *raffleEventRepository) Create(ctx context.Context, event *entity.RaffleEvent) error {
	return xcontext.DB(ctx).Create(event).Error
}

func (r *raffleEventRepository) GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.RaffleEvent, error) {
	var result []entity.RaffleEvent
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("created_at ASC, id ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
