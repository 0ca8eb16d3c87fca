package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RandomnessRepository interface {
	Create(ctx context.Context, req *entity.RandomnessRequest) error
	Get(ctx context.Context, raffleID, nonce uint64) (*entity.RandomnessRequest, error)
	GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.RandomnessRequest, error)

	// UpdateStatus moves the request identified by raffle id and nonce to a new status, only if its
	// current status is one of from.
	UpdateStatus(
		ctx context.Context,
		raffleID, nonce uint64,
		from []entity.RandomnessRequestStatus,
		to entity.RandomnessRequestStatus,
		fields map[string]any,
	) error
	MarkFulfilled(ctx context.Context, raffleID, nonce uint64, randomValue string, at time.Time) error
}

type randomnessRepository struct{}

func NewRandomnessRepository() *randomnessRepository {
	return &randomnessRepository{}
}

func (r *randomnessRepository) Create(ctx context.Context, req *entity.RandomnessRequest) error {
	return xcontext.DB(ctx).Create(req).Error
}

func (r *randomnessRepository) Get(ctx context.Context, raffleID, nonce uint64) (*entity.RandomnessRequest, error) {
	var result entity.RandomnessRequest
	err := xcontext.DB(ctx).Take(&result, "raffle_id=? AND nonce=?", raffleID, nonce).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *randomnessRepository) GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.RandomnessRequest, error) {
	var result []entity.RandomnessRequest
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("nonce ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *randomnessRepository) UpdateStatus(
	ctx context.Context,
	raffleID, nonce uint64,
	from []entity.RandomnessRequestStatus,
	to entity.RandomnessRequestStatus,
	fields map[string]any,
) error {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	tx := xcontext.DB(ctx).Model(&entity.RandomnessRequest{}).
		Where("raffle_id=? AND nonce=? AND status IN (?)", raffleID, nonce, from).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *randomnessRepository) MarkFulfilled(
	ctx context.Context, raffleID, nonce uint64, randomValue string, at time.Time,
) error {
	return r.UpdateStatus(ctx, raffleID, nonce,
		[]entity.RandomnessRequestStatus{
			entity.RandomnessPending,
			entity.RandomnessDispatched,
			entity.RandomnessFailed,
		},
		entity.RandomnessFulfilled,
		map[string]any{
			"random_value": randomValue,
			"fulfilled_at": sql.NullTime{Valid: true, Time: at},
		},
	)
}
