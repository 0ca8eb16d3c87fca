package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RaffleFilter struct {
	State  entity.RaffleState
	Offset int
	Limit  int
}

type RaffleRepository interface {
	Create(ctx context.Context, raffle *entity.Raffle) error
	GetByID(ctx context.Context, id uint64) (*entity.Raffle, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*entity.Raffle, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]entity.Raffle, error)
	GetList(ctx context.Context, filter RaffleFilter) ([]entity.Raffle, error)

	// AddTickets applies a purchase on top of the snapshot the caller has read. It fails with
	// gorm.ErrRecordNotFound if the raffle changed in the meantime or is no longer active.
	AddTickets(ctx context.Context, snapshot *entity.Raffle, count int64, amount entity.BigInt) error

	UpdateToFinished(ctx context.Context, id uint64, nonce uint64, requestedAt time.Time) error
	RenewEntropyRequest(ctx context.Context, id uint64, oldNonce, newNonce uint64, requestedAt time.Time) error
	UpdateToCompleted(ctx context.Context, id uint64, nonce uint64, winner string, winningIndex int64) error
	ClaimPrize(ctx context.Context, id uint64) error
}

type raffleRepository struct{}

func NewRaffleRepository() *raffleRepository {
	return &raffleRepository{}
}

func (r *raffleRepository) Create(ctx context.Context, raffle *entity.Raffle) error {
	return xcontext.DB(ctx).Create(raffle).Error
}

func (r *raffleRepository) GetByID(ctx context.Context, id uint64) (*entity.Raffle, error) {
	var result entity.Raffle
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByIDForUpdate reads the latest committed raffle and locks its row until the end of the
// transaction.
func (r *raffleRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*entity.Raffle, error) {
	var result entity.Raffle
	err := xcontext.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Take(&result, "id=?", id).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) GetByIDs(ctx context.Context, ids []uint64) ([]entity.Raffle, error) {
	var result []entity.Raffle
	if err := xcontext.DB(ctx).Order("id ASC").Find(&result, "id IN (?)", ids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) GetList(ctx context.Context, filter RaffleFilter) ([]entity.Raffle, error) {
	var result []entity.Raffle
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).Order("id ASC").
		Offset(filter.Offset).Limit(filter.Limit)
	if filter.State != "" {
		tx = tx.Where("state=?", filter.State)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) AddTickets(
	ctx context.Context, snapshot *entity.Raffle, count int64, amount entity.BigInt,
) error {
	prizePool := snapshot.PrizePool.Int()
	prizePool.Add(prizePool, amount.Int())

	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND state=? AND total_tickets=? AND purchase_count=?",
			snapshot.ID, entity.RaffleActive, snapshot.TotalTickets, snapshot.PurchaseCount).
		Updates(map[string]any{
			"total_tickets":  snapshot.TotalTickets + count,
			"purchase_count": snapshot.PurchaseCount + 1,
			"prize_pool":     entity.NewBigInt(prizePool),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) UpdateToFinished(
	ctx context.Context, id uint64, nonce uint64, requestedAt time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND state=? AND entropy_state=?", id, entity.RaffleActive, entity.EntropyNone).
		Updates(map[string]any{
			"state":                     entity.RaffleFinished,
			"entropy_state":             entity.EntropyRequested,
			"entropy_nonce":             nonce,
			"last_entropy_request_time": sql.NullTime{Valid: true, Time: requestedAt},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) RenewEntropyRequest(
	ctx context.Context, id uint64, oldNonce, newNonce uint64, requestedAt time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND state=? AND entropy_state=? AND entropy_nonce=?",
			id, entity.RaffleFinished, entity.EntropyRequested, oldNonce).
		Updates(map[string]any{
			"entropy_nonce":             newNonce,
			"last_entropy_request_time": sql.NullTime{Valid: true, Time: requestedAt},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) UpdateToCompleted(
	ctx context.Context, id uint64, nonce uint64, winner string, winningIndex int64,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND state=? AND entropy_state=? AND entropy_nonce=? AND winner=?",
			id, entity.RaffleFinished, entity.EntropyRequested, nonce, "").
		Updates(map[string]any{
			"state":         entity.RaffleCompleted,
			"entropy_state": entity.EntropyFulfilled,
			"winner":        winner,
			"winning_index": winningIndex,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) ClaimPrize(ctx context.Context, id uint64) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND state=? AND claimed=?", id, entity.RaffleCompleted, false).
		Updates(map[string]any{
			"claimed":    true,
			"prize_pool": entity.NewBigInt(nil),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
