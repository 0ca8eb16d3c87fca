package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type ParticipantRepository interface {
	Get(ctx context.Context, raffleID uint64, address string) (*entity.Participant, error)
	GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.Participant, error)
	GetByAddress(ctx context.Context, address string) ([]entity.Participant, error)
	AddTickets(ctx context.Context, raffleID uint64, address string, count int64, sequence int64) error
	SumTickets(ctx context.Context, raffleID uint64) (int64, error)

	CreatePurchase(ctx context.Context, purchase *entity.TicketPurchase) error
	GetPurchasesByRaffleID(ctx context.Context, raffleID uint64) ([]entity.TicketPurchase, error)
}

type participantRepository struct{}

func NewParticipantRepository() *participantRepository {
	return &participantRepository{}
}

func (r *participantRepository) Get(ctx context.Context, raffleID uint64, address string) (*entity.Participant, error) {
	var result entity.Participant
	err := xcontext.DB(ctx).Take(&result, "raffle_id=? AND address=?", raffleID, address).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByRaffleID returns participants in the order of their first purchase. This order defines
// the ticket ranges used to resolve the winner.
func (r *participantRepository) GetByRaffleID(ctx context.Context, raffleID uint64) ([]entity.Participant, error) {
	var result []entity.Participant
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).
		Order("first_purchase_seq ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *participantRepository) GetByAddress(ctx context.Context, address string) ([]entity.Participant, error) {
	var result []entity.Participant
	err := xcontext.DB(ctx).Where("address=?", address).Order("raffle_id ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *participantRepository) AddTickets(
	ctx context.Context, raffleID uint64, address string, count int64, sequence int64,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Participant{}).
		Where("raffle_id=? AND address=?", raffleID, address).
		Update("ticket_count", gorm.Expr("ticket_count+?", count))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(&entity.Participant{
		RaffleID:         raffleID,
		Address:          address,
		TicketCount:      count,
		FirstPurchaseSeq: sequence,
	}).Error
}

func (r *participantRepository) SumTickets(ctx context.Context, raffleID uint64) (int64, error) {
	var sum int64
	err := xcontext.DB(ctx).Model(&entity.Participant{}).
		Select("COALESCE(SUM(ticket_count), 0)").
		Where("raffle_id=?", raffleID).Scan(&sum).Error
	if err != nil {
		return 0, err
	}

	return sum, nil
}

func (r *participantRepository) CreatePurchase(ctx context.Context, purchase *entity.TicketPurchase) error {
	return xcontext.DB(ctx).Create(purchase).Error
}

func (r *participantRepository) GetPurchasesByRaffleID(
	ctx context.Context, raffleID uint64,
) ([]entity.TicketPurchase, error) {
	var result []entity.TicketPurchase
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("sequence ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
