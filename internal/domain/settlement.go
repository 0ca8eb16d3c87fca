package domain

import (
	"context"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/payment"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type SettlementDomain interface {
	ClaimPrize(context.Context, *model.ClaimPrizeRequest) (*model.ClaimPrizeResponse, error)
	GetSettlement(context.Context, *model.GetSettlementRequest) (*model.GetSettlementResponse, error)
}

type settlementDomain struct {
	raffleRepo     repository.RaffleRepository
	settlementRepo repository.SettlementRepository
	paymentService payment.Service
	roleVerifier   *common.RoleVerifier
	locker         *RaffleLocker
	recorder       *RaffleEventRecorder
}

func NewSettlementDomain(
	raffleRepo repository.RaffleRepository,
	settlementRepo repository.SettlementRepository,
	paymentService payment.Service,
	roleVerifier *common.RoleVerifier,
	locker *RaffleLocker,
	recorder *RaffleEventRecorder,
) *settlementDomain {
	return &settlementDomain{
		raffleRepo:     raffleRepo,
		settlementRepo: settlementRepo,
		paymentService: paymentService,
		roleVerifier:   roleVerifier,
		locker:         locker,
		recorder:       recorder,
	}
}

// splitPrize returns the platform fee and the winner payout of a prize pool.
func splitPrize(pool *big.Int, feePercent int64) (*big.Int, *big.Int) {
	fee := new(big.Int).Mul(pool, big.NewInt(feePercent))
	fee.Quo(fee, big.NewInt(100))
	return fee, new(big.Int).Sub(pool, fee)
}

func (d *settlementDomain) ClaimPrize(
	ctx context.Context, req *model.ClaimPrizeRequest,
) (*model.ClaimPrizeResponse, error) {
	caller := requestAddress(ctx)
	if caller == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Caller is unknown")
	}

	settlement, event, err := d.claimPrize(ctx, req.RaffleID, caller)
	if err != nil {
		return nil, err
	}

	common.PromCounters[common.PrizeClaimTotal].WithLabelValues(enum.ToString(settlement.Status)).Inc()
	d.recorder.Publish(ctx, event)

	return &model.ClaimPrizeResponse{
		Winner: settlement.Winner,
		Payout: settlement.Payout.String(),
		Fee:    settlement.Fee.String(),
		Status: enum.ToString(settlement.Status),
	}, nil
}

// claimPrize zeroes the pool, transfers the fee and then the payout in one transaction. Any failed
// transfer rolls the claim back and leaves the pool intact. The winner is never paid unless the fee
// leg has succeeded.
func (d *settlementDomain) claimPrize(
	ctx context.Context, raffleID uint64, caller string,
) (*entity.Settlement, *entity.RaffleEvent, error) {
	unlock := d.locker.Lock(raffleID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.raffleRepo.GetByID(ctx, raffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, nil, errorx.Unknown
	}

	if raffle.State != entity.RaffleCompleted {
		return nil, nil, errorx.New(errorx.InvalidState, "Raffle is not completed")
	}

	pool := raffle.PrizePool.Int()
	if raffle.Claimed || pool.Sign() == 0 {
		return nil, nil, errorx.New(errorx.AlreadyClaimed, "Prize was already claimed")
	}

	cfg := xcontext.Configs(ctx).Raffle
	if err := d.roleVerifier.Verify(ctx, raffle, common.ClaimRoles(cfg.ClaimPolicy)...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, nil, errorx.New(errorx.Unauthorized, "You are not allowed to claim this prize")
	}

	if err := d.raffleRepo.ClaimPrize(ctx, raffle.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.AlreadyClaimed, "Prize was already claimed")
		}

		xcontext.Logger(ctx).Errorf("Cannot claim prize: %v", err)
		return nil, nil, errorx.Unknown
	}

	fee, payout := splitPrize(pool, cfg.FeePercent)
	settlement := &entity.Settlement{
		Base:       entity.Base{ID: uuid.NewString()},
		RaffleID:   raffle.ID,
		Winner:     raffle.Winner,
		ClaimedBy:  caller,
		PrizePool:  entity.NewBigInt(pool),
		FeePercent: cfg.FeePercent,
		Fee:        entity.NewBigInt(fee),
		Payout:     entity.NewBigInt(payout),
		Status:     entity.SettlementPaid,
	}

	if fee.Sign() > 0 {
		settlement.FeeRef, err = d.paymentService.Transfer(ctx, cfg.EscrowAccount, cfg.PlatformAccount, fee)
		if err != nil {
			common.PromCounters[common.TransferFailureTotal].WithLabelValues("fee").Inc()
			xcontext.Logger(ctx).Warnf("Cannot transfer the fee of raffle %d: %v", raffle.ID, err)
			return nil, nil, errorx.New(errorx.TransferFailed, "Cannot transfer the fee")
		}
	}

	if payout.Sign() > 0 {
		settlement.PayoutRef, err = d.paymentService.Transfer(ctx, cfg.EscrowAccount, raffle.Winner, payout)
		if err != nil {
			common.PromCounters[common.TransferFailureTotal].WithLabelValues("payout").Inc()
			xcontext.Logger(ctx).Warnf("Cannot pay the winner of raffle %d: %v", raffle.ID, err)
			return nil, nil, errorx.New(errorx.TransferFailed, "Cannot transfer the prize")
		}
	}

	if err := d.settlementRepo.Create(ctx, settlement); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create settlement: %v", err)
		return nil, nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventPrizeClaimed, prizeClaimedEvent{
		Winner:    settlement.Winner,
		ClaimedBy: caller,
		Payout:    settlement.Payout.String(),
		Fee:       settlement.Fee.String(),
		Status:    enum.ToString(settlement.Status),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record prize claimed event: %v", err)
		return nil, nil, errorx.Unknown
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit prize claim: %v", err)
		return nil, nil, errorx.Unknown
	}

	return settlement, event, nil
}

func (d *settlementDomain) GetSettlement(
	ctx context.Context, req *model.GetSettlementRequest,
) (*model.GetSettlementResponse, error) {
	settlement, err := d.getSettlement(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	return &model.GetSettlementResponse{Settlement: model.ConvertSettlement(settlement)}, nil
}

func (d *settlementDomain) getSettlement(ctx context.Context, raffleID uint64) (*entity.Settlement, error) {
	settlement, err := d.settlementRepo.GetByRaffleID(ctx, raffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found settlement")
		}

		xcontext.Logger(ctx).Errorf("Cannot get settlement: %v", err)
		return nil, errorx.Unknown
	}

	return settlement, nil
}
