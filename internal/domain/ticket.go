package domain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/payment"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type TicketDomain interface {
	BuyTickets(context.Context, *model.BuyTicketsRequest) (*model.BuyTicketsResponse, error)
	GetTicketCount(context.Context, *model.GetTicketCountRequest) (*model.GetTicketCountResponse, error)
	GetPurchases(context.Context, *model.GetPurchasesRequest) (*model.GetPurchasesResponse, error)
}

// AfterCommit runs once the transaction which produced it is committed and the raffle lock is
// released.
type AfterCommit func(ctx context.Context)

// PurchaseObserver is notified after every accepted purchase, inside the purchase transaction and
// under the raffle lock. An error rolls the purchase back.
type PurchaseObserver interface {
	OnTicketsPurchased(ctx context.Context, raffle *entity.Raffle) (AfterCommit, error)
}

type ticketDomain struct {
	raffleRepo      repository.RaffleRepository
	participantRepo repository.ParticipantRepository
	paymentService  payment.Service
	locker          *RaffleLocker
	recorder        *RaffleEventRecorder
	observers       []PurchaseObserver
}

func NewTicketDomain(
	raffleRepo repository.RaffleRepository,
	participantRepo repository.ParticipantRepository,
	paymentService payment.Service,
	locker *RaffleLocker,
	recorder *RaffleEventRecorder,
) *ticketDomain {
	return &ticketDomain{
		raffleRepo:      raffleRepo,
		participantRepo: participantRepo,
		paymentService:  paymentService,
		locker:          locker,
		recorder:        recorder,
	}
}

func (d *ticketDomain) AddObserver(observer PurchaseObserver) {
	d.observers = append(d.observers, observer)
}

func (d *ticketDomain) BuyTickets(
	ctx context.Context, req *model.BuyTicketsRequest,
) (*model.BuyTicketsResponse, error) {
	buyer := requestAddress(ctx)
	if buyer == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Buyer is unknown")
	}

	if req.Count < 1 {
		return nil, errorx.New(errorx.InvalidInput, "Must buy at least one ticket")
	}

	maxPerPurchase := xcontext.Configs(ctx).Raffle.MaxTicketsPerPurchase
	if maxPerPurchase > 0 && req.Count > maxPerPurchase {
		return nil, errorx.New(errorx.InvalidInput, "Cannot buy more than %d tickets at once", maxPerPurchase)
	}

	resp, afters, events, err := d.buyTickets(ctx, buyer, req)
	if err != nil {
		return nil, err
	}

	common.PromCounters[common.TicketsSoldTotal].WithLabelValues().Add(float64(req.Count))
	d.recorder.Publish(ctx, events...)
	for _, after := range afters {
		after(ctx)
	}

	return resp, nil
}

func (d *ticketDomain) buyTickets(
	ctx context.Context, buyer string, req *model.BuyTicketsRequest,
) (*model.BuyTicketsResponse, []AfterCommit, []*entity.RaffleEvent, error) {
	unlock := d.locker.Lock(req.RaffleID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.raffleRepo.GetByID(ctx, req.RaffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	var amount *big.Int
	var purchase *entity.TicketPurchase

	// Another process may have sold tickets since the raffle was read. The raffle is read again
	// under a row lock and checked once more before giving up.
	for attempt := 0; ; attempt++ {
		if err := checkPurchasable(raffle, req.Count, time.Now()); err != nil {
			return nil, nil, nil, err
		}

		amount = new(big.Int).Mul(raffle.TicketPrice.Int(), big.NewInt(req.Count))
		purchase = &entity.TicketPurchase{
			Base:            entity.Base{ID: uuid.NewString()},
			RaffleID:        raffle.ID,
			Sequence:        raffle.PurchaseCount + 1,
			Buyer:           buyer,
			Count:           req.Count,
			StartIndex:      raffle.TotalTickets,
			Amount:          entity.NewBigInt(amount),
			SourceChain:     req.SourceChain,
			ExternalAddress: req.ExternalAddress,
		}

		err = d.raffleRepo.AddTickets(ctx, raffle, req.Count, purchase.Amount)
		if err == nil {
			break
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot add tickets to raffle: %v", err)
			return nil, nil, nil, errorx.Unknown
		}

		if attempt > 0 {
			return nil, nil, nil, errorx.New(errorx.InvalidState, "Raffle has changed, please try again")
		}

		raffle, err = d.raffleRepo.GetByIDForUpdate(ctx, req.RaffleID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reload raffle: %v", err)
			return nil, nil, nil, errorx.Unknown
		}
	}

	err = d.participantRepo.AddTickets(ctx, raffle.ID, buyer, req.Count, purchase.Sequence)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot add tickets to participant: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	if err := d.participantRepo.CreatePurchase(ctx, purchase); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create purchase: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	raffle.TotalTickets += req.Count
	raffle.PurchaseCount = purchase.Sequence
	raffle.PrizePool = entity.NewBigInt(new(big.Int).Add(raffle.PrizePool.Int(), amount))

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventTicketPurchased, ticketPurchasedEvent{
		Buyer:        buyer,
		Count:        req.Count,
		Sequence:     purchase.Sequence,
		StartIndex:   purchase.StartIndex,
		Amount:       purchase.Amount.String(),
		TotalTickets: raffle.TotalTickets,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record ticket purchased event: %v", err)
		return nil, nil, nil, errorx.Unknown
	}
	events := []*entity.RaffleEvent{event}

	afters := []AfterCommit{}
	for _, observer := range d.observers {
		after, err := observer.OnTicketsPurchased(ctx, raffle)
		if err != nil {
			return nil, nil, nil, err
		}

		if after != nil {
			afters = append(afters, after)
		}
	}

	participant, err := d.participantRepo.Get(ctx, raffle.ID, buyer)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participant: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	escrow := xcontext.Configs(ctx).Raffle.EscrowAccount
	if _, err := d.paymentService.TransferFrom(ctx, buyer, escrow, amount); err != nil {
		common.PromCounters[common.TransferFailureTotal].WithLabelValues("transfer_from").Inc()
		xcontext.Logger(ctx).Warnf("Cannot collect payment of %s for raffle %d: %v", buyer, raffle.ID, err)
		return nil, nil, nil, errorx.New(errorx.TransferFailed, "Cannot collect ticket payment")
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit ticket purchase: %v", err)
		return nil, nil, nil, errorx.Unknown
	}

	return &model.BuyTicketsResponse{
		TicketCount:   participant.TicketCount,
		TotalTickets:  raffle.TotalTickets,
		PrizePool:     raffle.PrizePool.String(),
		DrawRequested: raffle.State == entity.RaffleFinished,
	}, afters, events, nil
}

func checkPurchasable(raffle *entity.Raffle, count int64, now time.Time) error {
	if raffle.State != entity.RaffleActive {
		return errorx.New(errorx.InvalidState, "Raffle is not active")
	}

	if raffle.Expired(now) {
		return errorx.New(errorx.InvalidState, "Raffle has already ended")
	}

	if raffle.MaxTickets > 0 && raffle.TotalTickets+count > raffle.MaxTickets {
		return errorx.New(errorx.CapacityExceeded, "Only %d tickets left", raffle.MaxTickets-raffle.TotalTickets)
	}

	return nil
}

func (d *ticketDomain) GetTicketCount(
	ctx context.Context, req *model.GetTicketCountRequest,
) (*model.GetTicketCountResponse, error) {
	if req.Address == "" {
		return nil, errorx.New(errorx.InvalidInput, "Address is required")
	}

	if _, err := d.raffleRepo.GetByID(ctx, req.RaffleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	participant, err := d.participantRepo.Get(ctx, req.RaffleID, normalizeAddress(req.Address))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.GetTicketCountResponse{TicketCount: 0}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get participant: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetTicketCountResponse{TicketCount: participant.TicketCount}, nil
}

func (d *ticketDomain) GetPurchases(
	ctx context.Context, req *model.GetPurchasesRequest,
) (*model.GetPurchasesResponse, error) {
	if _, err := d.raffleRepo.GetByID(ctx, req.RaffleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	purchases, err := d.participantRepo.GetPurchasesByRaffleID(ctx, req.RaffleID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get purchases: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.TicketPurchase{}
	for i := range purchases {
		result = append(result, model.ConvertTicketPurchase(&purchases[i]))
	}

	return &model.GetPurchasesResponse{Purchases: result}, nil
}
