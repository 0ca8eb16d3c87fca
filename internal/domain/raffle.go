package domain

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RaffleDomain interface {
	CreateRaffle(context.Context, *model.CreateRaffleRequest) (*model.CreateRaffleResponse, error)
	GetRaffle(context.Context, *model.GetRaffleRequest) (*model.GetRaffleResponse, error)
	GetAllRaffles(context.Context, *model.GetAllRafflesRequest) (*model.GetAllRafflesResponse, error)
	GetParticipantInfo(context.Context, *model.GetParticipantInfoRequest) (*model.GetParticipantInfoResponse, error)
	GetMyRaffles(context.Context, *model.GetMyRafflesRequest) (*model.GetMyRafflesResponse, error)
	GetRaffleEvents(context.Context, *model.GetRaffleEventsRequest) (*model.GetRaffleEventsResponse, error)
}

// RaffleTransitioner moves a raffle through its lifecycle on behalf of the draw path. Callers hold
// the raffle lock and pass their transaction in the context. The raffle is updated in place and the
// recorded events are returned for publishing after commit.
type RaffleTransitioner interface {
	TransitionToFinished(ctx context.Context, raffle *entity.Raffle, nonce uint64, now time.Time) ([]*entity.RaffleEvent, error)
	TransitionToCompleted(ctx context.Context, raffle *entity.Raffle, winner string, winningIndex int64) ([]*entity.RaffleEvent, error)
}

type raffleDomain struct {
	raffleRepo      repository.RaffleRepository
	participantRepo repository.ParticipantRepository
	eventRepo       repository.RaffleEventRepository
	roleVerifier    *common.RoleVerifier
	recorder        *RaffleEventRecorder
}

func NewRaffleDomain(
	raffleRepo repository.RaffleRepository,
	participantRepo repository.ParticipantRepository,
	eventRepo repository.RaffleEventRepository,
	roleVerifier *common.RoleVerifier,
	recorder *RaffleEventRecorder,
) *raffleDomain {
	return &raffleDomain{
		raffleRepo:      raffleRepo,
		participantRepo: participantRepo,
		eventRepo:       eventRepo,
		roleVerifier:    roleVerifier,
		recorder:        recorder,
	}
}

func (d *raffleDomain) CreateRaffle(
	ctx context.Context, req *model.CreateRaffleRequest,
) (*model.CreateRaffleResponse, error) {
	if err := d.roleVerifier.Verify(ctx, nil, common.RaffleRoleOwner); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only the owner can create raffles")
	}

	cfg := xcontext.Configs(ctx).Raffle
	if err := checkTextLength("name", req.Name, cfg.MaxNameLength, false); err != nil {
		return nil, err
	}

	if err := checkTextLength("description", req.Description, cfg.MaxDescriptionLength, true); err != nil {
		return nil, err
	}

	if req.DurationDays < cfg.MinDurationDays || req.DurationDays > cfg.MaxDurationDays {
		return nil, errorx.New(errorx.InvalidInput,
			"Duration must be between %d and %d days", cfg.MinDurationDays, cfg.MaxDurationDays)
	}

	if req.MaxTickets < 0 {
		return nil, errorx.New(errorx.InvalidInput, "The max number of tickets must not be negative")
	}

	if cfg.TicketPrice == nil || cfg.TicketPrice.Sign() <= 0 {
		xcontext.Logger(ctx).Errorf("Ticket price is not configured")
		return nil, errorx.Unknown
	}

	now := time.Now()
	raffle := &entity.Raffle{
		Name:         req.Name,
		Description:  req.Description,
		EndTime:      now.Add(time.Duration(req.DurationDays) * 24 * time.Hour),
		MaxTickets:   req.MaxTickets,
		TicketPrice:  entity.NewBigInt(cfg.TicketPrice),
		PrizePool:    entity.NewBigInt(nil),
		State:        entity.RaffleActive,
		EntropyState: entity.EntropyNone,
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.raffleRepo.Create(ctx, raffle); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create raffle: %v", err)
		return nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventCreated, raffleCreatedEvent{
		Name:        raffle.Name,
		EndTime:     raffle.EndTime.Format(model.DefaultTimeLayout),
		MaxTickets:  raffle.MaxTickets,
		TicketPrice: raffle.TicketPrice.String(),
		CreatedBy:   requestAddress(ctx),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record raffle created event: %v", err)
		return nil, errorx.Unknown
	}

	ctx, err = xcontext.WithCommitDBTransaction(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit raffle creation: %v", err)
		return nil, errorx.Unknown
	}

	d.recorder.Publish(ctx, event)

	return &model.CreateRaffleResponse{ID: raffle.ID, State: enum.ToString(raffle.State)}, nil
}

func (d *raffleDomain) GetRaffle(
	ctx context.Context, req *model.GetRaffleRequest,
) (*model.GetRaffleResponse, error) {
	raffle, err := d.getRaffle(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &model.GetRaffleResponse{Raffle: model.ConvertRaffle(raffle)}, nil
}

func (d *raffleDomain) GetAllRaffles(
	ctx context.Context, req *model.GetAllRafflesRequest,
) (*model.GetAllRafflesResponse, error) {
	limit, err := checkPaging(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.RaffleFilter{Offset: req.Offset, Limit: limit}
	if req.State != "" {
		state, err := enum.ToEnum[entity.RaffleState](req.State)
		if err != nil {
			return nil, errorx.New(errorx.InvalidInput, "Invalid state %s", req.State)
		}

		filter.State = state
	}

	raffles, err := d.raffleRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get raffle list: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Raffle{}
	for i := range raffles {
		result = append(result, model.ConvertRaffle(&raffles[i]))
	}

	return &model.GetAllRafflesResponse{Raffles: result}, nil
}

func (d *raffleDomain) GetParticipantInfo(
	ctx context.Context, req *model.GetParticipantInfoRequest,
) (*model.GetParticipantInfoResponse, error) {
	if req.Address == "" {
		return nil, errorx.New(errorx.InvalidInput, "Address is required")
	}

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	address := normalizeAddress(req.Address)
	participant, err := d.participantRepo.Get(ctx, raffle.ID, address)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get participant: %v", err)
			return nil, errorx.Unknown
		}

		participant = &entity.Participant{RaffleID: raffle.ID, Address: address}
	}

	return &model.GetParticipantInfoResponse{
		Participant: model.ConvertParticipant(participant, raffle.Winner),
	}, nil
}

func (d *raffleDomain) GetMyRaffles(
	ctx context.Context, req *model.GetMyRafflesRequest,
) (*model.GetMyRafflesResponse, error) {
	address := requestAddress(ctx)
	if address == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Caller is unknown")
	}

	participants, err := d.participantRepo.GetByAddress(ctx, address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participants: %v", err)
		return nil, errorx.Unknown
	}

	raffleIDs := []uint64{}
	for _, p := range participants {
		raffleIDs = append(raffleIDs, p.RaffleID)
	}

	resp := &model.GetMyRafflesResponse{Raffles: []model.Raffle{}, Participants: []model.Participant{}}
	if len(raffleIDs) == 0 {
		return resp, nil
	}

	raffles, err := d.raffleRepo.GetByIDs(ctx, raffleIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get raffles: %v", err)
		return nil, errorx.Unknown
	}

	winners := map[uint64]string{}
	for i := range raffles {
		winners[raffles[i].ID] = raffles[i].Winner
		resp.Raffles = append(resp.Raffles, model.ConvertRaffle(&raffles[i]))
	}

	for i := range participants {
		resp.Participants = append(resp.Participants,
			model.ConvertParticipant(&participants[i], winners[participants[i].RaffleID]))
	}

	return resp, nil
}

func (d *raffleDomain) GetRaffleEvents(
	ctx context.Context, req *model.GetRaffleEventsRequest,
) (*model.GetRaffleEventsResponse, error) {
	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	events, err := d.eventRepo.GetByRaffleID(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get raffle events: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.RaffleEvent{}
	for i := range events {
		result = append(result, model.ConvertRaffleEvent(&events[i]))
	}

	return &model.GetRaffleEventsResponse{Events: result}, nil
}

func (d *raffleDomain) TransitionToFinished(
	ctx context.Context, raffle *entity.Raffle, nonce uint64, now time.Time,
) ([]*entity.RaffleEvent, error) {
	if raffle.State != entity.RaffleActive {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not active")
	}

	if !raffle.CapReached() && !raffle.Expired(now) {
		return nil, errorx.New(errorx.NotYetClosable, "Raffle has neither reached its cap nor expired")
	}

	if err := d.raffleRepo.UpdateToFinished(ctx, raffle.ID, nonce, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidState, "Raffle is not active")
		}

		xcontext.Logger(ctx).Errorf("Cannot update raffle to finished: %v", err)
		return nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventStateChanged, stateChangedEvent{
		From: enum.ToString(entity.RaffleActive),
		To:   enum.ToString(entity.RaffleFinished),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record state changed event: %v", err)
		return nil, errorx.Unknown
	}

	raffle.State = entity.RaffleFinished
	raffle.EntropyState = entity.EntropyRequested
	raffle.EntropyNonce = nonce
	raffle.LastEntropyRequestTime.Valid = true
	raffle.LastEntropyRequestTime.Time = now

	return []*entity.RaffleEvent{event}, nil
}

func (d *raffleDomain) TransitionToCompleted(
	ctx context.Context, raffle *entity.Raffle, winner string, winningIndex int64,
) ([]*entity.RaffleEvent, error) {
	if raffle.State != entity.RaffleFinished || raffle.Winner != "" {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not waiting for a winner")
	}

	err := d.raffleRepo.UpdateToCompleted(ctx, raffle.ID, raffle.EntropyNonce, winner, winningIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidState, "Raffle is not waiting for a winner")
		}

		xcontext.Logger(ctx).Errorf("Cannot update raffle to completed: %v", err)
		return nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventStateChanged, stateChangedEvent{
		From: enum.ToString(entity.RaffleFinished),
		To:   enum.ToString(entity.RaffleCompleted),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record state changed event: %v", err)
		return nil, errorx.Unknown
	}

	raffle.State = entity.RaffleCompleted
	raffle.EntropyState = entity.EntropyFulfilled
	raffle.Winner = winner
	raffle.WinningIndex = winningIndex

	return []*entity.RaffleEvent{event}, nil
}

func (d *raffleDomain) getRaffle(ctx context.Context, id uint64) (*entity.Raffle, error) {
	raffle, err := d.raffleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	return raffle, nil
}
