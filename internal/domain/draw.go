package domain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/entropy"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	drawTriggerManual = "manual"
	drawTriggerCap    = "cap"
	drawTriggerRetry  = "retry"
)

type DrawDomain interface {
	RequestDraw(context.Context, *model.RequestDrawRequest) (*model.RequestDrawResponse, error)
	RetryDraw(context.Context, *model.RetryDrawRequest) (*model.RetryDrawResponse, error)
	OnRandomnessFulfilled(context.Context, *model.OnRandomnessFulfilledRequest) (*model.OnRandomnessFulfilledResponse, error)
	GetRandomnessRequests(context.Context, *model.GetRandomnessRequestsRequest) (*model.GetRandomnessRequestsResponse, error)
	HandleFulfilledEvent(ctx context.Context, pack *pubsub.Pack, t time.Time)
}

type drawDomain struct {
	raffleRepo      repository.RaffleRepository
	participantRepo repository.ParticipantRepository
	randomnessRepo  repository.RandomnessRepository
	transitioner    RaffleTransitioner
	provider        entropy.Provider
	locker          *RaffleLocker
	recorder        *RaffleEventRecorder
}

func NewDrawDomain(
	raffleRepo repository.RaffleRepository,
	participantRepo repository.ParticipantRepository,
	randomnessRepo repository.RandomnessRepository,
	transitioner RaffleTransitioner,
	provider entropy.Provider,
	locker *RaffleLocker,
	recorder *RaffleEventRecorder,
) *drawDomain {
	return &drawDomain{
		raffleRepo:      raffleRepo,
		participantRepo: participantRepo,
		randomnessRepo:  randomnessRepo,
		transitioner:    transitioner,
		provider:        provider,
		locker:          locker,
		recorder:        recorder,
	}
}

func (d *drawDomain) RequestDraw(
	ctx context.Context, req *model.RequestDrawRequest,
) (*model.RequestDrawResponse, error) {
	nonce, events, err := d.requestDraw(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	d.recorder.Publish(ctx, events...)
	status := d.dispatch(ctx, req.RaffleID, nonce, drawTriggerManual)

	return &model.RequestDrawResponse{Nonce: nonce, RequestStatus: enum.ToString(status)}, nil
}

func (d *drawDomain) requestDraw(ctx context.Context, raffleID uint64) (uint64, []*entity.RaffleEvent, error) {
	unlock := d.locker.Lock(raffleID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, raffleID)
	if err != nil {
		return 0, nil, err
	}

	switch raffle.EntropyState {
	case entity.EntropyRequested:
		return 0, nil, errorx.New(errorx.RequestAlreadyInFlight, "Randomness was already requested")
	case entity.EntropyFulfilled:
		return 0, nil, errorx.New(errorx.AlreadyFulfilled, "Randomness was already fulfilled")
	}

	events, err := d.stageDraw(ctx, raffle, drawTriggerManual)
	if err != nil {
		return 0, nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit draw request: %v", err)
		return 0, nil, errorx.Unknown
	}

	return raffle.EntropyNonce, events, nil
}

// OnTicketsPurchased stages the draw in the purchase transaction as soon as the last ticket is sold.
func (d *drawDomain) OnTicketsPurchased(ctx context.Context, raffle *entity.Raffle) (AfterCommit, error) {
	if !raffle.CapReached() || raffle.EntropyState != entity.EntropyNone {
		return nil, nil
	}

	events, err := d.stageDraw(ctx, raffle, drawTriggerCap)
	if err != nil {
		return nil, err
	}

	raffleID, nonce := raffle.ID, raffle.EntropyNonce
	return func(ctx context.Context) {
		d.recorder.Publish(ctx, events...)
		d.dispatch(ctx, raffleID, nonce, drawTriggerCap)
	}, nil
}

// stageDraw moves the raffle to FINISHED with a fresh nonce and records the pending request. The
// provider is only called by dispatch after the transaction is committed.
func (d *drawDomain) stageDraw(
	ctx context.Context, raffle *entity.Raffle, trigger string,
) ([]*entity.RaffleEvent, error) {
	nonce := raffle.EntropyNonce + 1
	events, err := d.transitioner.TransitionToFinished(ctx, raffle, nonce, time.Now())
	if err != nil {
		return nil, err
	}

	event, err := d.createRequest(ctx, raffle.ID, nonce, trigger, false)
	if err != nil {
		return nil, err
	}

	return append(events, event), nil
}

func (d *drawDomain) createRequest(
	ctx context.Context, raffleID, nonce uint64, trigger string, retry bool,
) (*entity.RaffleEvent, error) {
	err := d.randomnessRepo.Create(ctx, &entity.RandomnessRequest{
		Base:     entity.Base{ID: uuid.NewString()},
		RaffleID: raffleID,
		Nonce:    nonce,
		Trigger:  trigger,
		Status:   entity.RandomnessPending,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create randomness request: %v", err)
		return nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffleID, entity.RaffleEventDrawRequested, drawRequestedEvent{
		Nonce:   nonce,
		Trigger: trigger,
		Retry:   retry,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record draw requested event: %v", err)
		return nil, errorx.Unknown
	}

	return event, nil
}

// dispatch sends a committed request to the provider. A failed request keeps the raffle waiting for
// randomness, it is recovered by RetryDraw.
func (d *drawDomain) dispatch(
	ctx context.Context, raffleID, nonce uint64, trigger string,
) entity.RandomnessRequestStatus {
	pending := []entity.RandomnessRequestStatus{entity.RandomnessPending}

	providerID, err := d.provider.RequestRandomness(ctx, raffleID, nonce)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot request randomness for raffle %d nonce %d: %v", raffleID, nonce, err)
		common.PromCounters[common.DrawRequestTotal].WithLabelValues(trigger, "failed").Inc()

		err = d.randomnessRepo.UpdateStatus(ctx, raffleID, nonce, pending, entity.RandomnessFailed,
			map[string]any{"error": err.Error()})
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot mark randomness request as failed: %v", err)
		}

		return entity.RandomnessFailed
	}

	common.PromCounters[common.DrawRequestTotal].WithLabelValues(trigger, "dispatched").Inc()
	err = d.randomnessRepo.UpdateStatus(ctx, raffleID, nonce, pending, entity.RandomnessDispatched,
		map[string]any{"provider_request_id": providerID})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot mark randomness request as dispatched: %v", err)
	}

	return entity.RandomnessDispatched
}

func (d *drawDomain) RetryDraw(
	ctx context.Context, req *model.RetryDrawRequest,
) (*model.RetryDrawResponse, error) {
	nonce, events, err := d.retryDraw(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	d.recorder.Publish(ctx, events...)
	status := d.dispatch(ctx, req.RaffleID, nonce, drawTriggerRetry)

	return &model.RetryDrawResponse{Nonce: nonce, RequestStatus: enum.ToString(status)}, nil
}

func (d *drawDomain) retryDraw(ctx context.Context, raffleID uint64) (uint64, []*entity.RaffleEvent, error) {
	unlock := d.locker.Lock(raffleID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, raffleID)
	if err != nil {
		return 0, nil, err
	}

	if raffle.State != entity.RaffleFinished || raffle.EntropyState != entity.EntropyRequested {
		return 0, nil, errorx.New(errorx.InvalidState, "Raffle is not waiting for randomness")
	}

	lastFailed := false
	last, err := d.randomnessRepo.Get(ctx, raffle.ID, raffle.EntropyNonce)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get randomness request: %v", err)
			return 0, nil, errorx.Unknown
		}
	} else {
		lastFailed = last.Status == entity.RandomnessFailed
	}

	now := time.Now()
	cooldown := xcontext.Configs(ctx).Raffle.RetryCooldown
	if !lastFailed && raffle.LastEntropyRequestTime.Valid &&
		now.Before(raffle.LastEntropyRequestTime.Time.Add(cooldown)) {
		return 0, nil, errorx.New(errorx.RetryCoolingDown, "Retry is allowed after %s",
			raffle.LastEntropyRequestTime.Time.Add(cooldown).UTC().Format(time.RFC3339))
	}

	err = d.randomnessRepo.UpdateStatus(ctx, raffle.ID, raffle.EntropyNonce,
		[]entity.RandomnessRequestStatus{
			entity.RandomnessPending,
			entity.RandomnessDispatched,
			entity.RandomnessFailed,
		},
		entity.RandomnessStale, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot mark randomness request as stale: %v", err)
		return 0, nil, errorx.Unknown
	}

	nonce := raffle.EntropyNonce + 1
	if err := d.raffleRepo.RenewEntropyRequest(ctx, raffle.ID, raffle.EntropyNonce, nonce, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, errorx.New(errorx.InvalidState, "Raffle is not waiting for randomness")
		}

		xcontext.Logger(ctx).Errorf("Cannot renew entropy request: %v", err)
		return 0, nil, errorx.Unknown
	}

	event, err := d.createRequest(ctx, raffle.ID, nonce, drawTriggerRetry, true)
	if err != nil {
		return 0, nil, err
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit draw retry: %v", err)
		return 0, nil, errorx.Unknown
	}

	return nonce, []*entity.RaffleEvent{event}, nil
}

func (d *drawDomain) OnRandomnessFulfilled(
	ctx context.Context, req *model.OnRandomnessFulfilledRequest,
) (*model.OnRandomnessFulfilledResponse, error) {
	resp, events, err := d.onRandomnessFulfilled(ctx, req)
	if err != nil {
		common.PromCounters[common.RandomnessCallbackTotal].WithLabelValues("rejected").Inc()
		xcontext.Logger(ctx).Warnf("Rejected randomness of raffle %d nonce %d: %v", req.RaffleID, req.Nonce, err)
		return nil, err
	}

	common.PromCounters[common.RandomnessCallbackTotal].WithLabelValues("accepted").Inc()
	d.recorder.Publish(ctx, events...)

	return resp, nil
}

func (d *drawDomain) onRandomnessFulfilled(
	ctx context.Context, req *model.OnRandomnessFulfilledRequest,
) (*model.OnRandomnessFulfilledResponse, []*entity.RaffleEvent, error) {
	randomValue, ok := parseRandomValue(req.RandomValue)
	if !ok {
		return nil, nil, errorx.New(errorx.InvalidCallback, "Invalid random value")
	}

	unlock := d.locker.Lock(req.RaffleID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, nil, err
	}

	if raffle.EntropyState == entity.EntropyFulfilled {
		return nil, nil, errorx.New(errorx.AlreadyFulfilled, "Randomness was already fulfilled")
	}

	if raffle.EntropyState != entity.EntropyRequested || raffle.State != entity.RaffleFinished {
		return nil, nil, errorx.New(errorx.InvalidCallback, "Raffle is not waiting for randomness")
	}

	if raffle.EntropyNonce != req.Nonce {
		return nil, nil, errorx.New(errorx.InvalidCallback, "Unexpected nonce %d", req.Nonce)
	}

	if raffle.TotalTickets == 0 {
		return nil, nil, errorx.New(errorx.InvalidState, "Raffle has no tickets")
	}

	winningIndex := new(big.Int).Mod(randomValue, big.NewInt(raffle.TotalTickets)).Int64()
	participants, err := d.participantRepo.GetByRaffleID(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participants: %v", err)
		return nil, nil, errorx.Unknown
	}

	winner := resolveWinner(participants, winningIndex)
	if winner == "" {
		xcontext.Logger(ctx).Errorf("Cannot resolve ticket %d of raffle %d", winningIndex, raffle.ID)
		return nil, nil, errorx.Unknown
	}

	events, err := d.transitioner.TransitionToCompleted(ctx, raffle, winner, winningIndex)
	if err != nil {
		return nil, nil, err
	}

	err = d.randomnessRepo.MarkFulfilled(ctx, raffle.ID, req.Nonce, randomValue.String(), time.Now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot mark randomness request as fulfilled: %v", err)
		return nil, nil, errorx.Unknown
	}

	event, err := d.recorder.Record(ctx, raffle.ID, entity.RaffleEventRandomnessFulfilled, randomnessFulfilledEvent{
		Nonce:        req.Nonce,
		RandomValue:  randomValue.String(),
		WinningIndex: winningIndex,
		Winner:       winner,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record randomness fulfilled event: %v", err)
		return nil, nil, errorx.Unknown
	}

	if _, err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit randomness result: %v", err)
		return nil, nil, errorx.Unknown
	}

	return &model.OnRandomnessFulfilledResponse{
		Winner:       winner,
		WinningIndex: winningIndex,
	}, append(events, event), nil
}

// HandleFulfilledEvent consumes the fulfilled topic. Rejected callbacks are logged by
// OnRandomnessFulfilled and dropped.
func (d *drawDomain) HandleFulfilledEvent(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var raw map[string]any
	if err := json.Unmarshal(pack.Msg, &raw); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal fulfilled event: %v", err)
		return
	}

	req := model.OnRandomnessFulfilledRequest{}
	if err := mapstructure.WeakDecode(raw, &req); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decode fulfilled event: %v", err)
		return
	}

	if _, err := d.OnRandomnessFulfilled(ctx, &req); err != nil {
		return
	}

	xcontext.Logger(ctx).Infof("Raffle %d is fulfilled by the event published at %s", req.RaffleID, t)
}

func (d *drawDomain) GetRandomnessRequests(
	ctx context.Context, req *model.GetRandomnessRequestsRequest,
) (*model.GetRandomnessRequestsResponse, error) {
	if _, err := d.getRaffle(ctx, req.RaffleID); err != nil {
		return nil, err
	}

	requests, err := d.randomnessRepo.GetByRaffleID(ctx, req.RaffleID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get randomness requests: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.RandomnessRequest{}
	for i := range requests {
		result = append(result, model.ConvertRandomnessRequest(&requests[i]))
	}

	return &model.GetRandomnessRequestsResponse{Requests: result}, nil
}

func (d *drawDomain) getRaffle(ctx context.Context, id uint64) (*entity.Raffle, error) {
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

// resolveWinner maps a ticket index to its owner. Participants must be ordered by their first
// purchase, each one owns the next TicketCount indexes. Ranges are per participant, not per
// purchase: with purchases A, B, A of one ticket each, A owns indexes 0 and 1 and B owns index 2.
// The StartIndex of a purchase is therefore not the winning index of that purchase.
func resolveWinner(participants []entity.Participant, index int64) string {
	var upper int64
	for _, p := range participants {
		upper += p.TicketCount
		if index < upper {
			return p.Address
		}
	}

	return ""
}

// parseRandomValue accepts a decimal or a 0x-prefixed hexadecimal unsigned integer.
func parseRandomValue(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}

	if s == "" {
		return nil, false
	}

	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return nil, false
	}

	return v, true
}
