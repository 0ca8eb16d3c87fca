package domain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/payment"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

var errTransfer = errors.New("transfer failed")

// faultyPaymentService fails transfers towards one account. With commitTx set, TransferFrom ends
// the transaction of the caller itself, so the commit of the caller fails afterwards.
type faultyPaymentService struct {
	payment.Service
	failTo   string
	commitTx bool
}

func (s *faultyPaymentService) Transfer(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	if s.failTo != "" && to == s.failTo {
		return "", errTransfer
	}

	return s.Service.Transfer(ctx, from, to, amount)
}

func (s *faultyPaymentService) TransferFrom(ctx context.Context, owner, to string, amount *big.Int) (string, error) {
	ref, err := s.Service.TransferFrom(ctx, owner, to, amount)
	if err != nil {
		return "", err
	}

	if s.commitTx {
		if err := xcontext.DB(ctx).Commit().Error; err != nil {
			return "", err
		}
	}

	return ref, nil
}

// faultyTokenRepository fails every balance update of one account.
type faultyTokenRepository struct {
	repository.TokenRepository
	failBalanceOf string
}

func (r *faultyTokenRepository) CompareAndSetBalance(
	ctx context.Context, address string, old, new entity.BigInt,
) error {
	if r.failBalanceOf != "" && address == r.failBalanceOf {
		return errTransfer
	}

	return r.TokenRepository.CompareAndSetBalance(ctx, address, old, new)
}

type randomnessCall struct {
	raffleID uint64
	nonce    uint64
}

type suite struct {
	ctx       context.Context
	publisher *testutil.RecordPublisher
	payment   *faultyPaymentService
	tokenRepo *faultyTokenRepository
	recorder  *RaffleEventRecorder

	mutex       sync.Mutex
	calls       []randomnessCall
	providerErr error

	raffleRepo      repository.RaffleRepository
	participantRepo repository.ParticipantRepository
	randomnessRepo  repository.RandomnessRepository

	raffle     *raffleDomain
	ticket     *ticketDomain
	draw       *drawDomain
	settlement *settlementDomain
	wallet     *paymentDomain
}

func newSuite(t *testing.T) *suite {
	return newSuiteWithConfigs(t, testutil.MockConfigs())
}

func newSuiteWithConfigs(t *testing.T, cfg config.Configs) *suite {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &suite{
		ctx:             testutil.MockContextWithConfigs(cfg),
		publisher:       testutil.NewRecordPublisher(),
		raffleRepo:      repository.NewRaffleRepository(),
		participantRepo: repository.NewParticipantRepository(),
		randomnessRepo:  repository.NewRandomnessRepository(),
	}
	testutil.CreateFixtureDb(s.ctx)

	s.tokenRepo = &faultyTokenRepository{TokenRepository: repository.NewTokenRepository()}
	s.payment = &faultyPaymentService{
		Service: payment.NewLedgerService(cfg.Raffle.EscrowAccount, s.tokenRepo),
	}

	provider := &testutil.MockEntropyProvider{
		RequestRandomnessFunc: func(ctx context.Context, raffleID, nonce uint64) (string, error) {
			s.mutex.Lock()
			defer s.mutex.Unlock()

			s.calls = append(s.calls, randomnessCall{raffleID: raffleID, nonce: nonce})
			if s.providerErr != nil {
				return "", s.providerErr
			}

			return "mock", nil
		},
	}

	eventRepo := repository.NewRaffleEventRepository()
	recorder := NewRaffleEventRecorder(eventRepo, s.publisher, node)
	s.recorder = recorder
	locker := NewRaffleLocker()
	roleVerifier := common.NewRoleVerifier()

	s.raffle = NewRaffleDomain(s.raffleRepo, s.participantRepo, eventRepo, roleVerifier, recorder)
	s.ticket = NewTicketDomain(s.raffleRepo, s.participantRepo, s.payment, locker, recorder)
	s.draw = NewDrawDomain(s.raffleRepo, s.participantRepo, s.randomnessRepo, s.raffle, provider, locker, recorder)
	s.settlement = NewSettlementDomain(
		s.raffleRepo, repository.NewSettlementRepository(), s.payment, roleVerifier, locker, recorder)
	s.wallet = NewPaymentDomain(s.payment, roleVerifier)
	s.ticket.AddObserver(s.draw)

	return s
}

func (s *suite) as(address string) context.Context {
	return testutil.MockContextWithUserID(s.ctx, address)
}

func (s *suite) randomnessCalls() []randomnessCall {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]randomnessCall{}, s.calls...)
}

func (s *suite) getRaffle(t *testing.T, id uint64) *entity.Raffle {
	raffle, err := s.raffleRepo.GetByID(s.ctx, id)
	require.NoError(t, err)
	return raffle
}

func (s *suite) balance(t *testing.T, address string) string {
	balance, err := s.payment.BalanceOf(s.ctx, address)
	require.NoError(t, err)
	return balance.String()
}

// expireRaffle moves the end time of a raffle into the past.
func (s *suite) expireRaffle(t *testing.T, id uint64) {
	err := xcontext.DB(s.ctx).Model(&entity.Raffle{}).Where("id=?", id).
		Update("end_time", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}

// requireLedgerInvariants checks that the counters of the raffle agree with its participants and
// its purchases.
func (s *suite) requireLedgerInvariants(t *testing.T, id uint64) {
	raffle := s.getRaffle(t, id)

	sum, err := s.participantRepo.SumTickets(s.ctx, id)
	require.NoError(t, err)
	require.Equal(t, raffle.TotalTickets, sum)

	if !raffle.Claimed {
		expected := new(big.Int).Mul(raffle.TicketPrice.Int(), big.NewInt(raffle.TotalTickets))
		require.Equal(t, expected.String(), raffle.PrizePool.String())
	} else {
		require.Equal(t, "0", raffle.PrizePool.String())
	}

	purchases, err := s.participantRepo.GetPurchasesByRaffleID(s.ctx, id)
	require.NoError(t, err)
	require.Len(t, purchases, int(raffle.PurchaseCount))

	var next int64
	for i, purchase := range purchases {
		require.Equal(t, int64(i+1), purchase.Sequence)
		require.Equal(t, next, purchase.StartIndex)
		next += purchase.Count
	}
	require.Equal(t, raffle.TotalTickets, next)
}
