package testutil

import (
	"context"
	"math/big"
	"time"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

// Participants of the fixture. They are plain identities, addresses are only normalized when they
// are hex.
const (
	Alice = "alice"
	Bob   = "bob"
	Carol = "carol"
)

// FixtureFunds is minted to and approved for the escrow by every fixture participant.
const FixtureFunds = 1000

var (
	// Raffle1 is active, sells at most 2 tickets and ends in 7 days.
	Raffle1 = &entity.Raffle{
		ID:           1,
		Name:         "Raffle 1",
		Description:  "Two tickets",
		MaxTickets:   2,
		State:        entity.RaffleActive,
		EntropyState: entity.EntropyNone,
	}

	// Raffle2 is active without ticket cap and has already ended.
	Raffle2 = &entity.Raffle{
		ID:           2,
		Name:         "Raffle 2",
		Description:  "Expired",
		State:        entity.RaffleActive,
		EntropyState: entity.EntropyNone,
	}

	// Raffle3 is active without ticket cap and ends in 7 days.
	Raffle3 = &entity.Raffle{
		ID:           3,
		Name:         "Raffle 3",
		Description:  "Unlimited",
		State:        entity.RaffleActive,
		EntropyState: entity.EntropyNone,
	}
)

// CreateFixtureDb inserts the fixture raffles and funds the fixture participants in the database
// of ctx.
func CreateFixtureDb(ctx context.Context) {
	InsertRaffles(ctx)
	InsertFunds(ctx)
}

func InsertRaffles(ctx context.Context) {
	price := entity.NewBigInt(xcontext.Configs(ctx).Raffle.TicketPrice)
	now := time.Now()

	endTimes := map[uint64]time.Time{
		Raffle1.ID: now.Add(7 * 24 * time.Hour),
		Raffle2.ID: now.Add(-time.Hour),
		Raffle3.ID: now.Add(7 * 24 * time.Hour),
	}

	raffleRepo := repository.NewRaffleRepository()
	for _, fixture := range []*entity.Raffle{Raffle1, Raffle2, Raffle3} {
		raffle := *fixture
		raffle.EndTime = endTimes[raffle.ID]
		raffle.TicketPrice = price
		raffle.PrizePool = entity.NewBigInt(nil)

		if err := raffleRepo.Create(ctx, &raffle); err != nil {
			panic(err)
		}
	}
}

func InsertFunds(ctx context.Context) {
	escrow := xcontext.Configs(ctx).Raffle.EscrowAccount
	funds := entity.NewBigInt(big.NewInt(FixtureFunds))
	zero := entity.NewBigInt(nil)

	tokenRepo := repository.NewTokenRepository()
	for _, address := range []string{Alice, Bob, Carol} {
		if err := tokenRepo.CompareAndSetBalance(ctx, address, zero, funds); err != nil {
			panic(err)
		}

		if err := tokenRepo.CompareAndSetAllowance(ctx, address, escrow, zero, funds); err != nil {
			panic(err)
		}
	}
}
