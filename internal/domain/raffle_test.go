package domain

import (
	"testing"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_raffleDomain_CreateRaffle(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		req     *model.CreateRaffleRequest
		wantErr error
	}{
		{
			name:   "happy case",
			caller: testutil.Owner,
			req: &model.CreateRaffleRequest{
				Name:         "Weekly raffle",
				Description:  "One winner takes the pool",
				DurationDays: 7,
				MaxTickets:   100,
			},
		},
		{
			name:   "unlimited tickets",
			caller: testutil.Owner,
			req:    &model.CreateRaffleRequest{Name: "Unlimited", DurationDays: 30},
		},
		{
			name:    "not owner",
			caller:  testutil.Alice,
			req:     &model.CreateRaffleRequest{Name: "Weekly raffle", DurationDays: 7},
			wantErr: errorx.New(errorx.Unauthorized, "Only the owner can create raffles"),
		},
		{
			name:    "anonymous",
			req:     &model.CreateRaffleRequest{Name: "Weekly raffle", DurationDays: 7},
			wantErr: errorx.New(errorx.Unauthorized, "Only the owner can create raffles"),
		},
		{
			name:    "empty name",
			caller:  testutil.Owner,
			req:     &model.CreateRaffleRequest{DurationDays: 7},
			wantErr: errorx.New(errorx.InvalidInput, "The name must not be empty"),
		},
		{
			name:   "too long name",
			caller: testutil.Owner,
			req: &model.CreateRaffleRequest{
				Name:         "012345678901234567890123456789012345678901234567890",
				DurationDays: 7,
			},
			wantErr: errorx.New(errorx.InvalidInput, "The name is too long (at most 50 characters)"),
		},
		{
			name:   "too long description",
			caller: testutil.Owner,
			req: &model.CreateRaffleRequest{
				Name:         "Weekly raffle",
				Description:  string(make([]byte, 201)),
				DurationDays: 7,
			},
			wantErr: errorx.New(errorx.InvalidInput, "The description is too long (at most 200 characters)"),
		},
		{
			name:    "too short duration",
			caller:  testutil.Owner,
			req:     &model.CreateRaffleRequest{Name: "Weekly raffle"},
			wantErr: errorx.New(errorx.InvalidInput, "Duration must be between 1 and 30 days"),
		},
		{
			name:    "too long duration",
			caller:  testutil.Owner,
			req:     &model.CreateRaffleRequest{Name: "Weekly raffle", DurationDays: 31},
			wantErr: errorx.New(errorx.InvalidInput, "Duration must be between 1 and 30 days"),
		},
		{
			name:    "negative max tickets",
			caller:  testutil.Owner,
			req:     &model.CreateRaffleRequest{Name: "Weekly raffle", DurationDays: 7, MaxTickets: -1},
			wantErr: errorx.New(errorx.InvalidInput, "The max number of tickets must not be negative"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)

			got, err := s.raffle.CreateRaffle(s.as(tt.caller), tt.req)
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)
				require.Equal(t, 0, s.publisher.Count("raffle.events"))
				return
			}

			require.NoError(t, err)
			require.Equal(t, "ACTIVE", got.State)

			raffle := s.getRaffle(t, got.ID)
			require.Equal(t, tt.req.Name, raffle.Name)
			require.Equal(t, tt.req.MaxTickets, raffle.MaxTickets)
			require.Equal(t, "10", raffle.TicketPrice.String())
			require.Equal(t, "0", raffle.PrizePool.String())
			require.Equal(t, entity.EntropyNone, raffle.EntropyState)
			require.Equal(t, 1, s.publisher.Count("raffle.events"))
		})
	}
}

func Test_raffleDomain_CreateRaffle_SequentialIDs(t *testing.T) {
	s := newSuite(t)

	first, err := s.raffle.CreateRaffle(s.as(testutil.Owner),
		&model.CreateRaffleRequest{Name: "First", DurationDays: 1})
	require.NoError(t, err)

	second, err := s.raffle.CreateRaffle(s.as(testutil.Owner),
		&model.CreateRaffleRequest{Name: "Second", DurationDays: 1})
	require.NoError(t, err)

	require.Equal(t, first.ID+1, second.ID)
}

func Test_raffleDomain_GetRaffle(t *testing.T) {
	s := newSuite(t)

	got, err := s.raffle.GetRaffle(s.ctx, &model.GetRaffleRequest{ID: testutil.Raffle1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.Raffle1.Name, got.Raffle.Name)
	require.Equal(t, "ACTIVE", got.Raffle.State)
	require.Equal(t, "NONE", got.Raffle.EntropyState)

	_, err = s.raffle.GetRaffle(s.ctx, &model.GetRaffleRequest{ID: 100})
	require.Equal(t, errorx.New(errorx.NotFound, "Not found raffle"), err)
}

func Test_raffleDomain_GetAllRaffles(t *testing.T) {
	tests := []struct {
		name    string
		req     *model.GetAllRafflesRequest
		wantIDs []uint64
		wantErr error
	}{
		{
			name:    "all",
			req:     &model.GetAllRafflesRequest{},
			wantIDs: []uint64{1, 2, 3},
		},
		{
			name:    "paging",
			req:     &model.GetAllRafflesRequest{Offset: 1, Limit: 1},
			wantIDs: []uint64{2},
		},
		{
			name:    "legacy state name",
			req:     &model.GetAllRafflesRequest{State: "OPEN"},
			wantIDs: []uint64{1, 2, 3},
		},
		{
			name:    "no completed raffle",
			req:     &model.GetAllRafflesRequest{State: "COMPLETED"},
			wantIDs: []uint64{},
		},
		{
			name:    "invalid state",
			req:     &model.GetAllRafflesRequest{State: "CANCELLED"},
			wantErr: errorx.New(errorx.InvalidInput, "Invalid state CANCELLED"),
		},
		{
			name:    "exceed max limit",
			req:     &model.GetAllRafflesRequest{Limit: 51},
			wantErr: errorx.New(errorx.InvalidInput, "Exceed the maximum of limit (50)"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)

			got, err := s.raffle.GetAllRaffles(s.ctx, tt.req)
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			ids := []uint64{}
			for _, r := range got.Raffles {
				ids = append(ids, r.ID)
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}
}

func Test_raffleDomain_ParticipantViews(t *testing.T) {
	s := newSuite(t)

	_, err := s.ticket.BuyTickets(s.as(testutil.Alice), &model.BuyTicketsRequest{RaffleID: testutil.Raffle3.ID, Count: 3})
	require.NoError(t, err)

	info, err := s.raffle.GetParticipantInfo(s.ctx,
		&model.GetParticipantInfoRequest{RaffleID: testutil.Raffle3.ID, Address: testutil.Alice})
	require.NoError(t, err)
	require.Equal(t, int64(3), info.Participant.TicketCount)
	require.False(t, info.Participant.IsWinner)

	info, err = s.raffle.GetParticipantInfo(s.ctx,
		&model.GetParticipantInfoRequest{RaffleID: testutil.Raffle3.ID, Address: testutil.Bob})
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Participant.TicketCount)

	mine, err := s.raffle.GetMyRaffles(s.as(testutil.Alice), &model.GetMyRafflesRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Raffles, 1)
	require.Equal(t, testutil.Raffle3.ID, mine.Raffles[0].ID)

	mine, err = s.raffle.GetMyRaffles(s.as(testutil.Bob), &model.GetMyRafflesRequest{})
	require.NoError(t, err)
	require.Empty(t, mine.Raffles)

	_, err = s.raffle.GetMyRaffles(s.ctx, &model.GetMyRafflesRequest{})
	require.True(t, errorx.Is(err, errorx.Unauthenticated))

	events, err := s.raffle.GetRaffleEvents(s.ctx, &model.GetRaffleEventsRequest{RaffleID: testutil.Raffle3.ID})
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	require.Equal(t, "TicketPurchased", events.Events[0].Type)
	require.Equal(t, "alice", events.Events[0].Data["buyer"])
}

func Test_raffleDomain_CreateRaffle_ZeroDuration(t *testing.T) {
	cfg := testutil.MockConfigs()
	cfg.Raffle.MinDurationDays = 0
	s := newSuiteWithConfigs(t, cfg)

	got, err := s.raffle.CreateRaffle(s.as(testutil.Owner),
		&model.CreateRaffleRequest{Name: "Ends now", DurationDays: 0})
	require.NoError(t, err)

	_, err = s.ticket.BuyTickets(s.as(testutil.Alice), &model.BuyTicketsRequest{RaffleID: got.ID, Count: 1})
	require.Equal(t, errorx.New(errorx.InvalidState, "Raffle has already ended"), err)
}
