package domain

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

// fillRaffle1 sells both tickets of Raffle1, to Alice then Bob. The second purchase requests the
// draw with nonce 1.
func (s *suite) fillRaffle1(t *testing.T) {
	for _, buyer := range []string{testutil.Alice, testutil.Bob} {
		_, err := s.ticket.BuyTickets(s.as(buyer), &model.BuyTicketsRequest{RaffleID: testutil.Raffle1.ID, Count: 1})
		require.NoError(t, err)
	}
}

func (s *suite) buy(t *testing.T, raffleID uint64, buyer string, count int64) {
	_, err := s.ticket.BuyTickets(s.as(buyer), &model.BuyTicketsRequest{RaffleID: raffleID, Count: count})
	require.NoError(t, err)
}

func Test_drawDomain_RequestDraw(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, s *suite)
		req     *model.RequestDrawRequest
		want    *model.RequestDrawResponse
		wantErr error
	}{
		{
			name: "expired raffle",
			req:  &model.RequestDrawRequest{RaffleID: testutil.Raffle2.ID},
			want: &model.RequestDrawResponse{Nonce: 1, RequestStatus: "DISPATCHED"},
		},
		{
			name: "expired raffle with tickets",
			setup: func(t *testing.T, s *suite) {
				s.buy(t, testutil.Raffle3.ID, testutil.Alice, 1)
				s.expireRaffle(t, testutil.Raffle3.ID)
			},
			req:  &model.RequestDrawRequest{RaffleID: testutil.Raffle3.ID},
			want: &model.RequestDrawResponse{Nonce: 1, RequestStatus: "DISPATCHED"},
		},
		{
			name:    "neither capped nor expired",
			req:     &model.RequestDrawRequest{RaffleID: testutil.Raffle3.ID},
			wantErr: errorx.New(errorx.NotYetClosable, "Raffle has neither reached its cap nor expired"),
		},
		{
			name:    "unknown raffle",
			req:     &model.RequestDrawRequest{RaffleID: 100},
			wantErr: errorx.New(errorx.NotFound, "Not found raffle"),
		},
		{
			name: "already requested",
			setup: func(t *testing.T, s *suite) {
				s.fillRaffle1(t)
			},
			req:     &model.RequestDrawRequest{RaffleID: testutil.Raffle1.ID},
			wantErr: errorx.New(errorx.RequestAlreadyInFlight, "Randomness was already requested"),
		},
		{
			name: "already fulfilled",
			setup: func(t *testing.T, s *suite) {
				s.fillRaffle1(t)
				_, err := s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
					RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "7",
				})
				require.NoError(t, err)
			},
			req:     &model.RequestDrawRequest{RaffleID: testutil.Raffle1.ID},
			wantErr: errorx.New(errorx.AlreadyFulfilled, "Randomness was already fulfilled"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)
			if tt.setup != nil {
				tt.setup(t, s)
			}

			before := len(s.randomnessCalls())
			got, err := s.draw.RequestDraw(s.as(testutil.Carol), tt.req)
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)
				require.Len(t, s.randomnessCalls(), before)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, randomnessCall{raffleID: tt.req.RaffleID, nonce: got.Nonce}, s.randomnessCalls()[before])

			raffle := s.getRaffle(t, tt.req.RaffleID)
			require.Equal(t, entity.RaffleFinished, raffle.State)
			require.Equal(t, entity.EntropyRequested, raffle.EntropyState)
			require.Equal(t, got.Nonce, raffle.EntropyNonce)
		})
	}
}

func Test_drawDomain_RequestDraw_ProviderFailure(t *testing.T) {
	s := newSuite(t)
	s.buy(t, testutil.Raffle3.ID, testutil.Alice, 1)
	s.buy(t, testutil.Raffle3.ID, testutil.Bob, 1)
	s.expireRaffle(t, testutil.Raffle3.ID)

	s.providerErr = errors.New("rpc is down")
	got, err := s.draw.RequestDraw(s.ctx, &model.RequestDrawRequest{RaffleID: testutil.Raffle3.ID})
	require.NoError(t, err)
	require.Equal(t, &model.RequestDrawResponse{Nonce: 1, RequestStatus: "FAILED"}, got)

	// The raffle keeps waiting for randomness.
	raffle := s.getRaffle(t, testutil.Raffle3.ID)
	require.Equal(t, entity.RaffleFinished, raffle.State)
	require.Equal(t, entity.EntropyRequested, raffle.EntropyState)

	request, err := s.randomnessRepo.Get(s.ctx, testutil.Raffle3.ID, 1)
	require.NoError(t, err)
	require.Equal(t, entity.RandomnessFailed, request.Status)
	require.Equal(t, "rpc is down", request.Error)

	// A failed request can be retried without waiting for the cool-down.
	s.providerErr = nil
	retry, err := s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle3.ID})
	require.NoError(t, err)
	require.Equal(t, &model.RetryDrawResponse{Nonce: 2, RequestStatus: "DISPATCHED"}, retry)

	request, err = s.randomnessRepo.Get(s.ctx, testutil.Raffle3.ID, 1)
	require.NoError(t, err)
	require.Equal(t, entity.RandomnessStale, request.Status)

	// A late answer to the first request is rejected.
	_, err = s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
		RaffleID: testutil.Raffle3.ID, Nonce: 1, RandomValue: "0",
	})
	require.Equal(t, errorx.New(errorx.InvalidCallback, "Unexpected nonce 1"), err)

	fulfilled, err := s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
		RaffleID: testutil.Raffle3.ID, Nonce: 2, RandomValue: "0",
	})
	require.NoError(t, err)
	require.Equal(t, testutil.Alice, fulfilled.Winner)

	requests, err := s.draw.GetRandomnessRequests(s.ctx, &model.GetRandomnessRequestsRequest{RaffleID: testutil.Raffle3.ID})
	require.NoError(t, err)
	require.Len(t, requests.Requests, 2)
	require.Equal(t, "STALE", requests.Requests[0].Status)
	require.Equal(t, "FULFILLED", requests.Requests[1].Status)
	require.Equal(t, "retry", requests.Requests[1].Trigger)
}

func Test_drawDomain_RetryDraw(t *testing.T) {
	s := newSuite(t)

	_, err := s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle1.ID})
	require.Equal(t, errorx.New(errorx.InvalidState, "Raffle is not waiting for randomness"), err)

	s.fillRaffle1(t)

	_, err = s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle1.ID})
	require.True(t, errorx.Is(err, errorx.RetryCoolingDown))

	err = xcontext.DB(s.ctx).Model(&entity.Raffle{}).Where("id=?", testutil.Raffle1.ID).
		Update("last_entropy_request_time", time.Now().Add(-2*time.Hour)).Error
	require.NoError(t, err)

	got, err := s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle1.ID})
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Nonce)
	require.Equal(t, []randomnessCall{
		{raffleID: testutil.Raffle1.ID, nonce: 1},
		{raffleID: testutil.Raffle1.ID, nonce: 2},
	}, s.randomnessCalls())

	// The retry restarts the cool-down.
	_, err = s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle1.ID})
	require.True(t, errorx.Is(err, errorx.RetryCoolingDown))

	_, err = s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
		RaffleID: testutil.Raffle1.ID, Nonce: 2, RandomValue: "7",
	})
	require.NoError(t, err)

	_, err = s.draw.RetryDraw(s.ctx, &model.RetryDrawRequest{RaffleID: testutil.Raffle1.ID})
	require.Equal(t, errorx.New(errorx.InvalidState, "Raffle is not waiting for randomness"), err)
}

func Test_drawDomain_OnRandomnessFulfilled(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, s *suite)
		req     *model.OnRandomnessFulfilledRequest
		want    *model.OnRandomnessFulfilledResponse
		wantErr error
	}{
		{
			name:  "second ticket wins",
			setup: func(t *testing.T, s *suite) { s.fillRaffle1(t) },
			req:   &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "7"},
			want:  &model.OnRandomnessFulfilledResponse{Winner: testutil.Bob, WinningIndex: 1},
		},
		{
			name:  "hexadecimal value",
			setup: func(t *testing.T, s *suite) { s.fillRaffle1(t) },
			req:   &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "0x10"},
			want:  &model.OnRandomnessFulfilledResponse{Winner: testutil.Alice, WinningIndex: 0},
		},
		{
			name:    "raffle is active",
			req:     &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 0, RandomValue: "7"},
			wantErr: errorx.New(errorx.InvalidCallback, "Raffle is not waiting for randomness"),
		},
		{
			name:    "wrong nonce",
			setup:   func(t *testing.T, s *suite) { s.fillRaffle1(t) },
			req:     &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 2, RandomValue: "7"},
			wantErr: errorx.New(errorx.InvalidCallback, "Unexpected nonce 2"),
		},
		{
			name:    "invalid value",
			setup:   func(t *testing.T, s *suite) { s.fillRaffle1(t) },
			req:     &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "seven"},
			wantErr: errorx.New(errorx.InvalidCallback, "Invalid random value"),
		},
		{
			name:    "negative value",
			setup:   func(t *testing.T, s *suite) { s.fillRaffle1(t) },
			req:     &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "-7"},
			wantErr: errorx.New(errorx.InvalidCallback, "Invalid random value"),
		},
		{
			name:    "unknown raffle",
			req:     &model.OnRandomnessFulfilledRequest{RaffleID: 100, Nonce: 1, RandomValue: "7"},
			wantErr: errorx.New(errorx.NotFound, "Not found raffle"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)
			if tt.setup != nil {
				tt.setup(t, s)
			}

			got, err := s.draw.OnRandomnessFulfilled(s.ctx, tt.req)
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)

				if raffle, err := s.raffleRepo.GetByID(s.ctx, tt.req.RaffleID); err == nil {
					require.Empty(t, raffle.Winner)
					require.NotEqual(t, entity.RaffleCompleted, raffle.State)
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			raffle := s.getRaffle(t, tt.req.RaffleID)
			require.Equal(t, entity.RaffleCompleted, raffle.State)
			require.Equal(t, entity.EntropyFulfilled, raffle.EntropyState)
			require.Equal(t, tt.want.Winner, raffle.Winner)
			require.Equal(t, tt.want.WinningIndex, raffle.WinningIndex)

			request, err := s.randomnessRepo.Get(s.ctx, tt.req.RaffleID, tt.req.Nonce)
			require.NoError(t, err)
			require.Equal(t, entity.RandomnessFulfilled, request.Status)
			require.True(t, request.FulfilledAt.Valid)
		})
	}
}

func Test_drawDomain_OnRandomnessFulfilled_Duplicate(t *testing.T) {
	s := newSuite(t)
	s.fillRaffle1(t)

	req := &model.OnRandomnessFulfilledRequest{RaffleID: testutil.Raffle1.ID, Nonce: 1, RandomValue: "7"}
	_, err := s.draw.OnRandomnessFulfilled(s.ctx, req)
	require.NoError(t, err)

	// Same nonce with another value must not move the winner.
	req.RandomValue = "8"
	_, err = s.draw.OnRandomnessFulfilled(s.ctx, req)
	require.Equal(t, errorx.New(errorx.AlreadyFulfilled, "Randomness was already fulfilled"), err)

	raffle := s.getRaffle(t, testutil.Raffle1.ID)
	require.Equal(t, testutil.Bob, raffle.Winner)
	require.Equal(t, int64(1), raffle.WinningIndex)
}

func Test_drawDomain_OnRandomnessFulfilled_ZeroTickets(t *testing.T) {
	s := newSuite(t)

	got, err := s.draw.RequestDraw(s.ctx, &model.RequestDrawRequest{RaffleID: testutil.Raffle2.ID})
	require.NoError(t, err)

	_, err = s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
		RaffleID: testutil.Raffle2.ID, Nonce: got.Nonce, RandomValue: "7",
	})
	require.Equal(t, errorx.New(errorx.InvalidState, "Raffle has no tickets"), err)

	raffle := s.getRaffle(t, testutil.Raffle2.ID)
	require.Equal(t, entity.RaffleFinished, raffle.State)
	require.Equal(t, entity.EntropyRequested, raffle.EntropyState)
	require.Empty(t, raffle.Winner)

	request, err := s.randomnessRepo.Get(s.ctx, testutil.Raffle2.ID, got.Nonce)
	require.NoError(t, err)
	require.Equal(t, entity.RandomnessDispatched, request.Status)
}

func Test_drawDomain_WinnerRanges(t *testing.T) {
	// Bob owns tickets [0, 5) and Alice owns [5, 6).
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tests := []struct {
		name       string
		value      string
		wantIndex  int64
		wantWinner string
	}{
		{name: "first ticket", value: "0", wantIndex: 0, wantWinner: testutil.Bob},
		{name: "later purchase joins the first range", value: "2", wantIndex: 2, wantWinner: testutil.Bob},
		{name: "last ticket of the first range", value: "4", wantIndex: 4, wantWinner: testutil.Bob},
		{name: "second range", value: "5", wantIndex: 5, wantWinner: testutil.Alice},
		{name: "wrap around", value: "11", wantIndex: 5, wantWinner: testutil.Alice},
		{name: "max uint256", value: maxUint256.String(), wantIndex: 3, wantWinner: testutil.Bob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)
			s.buy(t, testutil.Raffle3.ID, testutil.Bob, 2)
			s.buy(t, testutil.Raffle3.ID, testutil.Alice, 1)
			s.buy(t, testutil.Raffle3.ID, testutil.Bob, 3)
			s.expireRaffle(t, testutil.Raffle3.ID)

			draw, err := s.draw.RequestDraw(s.ctx, &model.RequestDrawRequest{RaffleID: testutil.Raffle3.ID})
			require.NoError(t, err)

			got, err := s.draw.OnRandomnessFulfilled(s.ctx, &model.OnRandomnessFulfilledRequest{
				RaffleID: testutil.Raffle3.ID, Nonce: draw.Nonce, RandomValue: tt.value,
			})
			require.NoError(t, err)
			require.Equal(t, tt.wantIndex, got.WinningIndex)
			require.Equal(t, tt.wantWinner, got.Winner)
		})
	}
}

func Test_resolveWinner(t *testing.T) {
	participants := []entity.Participant{
		{Address: "a", TicketCount: 1},
		{Address: "b", TicketCount: 2},
	}

	require.Equal(t, "a", resolveWinner(participants, 0))
	require.Equal(t, "b", resolveWinner(participants, 1))
	require.Equal(t, "b", resolveWinner(participants, 2))
	require.Equal(t, "", resolveWinner(participants, 3))
	require.Equal(t, "", resolveWinner(nil, 0))
}

func Test_drawDomain_HandleFulfilledEvent(t *testing.T) {
	s := newSuite(t)
	s.fillRaffle1(t)

	msg, err := json.Marshal(model.EntropyFulfilledEvent{
		RaffleID:    "1",
		Nonce:       "1",
		RandomValue: "7",
		TxHash:      "0xabc",
		BlockNumber: 10,
	})
	require.NoError(t, err)

	publisher := pubsub.NewLocalPublisher()
	publisher.Register("entropy.fulfilled", s.draw.HandleFulfilledEvent)
	require.NoError(t, publisher.Publish(s.ctx, "entropy.fulfilled", &pubsub.Pack{Key: []byte("1"), Msg: msg}))

	raffle := s.getRaffle(t, testutil.Raffle1.ID)
	require.Equal(t, entity.RaffleCompleted, raffle.State)
	require.Equal(t, testutil.Bob, raffle.Winner)

	// A replayed message is dropped.
	require.NoError(t, publisher.Publish(s.ctx, "entropy.fulfilled", &pubsub.Pack{Key: []byte("1"), Msg: msg}))
	require.Equal(t, testutil.Bob, s.getRaffle(t, testutil.Raffle1.ID).Winner)

	// Broken payloads are dropped as well.
	require.NoError(t, publisher.Publish(s.ctx, "entropy.fulfilled", &pubsub.Pack{Msg: []byte("{")}))
}

func Test_parseRandomValue(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "7", want: "7", wantOK: true},
		{in: " 42 ", want: "42", wantOK: true},
		{in: "0xff", want: "255", wantOK: true},
		{in: "0XFF", want: "255", wantOK: true},
		{in: "0x", wantOK: false},
		{in: "", wantOK: false},
		{in: "-1", wantOK: false},
		{in: "1.5", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseRandomValue(tt.in)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got.String())
			}
		})
	}
}
