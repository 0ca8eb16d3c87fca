package domain

import (
	"testing"

	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_paymentDomain_GetBalance(t *testing.T) {
	s := newSuite(t)

	got, err := s.wallet.GetBalance(s.as(testutil.Alice), &model.GetBalanceRequest{})
	require.NoError(t, err)
	require.Equal(t, &model.GetBalanceResponse{Address: testutil.Alice, Balance: "1000", Allowance: "1000"}, got)

	got, err = s.wallet.GetBalance(s.ctx, &model.GetBalanceRequest{Address: testutil.Platform})
	require.NoError(t, err)
	require.Equal(t, &model.GetBalanceResponse{Address: testutil.Platform, Balance: "0", Allowance: "0"}, got)

	_, err = s.wallet.GetBalance(s.ctx, &model.GetBalanceRequest{})
	require.Equal(t, errorx.New(errorx.InvalidInput, "Address is required"), err)
}

func Test_paymentDomain_Approve(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		amount  string
		wantErr error
	}{
		{name: "happy case", caller: testutil.Alice, amount: "30"},
		{name: "revoke", caller: testutil.Alice, amount: "0"},
		{name: "anonymous", amount: "30", wantErr: errorx.New(errorx.Unauthenticated, "Owner is unknown")},
		{name: "negative", caller: testutil.Alice, amount: "-1", wantErr: errorx.New(errorx.InvalidInput, "Invalid amount")},
		{name: "not a number", caller: testutil.Alice, amount: "ten", wantErr: errorx.New(errorx.InvalidInput, "Invalid amount")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)

			got, err := s.wallet.Approve(s.as(tt.caller), &model.ApproveRequest{Amount: tt.amount})
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.amount, got.Allowance)

			balance, err := s.wallet.GetBalance(s.as(tt.caller), &model.GetBalanceRequest{})
			require.NoError(t, err)
			require.Equal(t, tt.amount, balance.Allowance)
		})
	}
}

func Test_paymentDomain_Approve_LimitsPurchases(t *testing.T) {
	s := newSuite(t)

	_, err := s.wallet.Approve(s.as(testutil.Alice), &model.ApproveRequest{Amount: "10"})
	require.NoError(t, err)

	_, err = s.ticket.BuyTickets(s.as(testutil.Alice), &model.BuyTicketsRequest{RaffleID: testutil.Raffle3.ID, Count: 1})
	require.NoError(t, err)

	_, err = s.ticket.BuyTickets(s.as(testutil.Alice), &model.BuyTicketsRequest{RaffleID: testutil.Raffle3.ID, Count: 1})
	require.Equal(t, errorx.New(errorx.TransferFailed, "Cannot collect ticket payment"), err)
}

func Test_paymentDomain_Mint(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		req     *model.MintRequest
		want    string
		wantErr error
	}{
		{
			name:   "happy case",
			caller: testutil.Owner,
			req:    &model.MintRequest{Address: testutil.Alice, Amount: "500"},
			want:   "1500",
		},
		{
			name:   "new account",
			caller: testutil.Owner,
			req:    &model.MintRequest{Address: "dave", Amount: "5"},
			want:   "5",
		},
		{
			name:    "not owner",
			caller:  testutil.Alice,
			req:     &model.MintRequest{Address: testutil.Alice, Amount: "500"},
			wantErr: errorx.New(errorx.Unauthorized, "Only the owner can mint tokens"),
		},
		{
			name:    "zero amount",
			caller:  testutil.Owner,
			req:     &model.MintRequest{Address: testutil.Alice, Amount: "0"},
			wantErr: errorx.New(errorx.InvalidInput, "Invalid amount"),
		},
		{
			name:    "no address",
			caller:  testutil.Owner,
			req:     &model.MintRequest{Amount: "1"},
			wantErr: errorx.New(errorx.InvalidInput, "Address is required"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSuite(t)

			got, err := s.wallet.Mint(s.as(tt.caller), tt.req)
			if tt.wantErr != nil {
				require.Equal(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got.Balance)
		})
	}
}
