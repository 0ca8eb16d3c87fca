package common

import (
	"context"
	"testing"

	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func TestRoleVerifier(t *testing.T) {
	cfg := config.Configs{Raffle: config.RaffleConfigs{Owner: "0xOwner"}}
	raffle := &entity.Raffle{Winner: "0xWinner"}

	tests := []struct {
		name    string
		address string
		policy  config.ClaimPolicy
		wantErr bool
	}{
		{name: "winner under winner policy", address: "0xwinner", policy: config.ClaimPolicyWinner},
		{name: "owner under winner policy", address: "0xOwner", policy: config.ClaimPolicyWinner, wantErr: true},
		{name: "owner under owner policy", address: "0xowner", policy: config.ClaimPolicyOwner},
		{name: "winner under owner policy", address: "0xWinner", policy: config.ClaimPolicyOwner, wantErr: true},
		{name: "winner under any policy", address: "0xWinner", policy: config.ClaimPolicyAny},
		{name: "owner under any policy", address: "0xOwner", policy: config.ClaimPolicyAny},
		{name: "stranger under any policy", address: "0xOther", policy: config.ClaimPolicyAny, wantErr: true},
		{name: "anonymous", address: "", policy: config.ClaimPolicyAny, wantErr: true},
		{name: "unknown policy", address: "0xWinner", policy: "whatever"},
	}

	verifier := NewRoleVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := xcontext.WithConfigs(xcontext.WithRequestUserID(context.Background(), tt.address), cfg)
			err := verifier.Verify(ctx, raffle, ClaimRoles(tt.policy)...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
