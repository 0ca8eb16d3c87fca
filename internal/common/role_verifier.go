package common

import (
	"context"
	"errors"
	"strings"

	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"golang.org/x/exp/slices"
)

type RaffleRole string

const (
	RaffleRoleOwner  RaffleRole = "owner"
	RaffleRoleWinner RaffleRole = "winner"
)

// ClaimRoles returns the roles allowed to claim a prize under the policy. An unknown policy falls
// back to the winner only.
func ClaimRoles(policy config.ClaimPolicy) []RaffleRole {
	switch policy {
	case config.ClaimPolicyOwner:
		return []RaffleRole{RaffleRoleOwner}
	case config.ClaimPolicyAny:
		return []RaffleRole{RaffleRoleOwner, RaffleRoleWinner}
	default:
		return []RaffleRole{RaffleRoleWinner}
	}
}

type RoleVerifier struct{}

func NewRoleVerifier() *RoleVerifier {
	return &RoleVerifier{}
}

// Roles returns the roles the requesting address holds. The raffle is optional.
func (verifier *RoleVerifier) Roles(ctx context.Context, raffle *entity.Raffle) []RaffleRole {
	address := xcontext.RequestUserID(ctx)
	if address == "" {
		return nil
	}

	roles := []RaffleRole{}
	if strings.EqualFold(address, xcontext.Configs(ctx).Raffle.Owner) {
		roles = append(roles, RaffleRoleOwner)
	}

	if raffle != nil && raffle.Winner != "" && strings.EqualFold(address, raffle.Winner) {
		roles = append(roles, RaffleRoleWinner)
	}

	return roles
}

func (verifier *RoleVerifier) Verify(ctx context.Context, raffle *entity.Raffle, requiredRoles ...RaffleRole) error {
	for _, role := range verifier.Roles(ctx, raffle) {
		if slices.Contains(requiredRoles, role) {
			return nil
		}
	}

	return errors.New("user role does not have permission")
}
