package domain

import (
	"context"
	"errors"
	"math/big"

	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/payment"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type PaymentDomain interface {
	GetBalance(context.Context, *model.GetBalanceRequest) (*model.GetBalanceResponse, error)
	Approve(context.Context, *model.ApproveRequest) (*model.ApproveResponse, error)
	Mint(context.Context, *model.MintRequest) (*model.MintResponse, error)
}

type paymentDomain struct {
	paymentService payment.Service
	roleVerifier   *common.RoleVerifier
}

func NewPaymentDomain(paymentService payment.Service, roleVerifier *common.RoleVerifier) *paymentDomain {
	return &paymentDomain{paymentService: paymentService, roleVerifier: roleVerifier}
}

// GetBalance returns the token balance of the address and the allowance it has given to the
// escrow. The caller is used when no address is given.
func (d *paymentDomain) GetBalance(
	ctx context.Context, req *model.GetBalanceRequest,
) (*model.GetBalanceResponse, error) {
	address := requestAddress(ctx)
	if req.Address != "" {
		address = normalizeAddress(req.Address)
	}

	if address == "" {
		return nil, errorx.New(errorx.InvalidInput, "Address is required")
	}

	balance, err := d.paymentService.BalanceOf(ctx, address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get balance: %v", err)
		return nil, errorx.Unknown
	}

	escrow := xcontext.Configs(ctx).Raffle.EscrowAccount
	allowance, err := d.paymentService.Allowance(ctx, address, escrow)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get allowance: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetBalanceResponse{
		Address:   address,
		Balance:   balance.String(),
		Allowance: allowance.String(),
	}, nil
}

func (d *paymentDomain) Approve(
	ctx context.Context, req *model.ApproveRequest,
) (*model.ApproveResponse, error) {
	owner := requestAddress(ctx)
	if owner == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Owner is unknown")
	}

	amount, ok := parseAmount(req.Amount, true)
	if !ok {
		return nil, errorx.New(errorx.InvalidInput, "Invalid amount")
	}

	escrow := xcontext.Configs(ctx).Raffle.EscrowAccount
	if err := d.paymentService.Approve(ctx, owner, escrow, amount); err != nil {
		if errors.Is(err, payment.ErrNotSupported) {
			return nil, errorx.New(errorx.NotImplemented, "Approve the escrow with your wallet")
		}

		xcontext.Logger(ctx).Errorf("Cannot approve: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ApproveResponse{Allowance: amount.String()}, nil
}

// Mint credits test tokens, it is only available to the owner with the database ledger.
func (d *paymentDomain) Mint(
	ctx context.Context, req *model.MintRequest,
) (*model.MintResponse, error) {
	if err := d.roleVerifier.Verify(ctx, nil, common.RaffleRoleOwner); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only the owner can mint tokens")
	}

	address := normalizeAddress(req.Address)
	if address == "" {
		return nil, errorx.New(errorx.InvalidInput, "Address is required")
	}

	amount, ok := parseAmount(req.Amount, false)
	if !ok {
		return nil, errorx.New(errorx.InvalidInput, "Invalid amount")
	}

	if err := d.paymentService.Mint(ctx, address, amount); err != nil {
		if errors.Is(err, payment.ErrNotSupported) {
			return nil, errorx.New(errorx.NotImplemented, "Mint is not available for this token")
		}

		xcontext.Logger(ctx).Errorf("Cannot mint: %v", err)
		return nil, errorx.Unknown
	}

	balance, err := d.paymentService.BalanceOf(ctx, address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get balance: %v", err)
		return nil, errorx.Unknown
	}

	return &model.MintResponse{Balance: balance.String()}, nil
}

func parseAmount(s string, allowZero bool) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 || (!allowZero && amount.Sign() == 0) {
		return nil, false
	}

	return amount, true
}
