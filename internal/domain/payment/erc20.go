package payment

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/contract"
	"github.com/questx-lab/raffle/internal/domain/blockchain/eth"
)

type erc20Service struct {
	token      common.Address
	transactor eth.Transactor
}

func NewERC20Service(token string, transactor eth.Transactor) *erc20Service {
	return &erc20Service{token: common.HexToAddress(token), transactor: transactor}
}

func (s *erc20Service) Transfer(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() < 0 {
		return "", ErrInvalidAmount
	}

	if !strings.EqualFold(from, s.transactor.From().Hex()) {
		return "", fmt.Errorf("%w: cannot transfer from %s", ErrNotSupported, from)
	}

	data, err := contract.ERC20ABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return "", err
	}

	return s.send(ctx, data)
}

func (s *erc20Service) TransferFrom(ctx context.Context, owner, to string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() < 0 {
		return "", ErrInvalidAmount
	}

	data, err := contract.ERC20ABI.Pack(
		"transferFrom", common.HexToAddress(owner), common.HexToAddress(to), amount)
	if err != nil {
		return "", err
	}

	return s.send(ctx, data)
}

func (s *erc20Service) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	return s.callUint256(ctx, "balanceOf", common.HexToAddress(address))
}

func (s *erc20Service) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	return s.callUint256(ctx, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

func (s *erc20Service) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	return ErrNotSupported
}

func (s *erc20Service) Mint(ctx context.Context, address string, amount *big.Int) error {
	return ErrNotSupported
}

func (s *erc20Service) send(ctx context.Context, data []byte) (string, error) {
	receipt, err := s.transactor.Send(ctx, s.token, data, nil)
	if err != nil {
		return "", err
	}

	return receipt.TxHash.Hex(), nil
}

func (s *erc20Service) callUint256(ctx context.Context, method string, args ...any) (*big.Int, error) {
	data, err := contract.ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	output, err := s.transactor.Call(ctx, s.token, data)
	if err != nil {
		return nil, err
	}

	values, err := contract.ERC20ABI.Unpack(method, output)
	if err != nil {
		return nil, err
	}

	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected output of %s: %v", method, values)
	}

	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected output type of %s: %T", method, values[0])
	}

	return value, nil
}
