package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type Transactor struct {
	mock.Mock
}

func (t *Transactor) From() common.Address {
	args := t.Called()
	return args.Get(0).(common.Address)
}

func (t *Transactor) Call(arg1 context.Context, arg2 common.Address, arg3 []byte) ([]byte, error) {
	args := t.Called(arg1, arg2, arg3)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (t *Transactor) Send(arg1 context.Context, arg2 common.Address, arg3 []byte, arg4 *big.Int) (*ethtypes.Receipt, error) {
	args := t.Called(arg1, arg2, arg3, arg4)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ethtypes.Receipt), args.Error(1)
}
