package payment

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/questx-lab/raffle/contract"
	"github.com/questx-lab/raffle/mocks"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tokenAddress  = "0x00000000000000000000000000000000000000aa"
	escrowAddress = "0x00000000000000000000000000000000000000e5"
	aliceAddress  = "0x0000000000000000000000000000000000000a11"
)

func Test_erc20Service_BalanceOf(t *testing.T) {
	ctx := testutil.MockContext()

	output, err := contract.ERC20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	transactor := &mocks.Transactor{}
	transactor.On("Call", mock.Anything, common.HexToAddress(tokenAddress), mock.Anything).Return(output, nil)

	s := NewERC20Service(tokenAddress, transactor)
	balance, err := s.BalanceOf(ctx, aliceAddress)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42).String(), balance.String())
}

func Test_erc20Service_TransferFrom(t *testing.T) {
	ctx := testutil.MockContext()

	expected, err := contract.ERC20ABI.Pack("transferFrom",
		common.HexToAddress(aliceAddress), common.HexToAddress(escrowAddress), big.NewInt(10))
	require.NoError(t, err)

	transactor := &mocks.Transactor{}
	transactor.On("Send", mock.Anything, common.HexToAddress(tokenAddress), expected, (*big.Int)(nil)).
		Return(&ethtypes.Receipt{Status: 1, TxHash: common.HexToHash("0xbeef")}, nil)

	s := NewERC20Service(tokenAddress, transactor)
	ref, err := s.TransferFrom(ctx, aliceAddress, escrowAddress, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xbeef").Hex(), ref)
}

func Test_erc20Service_Transfer(t *testing.T) {
	ctx := testutil.MockContext()

	transactor := &mocks.Transactor{}
	transactor.On("From").Return(common.HexToAddress(escrowAddress))
	transactor.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("reverted"))

	s := NewERC20Service(tokenAddress, transactor)

	_, err := s.Transfer(ctx, aliceAddress, escrowAddress, big.NewInt(10))
	require.ErrorIs(t, err, ErrNotSupported)

	_, err = s.Transfer(ctx, escrowAddress, aliceAddress, big.NewInt(10))
	require.EqualError(t, err, "reverted")

	require.ErrorIs(t, s.Mint(ctx, aliceAddress, big.NewInt(1)), ErrNotSupported)
}
