package entropy

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/questx-lab/raffle/contract"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/mocks"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_localProvider(t *testing.T) {
	ctx := testutil.MockContext()

	received := make(chan model.EntropyFulfilledEvent, 1)
	publisher := pubsub.NewLocalPublisher()
	publisher.Register("entropy.fulfilled", func(ctx context.Context, pack *pubsub.Pack, _ time.Time) {
		var event model.EntropyFulfilledEvent
		if err := json.Unmarshal(pack.Msg, &event); err == nil {
			received <- event
		}
	})

	provider := NewLocalProvider(ctx, 0, publisher, "entropy.fulfilled")
	requestID, err := provider.RequestRandomness(ctx, 3, 2)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(requestID, "local:"))

	select {
	case event := <-received:
		require.Equal(t, "3", event.RaffleID)
		require.Equal(t, "2", event.Nonce)
		_, ok := new(big.Int).SetString(event.RandomValue, 10)
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("entropy was not delivered")
	}
}

func Test_pythProvider(t *testing.T) {
	ctx := testutil.MockContext()
	entropyContract := common.HexToAddress("0x00000000000000000000000000000000000000ee")

	feeOutput, err := contract.RaffleEntropyABI.Methods["getFee"].Outputs.Pack(big.NewInt(15))
	require.NoError(t, err)

	requested := contract.RaffleEntropyABI.Events["EntropyRequested"]
	logData, err := requested.Inputs.NonIndexed().Pack(uint64(2), uint64(77))
	require.NoError(t, err)

	transactor := &mocks.Transactor{}
	transactor.On("Call", mock.Anything, entropyContract, mock.Anything).Return(feeOutput, nil)
	transactor.On("Send", mock.Anything, entropyContract, mock.Anything, big.NewInt(15)).
		Return(&ethtypes.Receipt{
			Status: 1,
			Logs: []*ethtypes.Log{{
				Topics: []common.Hash{requested.ID, common.BigToHash(big.NewInt(3))},
				Data:   logData,
			}},
		}, nil)

	provider := NewPythProvider(entropyContract.Hex(), transactor)
	requestID, err := provider.RequestRandomness(ctx, 3, 2)
	require.NoError(t, err)
	require.Equal(t, "pyth:77", requestID)
	transactor.AssertExpectations(t)
}
