package entropy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/contract"
	"github.com/questx-lab/raffle/internal/domain/blockchain/eth"
	"github.com/questx-lab/raffle/pkg/crypto"
)

// pythProvider requests entropy through the raffle entropy consumer contract. The callback of Pyth
// Entropy is picked up by the eth.EntropyWatcher.
type pythProvider struct {
	contract   common.Address
	transactor eth.Transactor
}

func NewPythProvider(contractAddress string, transactor eth.Transactor) *pythProvider {
	return &pythProvider{
		contract:   common.HexToAddress(contractAddress),
		transactor: transactor,
	}
}

func (p *pythProvider) RequestRandomness(ctx context.Context, raffleID, nonce uint64) (string, error) {
	fee, err := p.getFee(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot get entropy fee: %w", err)
	}

	userRandom, err := crypto.GenerateRandom32Bytes()
	if err != nil {
		return "", err
	}

	data, err := contract.RaffleEntropyABI.Pack(
		"requestEntropy", new(big.Int).SetUint64(raffleID), nonce, userRandom)
	if err != nil {
		return "", err
	}

	receipt, err := p.transactor.Send(ctx, p.contract, data, fee)
	if err != nil {
		return "", err
	}

	event := contract.RaffleEntropyABI.Events["EntropyRequested"]
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}

		values := map[string]any{}
		if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
			return "", err
		}

		if seq, ok := values["sequenceNumber"].(uint64); ok {
			return fmt.Sprintf("pyth:%d", seq), nil
		}
	}

	return receipt.TxHash.Hex(), nil
}

func (p *pythProvider) getFee(ctx context.Context) (*big.Int, error) {
	data, err := contract.RaffleEntropyABI.Pack("getFee")
	if err != nil {
		return nil, err
	}

	output, err := p.transactor.Call(ctx, p.contract, data)
	if err != nil {
		return nil, err
	}

	values, err := contract.RaffleEntropyABI.Unpack("getFee", output)
	if err != nil {
		return nil, err
	}

	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected output of getFee: %v", values)
	}

	fee, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected fee type %T", values[0])
	}

	return fee, nil
}
