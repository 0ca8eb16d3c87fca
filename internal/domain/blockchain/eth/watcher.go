package eth

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/questx-lab/raffle/contract"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/questx-lab/raffle/pkg/xredis"
)

const (
	MaxBlockRange    = 1_000
	ConfirmedBlocks  = 2
	DefaultBlockTime = 3 * time.Second
)

// EntropyWatcher scans the entropy consumer contract for fulfilled requests and forwards them to
// the fulfilled topic. The last scanned block is checkpointed in redis.
type EntropyWatcher struct {
	chain      string
	contract   ethcommon.Address
	startBlock uint64
	topic      string
	blockTime  time.Duration

	client      EthClient
	redisClient xredis.Client
	publisher   pubsub.Publisher
}

func NewEntropyWatcher(
	ctx context.Context,
	client EthClient,
	redisClient xredis.Client,
	publisher pubsub.Publisher,
) *EntropyWatcher {
	cfg := xcontext.Configs(ctx)
	blockTime := cfg.Eth.PollInterval
	if blockTime <= 0 {
		blockTime = DefaultBlockTime
	}

	return &EntropyWatcher{
		chain:       cfg.Eth.Chain.Chain,
		contract:    ethcommon.HexToAddress(cfg.Entropy.ContractAddress),
		startBlock:  cfg.Entropy.StartBlock,
		topic:       cfg.Entropy.FulfilledTopic,
		blockTime:   blockTime,
		client:      client,
		redisClient: redisClient,
		publisher:   publisher,
	}
}

func (w *EntropyWatcher) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Starting entropy watcher on chain %s for contract %s", w.chain, w.contract.Hex())

	for {
		scanned, err := w.ScanOnce(ctx)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot scan entropy logs on chain %s: %v", w.chain, err)
		}

		// Keep scanning without waiting while we are catching up.
		if err == nil && scanned == MaxBlockRange {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.blockTime):
		}
	}
}

// ScanOnce processes at most MaxBlockRange confirmed blocks after the checkpoint and returns the
// number of blocks it covered.
func (w *EntropyWatcher) ScanOnce(ctx context.Context) (uint64, error) {
	from, err := w.nextBlock(ctx)
	if err != nil {
		return 0, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
	head, err := w.client.BlockNumber(timeoutCtx)
	cancel()
	if err != nil {
		return 0, err
	}

	if head < ConfirmedBlocks || head-ConfirmedBlocks < from {
		return 0, nil
	}

	to := head - ConfirmedBlocks
	if to-from+1 > MaxBlockRange {
		to = from + MaxBlockRange - 1
	}

	timeoutCtx, cancel = context.WithTimeout(ctx, RpcTimeOut)
	logs, err := w.client.FilterLogs(timeoutCtx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []ethcommon.Address{w.contract},
		Topics:    [][]ethcommon.Hash{{contract.RaffleEntropyABI.Events["EntropyFulfilled"].ID}},
	})
	cancel()
	if err != nil {
		return 0, err
	}

	for _, log := range logs {
		event, err := ParseFulfilledLog(log)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot parse entropy log in tx %s: %v", log.TxHash.Hex(), err)
			continue
		}

		msg, err := json.Marshal(event)
		if err != nil {
			return 0, err
		}

		// The checkpoint is not moved until every log of the range is published, consumers ignore
		// the duplicates of a partially published range.
		if err := w.publisher.Publish(ctx, w.topic, &pubsub.Pack{Key: []byte(event.RaffleID), Msg: msg}); err != nil {
			return 0, err
		}

		xcontext.Logger(ctx).Infof("Entropy fulfilled for raffle %s nonce %s", event.RaffleID, event.Nonce)
	}

	if err := w.redisClient.Set(ctx, w.checkpointKey(), strconv.FormatUint(to, 10)); err != nil {
		return 0, err
	}

	return to - from + 1, nil
}

func (w *EntropyWatcher) nextBlock(ctx context.Context) (uint64, error) {
	value, err := w.redisClient.Get(ctx, w.checkpointKey())
	if err == xredis.ErrNotFound {
		return w.startBlock, nil
	}

	if err != nil {
		return 0, err
	}

	last, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid checkpoint %q: %w", value, err)
	}

	return last + 1, nil
}

func (w *EntropyWatcher) checkpointKey() string {
	return common.RedisKeyEntropyCheckpoint(w.chain, w.contract.Hex())
}

func ParseFulfilledLog(log ethtypes.Log) (*model.EntropyFulfilledEvent, error) {
	event := contract.RaffleEntropyABI.Events["EntropyFulfilled"]
	if len(log.Topics) != 2 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("unexpected topics %v", log.Topics)
	}

	values := map[string]any{}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return nil, err
	}

	nonce, ok := values["nonce"].(uint64)
	if !ok {
		return nil, fmt.Errorf("invalid nonce %v", values["nonce"])
	}

	randomNumber, ok := values["randomNumber"].([32]byte)
	if !ok {
		return nil, fmt.Errorf("invalid random number %v", values["randomNumber"])
	}

	return &model.EntropyFulfilledEvent{
		RaffleID:    new(big.Int).SetBytes(log.Topics[1].Bytes()).String(),
		Nonce:       strconv.FormatUint(nonce, 10),
		RandomValue: ethcommon.BytesToHash(randomNumber[:]).Hex(),
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
	}, nil
}
