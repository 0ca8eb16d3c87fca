package entropy

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/crypto"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

// localProvider draws the random value from the operating system after a delay. It stands in for
// the on-chain provider in development.
type localProvider struct {
	rootCtx   context.Context
	delay     time.Duration
	publisher pubsub.Publisher
	topic     string
}

func NewLocalProvider(
	rootCtx context.Context,
	delay time.Duration,
	publisher pubsub.Publisher,
	topic string,
) *localProvider {
	return &localProvider{
		rootCtx:   rootCtx,
		delay:     delay,
		publisher: publisher,
		topic:     topic,
	}
}

func (p *localProvider) RequestRandomness(ctx context.Context, raffleID, nonce uint64) (string, error) {
	value, err := crypto.RandUint256()
	if err != nil {
		return "", err
	}

	requestID := "local:" + uuid.NewString()
	go p.fulfill(raffleID, nonce, value.String())

	return requestID, nil
}

func (p *localProvider) fulfill(raffleID, nonce uint64, value string) {
	if p.delay > 0 {
		select {
		case <-p.rootCtx.Done():
			return
		case <-time.After(p.delay):
		}
	}

	msg, err := json.Marshal(model.EntropyFulfilledEvent{
		RaffleID:    strconv.FormatUint(raffleID, 10),
		Nonce:       strconv.FormatUint(nonce, 10),
		RandomValue: value,
	})
	if err != nil {
		xcontext.Logger(p.rootCtx).Errorf("Cannot marshal local entropy: %v", err)
		return
	}

	key := []byte(strconv.FormatUint(raffleID, 10))
	if err := p.publisher.Publish(p.rootCtx, p.topic, &pubsub.Pack{Key: key, Msg: msg}); err != nil {
		xcontext.Logger(p.rootCtx).Errorf("Cannot publish local entropy of raffle %d: %v", raffleID, err)
	}
}
