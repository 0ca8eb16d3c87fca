package domain

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/fatih/structs"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type raffleCreatedEvent struct {
	Name        string `structs:"name"`
	EndTime     string `structs:"end_time"`
	MaxTickets  int64  `structs:"max_tickets"`
	TicketPrice string `structs:"ticket_price"`
	CreatedBy   string `structs:"created_by"`
}

type ticketPurchasedEvent struct {
	Buyer        string `structs:"buyer"`
	Count        int64  `structs:"count"`
	Sequence     int64  `structs:"sequence"`
	StartIndex   int64  `structs:"start_index"`
	Amount       string `structs:"amount"`
	TotalTickets int64  `structs:"total_tickets"`
}

type stateChangedEvent struct {
	From string `structs:"from"`
	To   string `structs:"to"`
}

type drawRequestedEvent struct {
	Nonce   uint64 `structs:"nonce"`
	Trigger string `structs:"trigger"`
	Retry   bool   `structs:"retry"`
}

type randomnessFulfilledEvent struct {
	Nonce        uint64 `structs:"nonce"`
	RandomValue  string `structs:"random_value"`
	WinningIndex int64  `structs:"winning_index"`
	Winner       string `structs:"winner"`
}

type prizeClaimedEvent struct {
	Winner    string `structs:"winner"`
	ClaimedBy string `structs:"claimed_by"`
	Payout    string `structs:"payout"`
	Fee       string `structs:"fee"`
	Status    string `structs:"status"`
}

// RaffleEventRecorder appends events to the audit trail within the transaction of the caller.
// Recorded events are published to the event topic by Publish once the transaction is committed.
type RaffleEventRecorder struct {
	eventRepo repository.RaffleEventRepository
	publisher pubsub.Publisher
	node      *snowflake.Node
}

func NewRaffleEventRecorder(
	eventRepo repository.RaffleEventRepository,
	publisher pubsub.Publisher,
	node *snowflake.Node,
) *RaffleEventRecorder {
	return &RaffleEventRecorder{
		eventRepo: eventRepo,
		publisher: publisher,
		node:      node,
	}
}

func (r *RaffleEventRecorder) Record(
	ctx context.Context, raffleID uint64, eventType entity.RaffleEventType, data any,
) (*entity.RaffleEvent, error) {
	event := &entity.RaffleEvent{
		Base:     entity.Base{ID: r.node.Generate().String()},
		RaffleID: raffleID,
		Type:     eventType,
		Data:     structs.Map(data),
	}

	if err := r.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (r *RaffleEventRecorder) Publish(ctx context.Context, events ...*entity.RaffleEvent) {
	if r.publisher == nil {
		return
	}

	topic := xcontext.Configs(ctx).Kafka.EventTopic
	for _, event := range events {
		if event == nil {
			continue
		}

		msg, err := json.Marshal(model.ConvertRaffleEvent(event))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal raffle event: %v", err)
			continue
		}

		key := []byte(strconv.FormatUint(event.RaffleID, 10))
		if err := r.publisher.Publish(ctx, topic, &pubsub.Pack{Key: key, Msg: msg}); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot publish event %s of raffle %d: %v", event.ID, event.RaffleID, err)
		}
	}
}
