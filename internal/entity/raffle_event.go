package entity

import "github.com/questx-lab/raffle/pkg/enum"

type RaffleEventType string

var (
	RaffleEventCreated             = enum.New(RaffleEventType("raffle_created"), "RaffleCreated")
	RaffleEventTicketPurchased     = enum.New(RaffleEventType("ticket_purchased"), "TicketPurchased")
	RaffleEventStateChanged        = enum.New(RaffleEventType("state_changed"), "RaffleStateChanged")
	RaffleEventDrawRequested       = enum.New(RaffleEventType("draw_requested"), "DrawRequested")
	RaffleEventRandomnessFulfilled = enum.New(RaffleEventType("randomness_fulfilled"), "RandomnessFulfilled")
	RaffleEventPrizeClaimed        = enum.New(RaffleEventType("prize_claimed"), "PrizeClaimed")
)

type RaffleEvent struct {
	Base

	RaffleID uint64 `gorm:"index"`
	Type     RaffleEventType
	Data     Map
}
