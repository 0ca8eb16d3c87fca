package entity

import (
	"database/sql"
	"time"

	"github.com/questx-lab/raffle/pkg/enum"
)

type RaffleState string

var (
	RaffleActive    = enum.New(RaffleState("active"), "ACTIVE")
	RaffleFinished  = enum.New(RaffleState("finished"), "FINISHED")
	RaffleCompleted = enum.New(RaffleState("completed"), "COMPLETED")
)

// Older clients name the states after the contract enum.
func init() {
	enum.Alias(RaffleActive, "OPEN")
	enum.Alias(RaffleFinished, "DRAWING")
	enum.Alias(RaffleCompleted, "COMPLETE")
}

type EntropyState string

var (
	EntropyNone      = enum.New(EntropyState("none"), "NONE")
	EntropyRequested = enum.New(EntropyState("requested"), "REQUESTED")
	EntropyFulfilled = enum.New(EntropyState("fulfilled"), "FULFILLED")
)

type Raffle struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name        string `gorm:"size:50"`
	Description string `gorm:"size:200"`
	EndTime     time.Time
	MaxTickets  int64
	TicketPrice BigInt

	TotalTickets  int64
	PurchaseCount int64
	PrizePool     BigInt
	Claimed       bool

	State        RaffleState `gorm:"index"`
	Winner       string
	WinningIndex int64

	EntropyState           EntropyState
	EntropyNonce           uint64
	LastEntropyRequestTime sql.NullTime
}

// CapReached reports whether no ticket can be sold anymore because of the ticket cap.
func (r *Raffle) CapReached() bool {
	return r.MaxTickets > 0 && r.TotalTickets >= r.MaxTickets
}

func (r *Raffle) Expired(now time.Time) bool {
	return !now.Before(r.EndTime)
}
