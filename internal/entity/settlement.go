package entity

import "github.com/questx-lab/raffle/pkg/enum"

type SettlementStatus string

var SettlementPaid = enum.New(SettlementStatus("paid"), "PAID")

type Settlement struct {
	Base

	RaffleID uint64 `gorm:"uniqueIndex"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`

	Winner     string
	ClaimedBy  string
	PrizePool  BigInt
	FeePercent int64
	Fee        BigInt
	Payout     BigInt
	Status     SettlementStatus
	PayoutRef  string
	FeeRef     string
}
