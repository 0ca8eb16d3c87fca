package entity

import "time"

type Participant struct {
	RaffleID uint64 `gorm:"primaryKey"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`
	Address  string `gorm:"primaryKey;size:42"`

	TicketCount      int64
	FirstPurchaseSeq int64 `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketPurchase struct {
	Base

	RaffleID uint64 `gorm:"index:idx_ticket_purchases_raffle_id_sequence,unique"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`
	Sequence int64  `gorm:"index:idx_ticket_purchases_raffle_id_sequence,unique"`

	Buyer      string `gorm:"index"`
	Count      int64
	StartIndex int64
	Amount     BigInt

	SourceChain     string
	ExternalAddress string
}
