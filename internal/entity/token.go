package entity

import "time"

type TokenBalance struct {
	Address   string `gorm:"primaryKey;size:42"`
	Balance   BigInt
	UpdatedAt time.Time
}

type TokenAllowance struct {
	Owner     string `gorm:"primaryKey;size:42"`
	Spender   string `gorm:"primaryKey;size:42"`
	Amount    BigInt
	UpdatedAt time.Time
}
