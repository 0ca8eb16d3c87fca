package entity

import (
	"database/sql"

	"github.com/questx-lab/raffle/pkg/enum"
)

type RandomnessRequestStatus string

var (
	RandomnessPending    = enum.New(RandomnessRequestStatus("pending"), "PENDING")
	RandomnessDispatched = enum.New(RandomnessRequestStatus("dispatched"), "DISPATCHED")
	RandomnessFailed     = enum.New(RandomnessRequestStatus("failed"), "FAILED")
	RandomnessFulfilled  = enum.New(RandomnessRequestStatus("fulfilled"), "FULFILLED")
	RandomnessStale      = enum.New(RandomnessRequestStatus("stale"), "STALE")
)

type RandomnessRequest struct {
	Base

	RaffleID uint64 `gorm:"index:idx_randomness_requests_raffle_id_nonce,unique"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`
	Nonce    uint64 `gorm:"index:idx_randomness_requests_raffle_id_nonce,unique"`

	Trigger           string
	ProviderRequestID string
	Status            RandomnessRequestStatus
	Error             string
	RandomValue       string
	FulfilledAt       sql.NullTime
}
