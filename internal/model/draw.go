package model

type RequestDrawRequest struct {
	RaffleID uint64 `json:"raffle_id"`
}

type RequestDrawResponse struct {
	Nonce         uint64 `json:"nonce"`
	RequestStatus string `json:"request_status"`
}

type RetryDrawRequest struct {
	RaffleID uint64 `json:"raffle_id"`
}

type RetryDrawResponse struct {
	Nonce         uint64 `json:"nonce"`
	RequestStatus string `json:"request_status"`
}

type OnRandomnessFulfilledRequest struct {
	RaffleID uint64 `json:"raffle_id" mapstructure:"raffle_id"`
	Nonce    uint64 `json:"nonce" mapstructure:"nonce"`

	// RandomValue is a decimal or 0x-prefixed hexadecimal unsigned integer.
	RandomValue string `json:"random_value" mapstructure:"random_value"`
}

type OnRandomnessFulfilledResponse struct {
	Winner       string `json:"winner"`
	WinningIndex int64  `json:"winning_index"`
}

type GetRandomnessRequestsRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
}

type GetRandomnessRequestsResponse struct {
	Requests []RandomnessRequest `json:"requests"`
}

// EntropyFulfilledEvent is the message carried on the fulfilled topic. Numbers are strings so that
// no consumer loses precision.
type EntropyFulfilledEvent struct {
	RaffleID    string `json:"raffle_id"`
	Nonce       string `json:"nonce"`
	RandomValue string `json:"random_value"`
	TxHash      string `json:"tx_hash,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}
