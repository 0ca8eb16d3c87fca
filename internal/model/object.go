package model

type Raffle struct {
	ID                     uint64 `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	CreatedAt              string `json:"created_at"`
	EndTime                string `json:"end_time"`
	MaxTickets             int64  `json:"max_tickets"`
	TicketPrice            string `json:"ticket_price"`
	TotalTickets           int64  `json:"total_tickets"`
	PrizePool              string `json:"prize_pool"`
	State                  string `json:"state"`
	Winner                 string `json:"winner,omitempty"`
	EntropyState           string `json:"entropy_state"`
	EntropyNonce           uint64 `json:"entropy_nonce"`
	LastEntropyRequestTime string `json:"last_entropy_request_time,omitempty"`
	Claimed                bool   `json:"claimed"`
}

type Participant struct {
	RaffleID    uint64 `json:"raffle_id"`
	Address     string `json:"address"`
	TicketCount int64  `json:"ticket_count"`
	IsWinner    bool   `json:"is_winner"`
}

type TicketPurchase struct {
	Sequence        int64  `json:"sequence"`
	Buyer           string `json:"buyer"`
	Count           int64  `json:"count"`
	StartIndex      int64  `json:"start_index"`
	Amount          string `json:"amount"`
	SourceChain     string `json:"source_chain,omitempty"`
	ExternalAddress string `json:"external_address,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type RandomnessRequest struct {
	Nonce             uint64 `json:"nonce"`
	Trigger           string `json:"trigger"`
	ProviderRequestID string `json:"provider_request_id,omitempty"`
	Status            string `json:"status"`
	RandomValue       string `json:"random_value,omitempty"`
	RequestedAt       string `json:"requested_at"`
	FulfilledAt       string `json:"fulfilled_at,omitempty"`
}

type Settlement struct {
	RaffleID   uint64 `json:"raffle_id"`
	Winner     string `json:"winner"`
	ClaimedBy  string `json:"claimed_by"`
	PrizePool  string `json:"prize_pool"`
	FeePercent int64  `json:"fee_percent"`
	Fee        string `json:"fee"`
	Payout     string `json:"payout"`
	Status     string `json:"status"`
	PayoutRef  string `json:"payout_ref,omitempty"`
	FeeRef     string `json:"fee_ref,omitempty"`
}

type RaffleEvent struct {
	ID        string         `json:"id"`
	RaffleID  uint64         `json:"raffle_id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"created_at"`
}
