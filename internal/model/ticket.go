package model

type BuyTicketsRequest struct {
	RaffleID        uint64 `json:"raffle_id"`
	Count           int64  `json:"count"`
	SourceChain     string `json:"source_chain"`
	ExternalAddress string `json:"external_address"`
}

type BuyTicketsResponse struct {
	TicketCount   int64  `json:"ticket_count"`
	TotalTickets  int64  `json:"total_tickets"`
	PrizePool     string `json:"prize_pool"`
	DrawRequested bool   `json:"draw_requested"`
}

type GetTicketCountRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
	Address  string `json:"address" form:"address"`
}

type GetTicketCountResponse struct {
	TicketCount int64 `json:"ticket_count"`
}

type GetPurchasesRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
}

type GetPurchasesResponse struct {
	Purchases []TicketPurchase `json:"purchases"`
}
