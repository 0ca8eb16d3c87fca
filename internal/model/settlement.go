package model

type ClaimPrizeRequest struct {
	RaffleID uint64 `json:"raffle_id"`
}

type ClaimPrizeResponse struct {
	Winner string `json:"winner"`
	Payout string `json:"payout"`
	Fee    string `json:"fee"`
	Status string `json:"status"`
}

type GetSettlementRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
}

type GetSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}
