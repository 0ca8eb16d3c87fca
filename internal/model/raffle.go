package model

type CreateRaffleRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	MaxTickets   int64  `json:"max_tickets"`
}

type CreateRaffleResponse struct {
	ID    uint64 `json:"id"`
	State string `json:"state"`
}

type GetRaffleRequest struct {
	ID uint64 `json:"id" form:"id"`
}

type GetRaffleResponse struct {
	Raffle Raffle `json:"raffle"`
}

type GetAllRafflesRequest struct {
	State  string `json:"state" form:"state"`
	Offset int    `json:"offset" form:"offset"`
	Limit  int    `json:"limit" form:"limit"`
}

type GetAllRafflesResponse struct {
	Raffles []Raffle `json:"raffles"`
}

type GetParticipantInfoRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
	Address  string `json:"address" form:"address"`
}

type GetParticipantInfoResponse struct {
	Participant Participant `json:"participant"`
}

type GetMyRafflesRequest struct{}

type GetMyRafflesResponse struct {
	Raffles      []Raffle      `json:"raffles"`
	Participants []Participant `json:"participants"`
}

type GetRaffleEventsRequest struct {
	RaffleID uint64 `json:"raffle_id" form:"raffle_id"`
}

type GetRaffleEventsResponse struct {
	Events []RaffleEvent `json:"events"`
}
