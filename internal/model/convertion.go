package model

import (
	"time"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/enum"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertRaffle(raffle *entity.Raffle) Raffle {
	lastRequestTime := ""
	if raffle.LastEntropyRequestTime.Valid {
		lastRequestTime = raffle.LastEntropyRequestTime.Time.Format(DefaultTimeLayout)
	}

	return Raffle{
		ID:                     raffle.ID,
		Name:                   raffle.Name,
		Description:            raffle.Description,
		CreatedAt:              raffle.CreatedAt.Format(DefaultTimeLayout),
		EndTime:                raffle.EndTime.Format(DefaultTimeLayout),
		MaxTickets:             raffle.MaxTickets,
		TicketPrice:            raffle.TicketPrice.String(),
		TotalTickets:           raffle.TotalTickets,
		PrizePool:              raffle.PrizePool.String(),
		State:                  enum.ToString(raffle.State),
		Winner:                 raffle.Winner,
		EntropyState:           enum.ToString(raffle.EntropyState),
		EntropyNonce:           raffle.EntropyNonce,
		LastEntropyRequestTime: lastRequestTime,
		Claimed:                raffle.Claimed,
	}
}

func ConvertParticipant(participant *entity.Participant, winner string) Participant {
	return Participant{
		RaffleID:    participant.RaffleID,
		Address:     participant.Address,
		TicketCount: participant.TicketCount,
		IsWinner:    winner != "" && winner == participant.Address,
	}
}

func ConvertTicketPurchase(purchase *entity.TicketPurchase) TicketPurchase {
	return TicketPurchase{
		Sequence:        purchase.Sequence,
		Buyer:           purchase.Buyer,
		Count:           purchase.Count,
		StartIndex:      purchase.StartIndex,
		Amount:          purchase.Amount.String(),
		SourceChain:     purchase.SourceChain,
		ExternalAddress: purchase.ExternalAddress,
		CreatedAt:       purchase.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertRandomnessRequest(req *entity.RandomnessRequest) RandomnessRequest {
	fulfilledAt := ""
	if req.FulfilledAt.Valid {
		fulfilledAt = req.FulfilledAt.Time.Format(DefaultTimeLayout)
	}

	return RandomnessRequest{
		Nonce:             req.Nonce,
		Trigger:           req.Trigger,
		ProviderRequestID: req.ProviderRequestID,
		Status:            enum.ToString(req.Status),
		RandomValue:       req.RandomValue,
		RequestedAt:       req.CreatedAt.Format(DefaultTimeLayout),
		FulfilledAt:       fulfilledAt,
	}
}

func ConvertSettlement(settlement *entity.Settlement) Settlement {
	return Settlement{
		RaffleID:   settlement.RaffleID,
		Winner:     settlement.Winner,
		ClaimedBy:  settlement.ClaimedBy,
		PrizePool:  settlement.PrizePool.String(),
		FeePercent: settlement.FeePercent,
		Fee:        settlement.Fee.String(),
		Payout:     settlement.Payout.String(),
		Status:     enum.ToString(settlement.Status),
		PayoutRef:  settlement.PayoutRef,
		FeeRef:     settlement.FeeRef,
	}
}

func ConvertRaffleEvent(event *entity.RaffleEvent) RaffleEvent {
	return RaffleEvent{
		ID:        event.ID,
		RaffleID:  event.RaffleID,
		Type:      enum.ToString(event.Type),
		Data:      event.Data,
		CreatedAt: event.CreatedAt.Format(DefaultTimeLayout),
	}
}
