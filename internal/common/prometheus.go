package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	TicketsSoldTotal           = "raffle_tickets_sold_total"
	DrawRequestTotal           = "raffle_draw_requests_total"
	RandomnessCallbackTotal    = "raffle_randomness_callbacks_total"
	TransferFailureTotal       = "raffle_transfer_failures_total"
	PrizeClaimTotal            = "raffle_prize_claims_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		TicketsSoldTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TicketsSoldTotal,
			Help: "Count of all sold tickets",
		}, []string{}),
		DrawRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: DrawRequestTotal,
			Help: "Count of randomness requests sent to the provider",
		}, []string{"trigger", "result"}),
		RandomnessCallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RandomnessCallbackTotal,
			Help: "Count of randomness callbacks",
		}, []string{"result"}),
		TransferFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TransferFailureTotal,
			Help: "Count of all token transfer failures",
		}, []string{"method"}),
		PrizeClaimTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: PrizeClaimTotal,
			Help: "Count of settled prizes",
		}, []string{"status"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)
