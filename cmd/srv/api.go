package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/questx-lab/raffle/internal/middleware"
	"github.com/questx-lab/raffle/pkg/kafka"
	"github.com/questx-lab/raffle/pkg/prometheus"
	"github.com/questx-lab/raffle/pkg/router"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (s *srv) startApi(*cli.Context) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.ctx = ctx

	if err := s.loadDatabase(); err != nil {
		return err
	}
	if err := s.migrateDB(); err != nil {
		return err
	}
	if err := s.loadPublisher(); err != nil {
		return err
	}
	if err := s.loadEth(); err != nil {
		return err
	}
	s.loadRepos()
	if err := s.loadPaymentService(); err != nil {
		return err
	}
	if err := s.loadEntropyProvider(); err != nil {
		return err
	}
	if err := s.loadDomains(); err != nil {
		return err
	}

	cfg := xcontext.Configs(s.ctx)
	group, groupCtx := errgroup.WithContext(s.ctx)

	group.Go(func() error {
		return prometheus.Serve(groupCtx, cfg.PrometheusServer.Address())
	})

	if cfg.Kafka.Enable {
		subscriber, err := kafka.NewSubscriber(
			cfg.Kafka.GroupID,
			[]string{cfg.Kafka.Addr},
			[]string{cfg.Entropy.FulfilledTopic},
			s.drawDomain.HandleFulfilledEvent,
		)
		if err != nil {
			return err
		}

		group.Go(func() error {
			subscriber.Subscribe(groupCtx)
			<-groupCtx.Done()
			return subscriber.Stop(context.Background())
		})
	}

	group.Go(func() error {
		httpSrv := &http.Server{
			Addr:    cfg.ApiServer.Address(),
			Handler: s.loadRouter().Handler(),
		}
		go func() {
			<-groupCtx.Done()
			httpSrv.Close()
		}()

		xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.ApiServer.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		xcontext.Logger(s.ctx).Infof("Server stop")
		return nil
	})

	return group.Wait()
}

func (s *srv) loadRouter() *router.Router {
	defaultRouter := router.New(s.ctx)
	defaultRouter.Before(middleware.WithStartTime())
	defaultRouter.AddCloser(middleware.Logger())
	defaultRouter.AddCloser(middleware.Prometheus())

	// Auth API
	router.GET(defaultRouter, "/walletLogin", s.authDomain.WalletLogin)
	router.POST(defaultRouter, "/walletVerify", s.authDomain.WalletVerify)

	// Public API, the caller is imported when a token is present.
	publicRouter := defaultRouter.Branch()
	publicRouter.Before(middleware.NewAuthVerifier(s.tokenEngine).Middleware())
	{
		router.GET(publicRouter, "/getRaffle", s.raffleDomain.GetRaffle)
		router.GET(publicRouter, "/getAllRaffles", s.raffleDomain.GetAllRaffles)
		router.GET(publicRouter, "/getParticipantInfo", s.raffleDomain.GetParticipantInfo)
		router.GET(publicRouter, "/getRaffleEvents", s.raffleDomain.GetRaffleEvents)
		router.GET(publicRouter, "/getTicketCount", s.ticketDomain.GetTicketCount)
		router.GET(publicRouter, "/getPurchases", s.ticketDomain.GetPurchases)
		router.GET(publicRouter, "/getRandomnessRequests", s.drawDomain.GetRandomnessRequests)
		router.GET(publicRouter, "/getSettlement", s.settlementDomain.GetSettlement)
	}

	// These following APIs need authentication with Access Token.
	authRouter := defaultRouter.Branch()
	authRouter.Before(middleware.NewAuthVerifier(s.tokenEngine).Required().Middleware())
	{
		router.GET(authRouter, "/getMyRaffles", s.raffleDomain.GetMyRaffles)
		router.GET(authRouter, "/getBalance", s.paymentDomain.GetBalance)

		router.POST(authRouter, "/createRaffle", s.raffleDomain.CreateRaffle)
		router.POST(authRouter, "/buyTickets", s.ticketDomain.BuyTickets)
		router.POST(authRouter, "/requestDraw", s.drawDomain.RequestDraw)
		router.POST(authRouter, "/retryDraw", s.drawDomain.RetryDraw)
		router.POST(authRouter, "/claimPrize", s.settlementDomain.ClaimPrize)
		router.POST(authRouter, "/approve", s.paymentDomain.Approve)
		router.POST(authRouter, "/mint", s.paymentDomain.Mint)
	}

	// Randomness callback, signed with the callback secret.
	callbackRouter := defaultRouter.Branch()
	callbackRouter.Before(middleware.VerifyCallbackSignature())
	{
		router.POST(callbackRouter, "/onRandomnessFulfilled", s.drawDomain.OnRandomnessFulfilled)
	}

	return defaultRouter
}
