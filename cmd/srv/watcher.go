package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/questx-lab/raffle/internal/domain/blockchain/eth"
	"github.com/questx-lab/raffle/pkg/ethutil"
	"github.com/questx-lab/raffle/pkg/prometheus"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (s *srv) startWatcher(*cli.Context) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.ctx = ctx

	cfg := xcontext.Configs(s.ctx)
	if !cfg.Kafka.Enable {
		return errors.New("the watcher publishes to kafka, enable kafka to run it")
	}

	if ethutil.NormalizeAddress(cfg.Entropy.ContractAddress) == "" {
		return errors.New("entropy contract address is required")
	}

	if err := s.loadRedisClient(); err != nil {
		return err
	}
	if err := s.loadPublisher(); err != nil {
		return err
	}

	s.ethClient = eth.NewEthClient(cfg.Eth.Chain)
	s.ethClient.Start(s.ctx)
	watcher := eth.NewEntropyWatcher(s.ctx, s.ethClient, s.redisClient, s.publisher)

	group, groupCtx := errgroup.WithContext(s.ctx)
	group.Go(func() error {
		return prometheus.Serve(groupCtx, cfg.PrometheusServer.Address())
	})
	group.Go(func() error {
		watcher.Start(groupCtx)
		return nil
	})

	return group.Wait()
}
