package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/sessions"
	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain"
	"github.com/questx-lab/raffle/internal/domain/blockchain/eth"
	"github.com/questx-lab/raffle/internal/domain/entropy"
	"github.com/questx-lab/raffle/internal/domain/payment"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/migration"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/questx-lab/raffle/pkg/ethutil"
	"github.com/questx-lab/raffle/pkg/kafka"
	"github.com/questx-lab/raffle/pkg/logger"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/questx-lab/raffle/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	tokenEngine authenticator.TokenEngine[model.AccessToken]
	publisher   pubsub.Publisher
	redisClient xredis.Client
	ethClient   eth.EthClient
	transactor  eth.Transactor

	raffleRepo      repository.RaffleRepository
	participantRepo repository.ParticipantRepository
	eventRepo       repository.RaffleEventRepository
	randomnessRepo  repository.RandomnessRepository
	settlementRepo  repository.SettlementRepository
	tokenRepo       repository.TokenRepository

	paymentService   payment.Service
	entropyProvider  entropy.Provider
	roleVerifier     *common.RoleVerifier
	locker           *domain.RaffleLocker
	recorder         *domain.RaffleEventRecorder
	raffleDomain     domain.RaffleDomain
	ticketDomain     domain.TicketDomain
	drawDomain       domain.DrawDomain
	settlementDomain domain.SettlementDomain
	authDomain       domain.AuthDomain
	paymentDomain    domain.PaymentDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := readConfigs(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(cctx.Context, cfg)
	s.loadLogger()
	return nil
}

func (s *srv) loadLogger() {
	level := logger.ParseLevel(xcontext.Configs(s.ctx).LogLevel)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

// updateConfigs replaces the configs bound to the root context.
func (s *srv) updateConfigs(fn func(cfg *config.Configs)) {
	cfg := xcontext.Configs(s.ctx)
	fn(&cfg)
	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
}

func (s *srv) newDatabase() (*gorm.DB, error) {
	cfg := xcontext.Configs(s.ctx).Database
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(parseGormLogLevel(cfg.LogLevel)),
	}

	switch cfg.Driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.Database), gormCfg)
	case "mysql", "":
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %s", cfg.Driver)
	}
}

func parseGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

func (s *srv) loadDatabase() error {
	db, err := s.newDatabase()
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
	return nil
}

func (s *srv) migrateDB() error {
	if xcontext.Configs(s.ctx).Database.Driver == "sqlite" {
		return migration.AutoMigrate(s.ctx)
	}

	return migration.Migrate(s.ctx)
}

func (s *srv) loadRedisClient() error {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	return err
}

func (s *srv) loadPublisher() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	if !cfg.Enable {
		xcontext.Logger(s.ctx).Warnf("Kafka is disabled, events are delivered in process")
		s.publisher = pubsub.NewLocalPublisher()
		return nil
	}

	publisher, err := kafka.NewPublisher(cfg.ClientID, []string{cfg.Addr})
	if err != nil {
		return err
	}

	s.publisher = publisher
	return nil
}

// loadEth connects to the chain only when a component needs it. The escrow account becomes the
// service account in erc20 mode.
func (s *srv) loadEth() error {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Payment.Mode != "erc20" && cfg.Entropy.Provider != "pyth" {
		return nil
	}

	privateKey, err := ethutil.LoadPrivateKey(cfg.Eth.PrivateKey)
	if err != nil {
		return fmt.Errorf("cannot load the service private key: %w", err)
	}

	s.ethClient = eth.NewEthClient(cfg.Eth.Chain)
	s.ethClient.Start(s.ctx)
	s.transactor = eth.NewTransactor(s.ethClient, privateKey, cfg.Eth.ReceiptTimeout, cfg.Eth.PollInterval)

	if cfg.Payment.Mode == "erc20" {
		s.updateConfigs(func(cfg *config.Configs) {
			cfg.Raffle.EscrowAccount = s.transactor.From().Hex()
		})
	}

	return nil
}

func (s *srv) loadRepos() {
	s.raffleRepo = repository.NewRaffleRepository()
	s.participantRepo = repository.NewParticipantRepository()
	s.eventRepo = repository.NewRaffleEventRepository()
	s.randomnessRepo = repository.NewRandomnessRepository()
	s.settlementRepo = repository.NewSettlementRepository()
	s.tokenRepo = repository.NewTokenRepository()
}

func (s *srv) loadPaymentService() error {
	cfg := xcontext.Configs(s.ctx)
	switch cfg.Payment.Mode {
	case "ledger":
		s.paymentService = payment.NewLedgerService(cfg.Raffle.EscrowAccount, s.tokenRepo)
	case "erc20":
		if cfg.Payment.TokenAddress == "" {
			return fmt.Errorf("token address is required in erc20 mode")
		}
		s.paymentService = payment.NewERC20Service(cfg.Payment.TokenAddress, s.transactor)
	default:
		return fmt.Errorf("unknown payment mode %s", cfg.Payment.Mode)
	}

	if cfg.Raffle.EscrowAccount == "" {
		return fmt.Errorf("escrow account is required")
	}

	return nil
}

func (s *srv) loadEntropyProvider() error {
	cfg := xcontext.Configs(s.ctx).Entropy
	switch cfg.Provider {
	case "local":
		s.entropyProvider = entropy.NewLocalProvider(s.ctx, cfg.LocalDelay, s.publisher, cfg.FulfilledTopic)
	case "pyth":
		if cfg.ContractAddress == "" {
			return fmt.Errorf("entropy contract address is required")
		}
		s.entropyProvider = entropy.NewPythProvider(cfg.ContractAddress, s.transactor)
	default:
		return fmt.Errorf("unknown entropy provider %s", cfg.Provider)
	}

	return nil
}

func (s *srv) loadDomains() error {
	cfg := xcontext.Configs(s.ctx)

	node, err := snowflake.NewNode(cfg.Kafka.SnowflakeNode)
	if err != nil {
		return err
	}

	s.tokenEngine = authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.TokenSecret, cfg.Auth.AccessToken)
	s.ctx = xcontext.WithSessionStore(s.ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))

	s.roleVerifier = common.NewRoleVerifier()
	s.locker = domain.NewRaffleLocker()
	s.recorder = domain.NewRaffleEventRecorder(s.eventRepo, s.publisher, node)

	raffleDomain := domain.NewRaffleDomain(
		s.raffleRepo, s.participantRepo, s.eventRepo, s.roleVerifier, s.recorder)
	ticketDomain := domain.NewTicketDomain(
		s.raffleRepo, s.participantRepo, s.paymentService, s.locker, s.recorder)
	drawDomain := domain.NewDrawDomain(
		s.raffleRepo, s.participantRepo, s.randomnessRepo, raffleDomain,
		s.entropyProvider, s.locker, s.recorder)
	ticketDomain.AddObserver(drawDomain)

	s.raffleDomain = raffleDomain
	s.ticketDomain = ticketDomain
	s.drawDomain = drawDomain
	s.settlementDomain = domain.NewSettlementDomain(
		s.raffleRepo, s.settlementRepo, s.paymentService, s.roleVerifier, s.locker, s.recorder)
	s.authDomain = domain.NewAuthDomain(s.tokenEngine)
	s.paymentDomain = domain.NewPaymentDomain(s.paymentService, s.roleVerifier)

	if local, ok := s.publisher.(*pubsub.LocalPublisher); ok {
		local.Register(cfg.Entropy.FulfilledTopic, s.drawDomain.HandleFulfilledEvent)
	}

	return nil
}
