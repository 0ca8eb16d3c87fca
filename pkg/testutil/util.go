package testutil

import (
	"context"
	"math/big"
	"time"

	"github.com/gorilla/sessions"
	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/logger"
	"github.com/questx-lab/raffle/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	Owner    = "owner"
	Platform = "platform"
	Escrow   = "escrow"
)

func MockConfigs() config.Configs {
	return config.Configs{
		ApiServer: config.APIServerConfigs{
			MaxLimit:     50,
			DefaultLimit: 10,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Session: config.SessionConfigs{
			Secret: "session-secret",
			Name:   "raffle_session",
		},
		Raffle: config.RaffleConfigs{
			Owner:                 Owner,
			PlatformAccount:       Platform,
			EscrowAccount:         Escrow,
			FeePercent:            5,
			TicketPrice:           big.NewInt(10),
			TicketPriceWei:        "10",
			ClaimPolicy:           config.ClaimPolicyWinner,
			RetryCooldown:         time.Hour,
			MinDurationDays:       1,
			MaxDurationDays:       30,
			MaxTicketsPerPurchase: 100,
			MaxNameLength:         50,
			MaxDescriptionLength:  200,
		},
		Payment: config.PaymentConfigs{
			Mode: "ledger",
		},
		Entropy: config.EntropyConfigs{
			Provider:       "local",
			CallbackSecret: "callback-secret",
			FulfilledTopic: "entropy.fulfilled",
		},
		Kafka: config.KafkaConfigs{
			EventTopic: "raffle.events",
		},
	}
}

func MockContext() context.Context {
	return MockContextWithConfigs(MockConfigs())
}

func MockContextWithConfigs(cfg config.Configs) context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every connection to :memory: opens its own database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithSessionStore(ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}
