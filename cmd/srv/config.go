package main

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/pkg/ethutil"
)

func defaultConfigs() config.Configs {
	return config.Configs{
		Env:      "local",
		LogLevel: "info",
		Database: config.DatabaseConfigs{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			Database: "raffle",
			User:     "mysql",
			LogLevel: "error",
		},
		ApiServer: config.APIServerConfigs{
			ServerConfigs: config.ServerConfigs{Port: "8080"},
			MaxLimit:      50,
			DefaultLimit:  10,
		},
		PrometheusServer: config.ServerConfigs{Port: "9090"},
		Auth: config.AuthConfigs{
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: 24 * time.Hour,
			},
		},
		Session: config.SessionConfigs{Name: "raffle_session"},
		Raffle: config.RaffleConfigs{
			FeePercent:            5,
			TicketPriceWei:        "10000000000000000",
			ClaimPolicy:           config.ClaimPolicyWinner,
			RetryCooldown:         time.Hour,
			MinDurationDays:       1,
			MaxDurationDays:       30,
			MaxTicketsPerPurchase: 100,
			MaxNameLength:         50,
			MaxDescriptionLength:  200,
		},
		Payment: config.PaymentConfigs{Mode: "ledger"},
		Entropy: config.EntropyConfigs{
			Provider:       "local",
			LocalDelay:     5 * time.Second,
			FulfilledTopic: "entropy.fulfilled",
		},
		Redis: config.RedisConfigs{Addr: "localhost:6379"},
		Kafka: config.KafkaConfigs{
			Addr:          "localhost:9092",
			ClientID:      "raffle",
			GroupID:       "raffle",
			EventTopic:    "raffle.events",
			SnowflakeNode: 1,
		},
		Eth: config.EthConfigs{
			ReceiptTimeout: 2 * time.Minute,
			PollInterval:   3 * time.Second,
		},
	}
}

// readConfigs applies the config file first, then .env and the environment.
func readConfigs(path string) (config.Configs, error) {
	cfg := defaultConfigs()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot decode config file %s: %w", path, err)
		}
	}

	// .env is optional.
	_ = godotenv.Load()

	if err := overrideFromEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := finalizeConfigs(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func overrideFromEnv(cfg *config.Configs) error {
	setString(&cfg.Env, "ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.LogLevel, "DB_LOG_LEVEL")

	setString(&cfg.ApiServer.Host, "API_HOST")
	setString(&cfg.ApiServer.Port, "API_PORT")
	if v := os.Getenv("API_ALLOW_ORIGINS"); v != "" {
		cfg.ApiServer.AllowOrigins = strings.Split(v, ",")
	}
	setString(&cfg.PrometheusServer.Port, "PROMETHEUS_PORT")

	setString(&cfg.Auth.TokenSecret, "TOKEN_SECRET")
	setString(&cfg.Session.Secret, "SESSION_SECRET")

	setString(&cfg.Raffle.Owner, "RAFFLE_OWNER")
	setString(&cfg.Raffle.PlatformAccount, "RAFFLE_PLATFORM_ACCOUNT")
	setString(&cfg.Raffle.EscrowAccount, "RAFFLE_ESCROW_ACCOUNT")
	setString(&cfg.Raffle.TicketPriceWei, "RAFFLE_TICKET_PRICE")
	if v := os.Getenv("RAFFLE_CLAIM_POLICY"); v != "" {
		cfg.Raffle.ClaimPolicy = config.ClaimPolicy(v)
	}
	if err := setInt64(&cfg.Raffle.FeePercent, "RAFFLE_FEE_PERCENT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Raffle.RetryCooldown, "RAFFLE_RETRY_COOLDOWN"); err != nil {
		return err
	}

	setString(&cfg.Payment.Mode, "PAYMENT_MODE")
	setString(&cfg.Payment.TokenAddress, "PAYMENT_TOKEN_ADDRESS")

	setString(&cfg.Entropy.Provider, "ENTROPY_PROVIDER")
	setString(&cfg.Entropy.ContractAddress, "ENTROPY_CONTRACT_ADDRESS")
	setString(&cfg.Entropy.CallbackSecret, "ENTROPY_CALLBACK_SECRET")

	setString(&cfg.Redis.Addr, "REDIS_ADDRESS")

	if v := os.Getenv("KAFKA_ENABLE"); v != "" {
		enable, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KAFKA_ENABLE: %w", err)
		}
		cfg.Kafka.Enable = enable
	}
	setString(&cfg.Kafka.Addr, "KAFKA_ADDRESS")

	setString(&cfg.Eth.PrivateKey, "ETH_PRIVATE_KEY")
	if v := os.Getenv("ETH_RPCS"); v != "" {
		cfg.Eth.Chain.Rpcs = strings.Split(v, ",")
	}

	return nil
}

func finalizeConfigs(cfg *config.Configs) error {
	price, ok := new(big.Int).SetString(cfg.Raffle.TicketPriceWei, 10)
	if !ok || price.Sign() <= 0 {
		return fmt.Errorf("invalid ticket price %q", cfg.Raffle.TicketPriceWei)
	}
	cfg.Raffle.TicketPrice = price

	if cfg.Raffle.FeePercent < 0 || cfg.Raffle.FeePercent > 100 {
		return fmt.Errorf("fee percent must be in [0, 100], got %d", cfg.Raffle.FeePercent)
	}

	if cfg.Raffle.MinDurationDays < 0 || cfg.Raffle.MaxDurationDays < cfg.Raffle.MinDurationDays {
		return fmt.Errorf("invalid duration bounds [%d, %d]",
			cfg.Raffle.MinDurationDays, cfg.Raffle.MaxDurationDays)
	}

	switch cfg.Raffle.ClaimPolicy {
	case config.ClaimPolicyWinner, config.ClaimPolicyOwner, config.ClaimPolicyAny:
	default:
		return fmt.Errorf("unknown claim policy %q", cfg.Raffle.ClaimPolicy)
	}

	cfg.Raffle.Owner = normalizeAccount(cfg.Raffle.Owner)
	cfg.Raffle.PlatformAccount = normalizeAccount(cfg.Raffle.PlatformAccount)
	cfg.Raffle.EscrowAccount = normalizeAccount(cfg.Raffle.EscrowAccount)

	if cfg.Raffle.Owner == "" || cfg.Raffle.PlatformAccount == "" {
		return fmt.Errorf("raffle owner and platform account are required")
	}

	return nil
}

// Accounts which are not hex addresses are kept as they are, the ledger accepts any identifier.
func normalizeAccount(account string) string {
	if normalized := ethutil.NormalizeAddress(account); normalized != "" {
		return normalized
	}

	return strings.TrimSpace(account)
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt64(target *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	*target = n
	return nil
}

func setDuration(target *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	*target = d
	return nil
}
