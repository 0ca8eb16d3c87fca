package config

import (
	"fmt"
	"math/big"
	"time"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database         DatabaseConfigs  `toml:"database"`
	ApiServer        APIServerConfigs `toml:"api_server"`
	PrometheusServer ServerConfigs    `toml:"prometheus_server"`
	Auth             AuthConfigs      `toml:"auth"`
	Session          SessionConfigs   `toml:"session"`
	Raffle           RaffleConfigs    `toml:"raffle"`
	Payment          PaymentConfigs   `toml:"payment"`
	Entropy          EntropyConfigs   `toml:"entropy"`
	Redis            RedisConfigs     `toml:"redis"`
	Kafka            KafkaConfigs     `toml:"kafka"`
	Eth              EthConfigs       `toml:"eth"`
}

type DatabaseConfigs struct {
	// Driver is either "mysql" or "sqlite". With sqlite, Database is the path of the database file.
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	LogLevel string `toml:"log_level"`
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type APIServerConfigs struct {
	ServerConfigs
	MaxLimit     int      `toml:"max_limit"`
	DefaultLimit int      `toml:"default_limit"`
	AllowOrigins []string `toml:"allow_origins"`
}

type AuthConfigs struct {
	TokenSecret string       `toml:"token_secret"`
	AccessToken TokenConfigs `toml:"access_token"`
}

type TokenConfigs struct {
	Name       string        `toml:"name"`
	Expiration time.Duration `toml:"expiration"`
}

type SessionConfigs struct {
	Secret string `toml:"secret"`
	Name   string `toml:"name"`
}

// ClaimPolicy decides who may call claimPrize on a completed raffle.
type ClaimPolicy string

const (
	ClaimPolicyWinner ClaimPolicy = "winner"
	ClaimPolicyOwner  ClaimPolicy = "owner"
	ClaimPolicyAny    ClaimPolicy = "any"
)

type RaffleConfigs struct {
	// Owner is the only address allowed to create raffles and to settle pending fees.
	Owner string `toml:"owner"`

	// PlatformAccount receives the fee of every settled raffle.
	PlatformAccount string `toml:"platform_account"`

	// EscrowAccount holds ticket payments until the prize is claimed.
	EscrowAccount string `toml:"escrow_account"`

	FeePercent            int64         `toml:"fee_percent"`
	TicketPrice           *big.Int      `toml:"-"`
	TicketPriceWei        string        `toml:"ticket_price"`
	ClaimPolicy           ClaimPolicy   `toml:"claim_policy"`
	RetryCooldown         time.Duration `toml:"retry_cooldown"`
	MinDurationDays       int           `toml:"min_duration_days"`
	MaxDurationDays       int           `toml:"max_duration_days"`
	MaxTicketsPerPurchase int64         `toml:"max_tickets_per_purchase"`
	MaxNameLength         int           `toml:"max_name_length"`
	MaxDescriptionLength  int           `toml:"max_description_length"`
}

type PaymentConfigs struct {
	// Mode is either "ledger" (tokens are tracked in the database) or "erc20".
	Mode         string `toml:"mode"`
	TokenAddress string `toml:"token_address"`
}

type EntropyConfigs struct {
	// Provider is either "local" or "pyth".
	Provider        string        `toml:"provider"`
	ContractAddress string        `toml:"contract_address"`
	CallbackSecret  string        `toml:"callback_secret"`
	LocalDelay      time.Duration `toml:"local_delay"`
	StartBlock      uint64        `toml:"start_block"`
	FulfilledTopic  string        `toml:"fulfilled_topic"`
}

type RedisConfigs struct {
	Addr string `toml:"addr"`
}

type KafkaConfigs struct {
	Enable        bool   `toml:"enable"`
	Addr          string `toml:"addr"`
	ClientID      string `toml:"client_id"`
	GroupID       string `toml:"group_id"`
	EventTopic    string `toml:"event_topic"`
	SnowflakeNode int64  `toml:"snowflake_node"`
}

type EthConfigs struct {
	Chain          ChainConfig   `toml:"chain"`
	PrivateKey     string        `toml:"private_key"`
	ReceiptTimeout time.Duration `toml:"receipt_timeout"`
	PollInterval   time.Duration `toml:"poll_interval"`
}

type ChainConfig struct {
	Chain   string   `toml:"chain" json:"chain"`
	ChainID int64    `toml:"chain_id" json:"chain_id"`
	Rpcs    []string `toml:"rpcs" json:"rpcs"`
	Wss     []string `toml:"wss" json:"wss"`
}
