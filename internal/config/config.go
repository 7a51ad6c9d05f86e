package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/logging"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/postgres"
)

const (
	TransferBook  = "book"
	TransferKafka = "kafka"

	AddressAny = "any"
	AddressEVM = "evm"
)

type Config struct {
	Port           string
	Owner          string
	Environment    logging.Environment
	LogLevel       string
	StoreDriver    string
	DB             postgres.Config
	KafkaBrokers   []string // empty keeps events in memory
	TransferDriver string
	JWTSecret      string
	AddressFormat  string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Owner:          getEnv("LEDGER_OWNER", ""),
		Environment:    logging.Environment(getEnv("ENV_NAME", string(logging.EnvironmentProduction))),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		StoreDriver:    getEnv("STORE_DRIVER", "memory"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		TransferDriver: getEnv("TRANSFER_DRIVER", TransferBook),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AddressFormat:  getEnv("ADDRESS_FORMAT", AddressEVM),
		DB: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports the first setting the server can't start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("LEDGER_OWNER is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.TransferDriver {
	case TransferBook:
	case TransferKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("TRANSFER_DRIVER=kafka needs KAFKA_BROKERS")
		}
	default:
		return errors.New("TRANSFER_DRIVER must be book or kafka")
	}
	if c.AddressFormat != AddressAny && c.AddressFormat != AddressEVM {
		return errors.New("ADDRESS_FORMAT must be any or evm")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
