package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "0x00000000000000000000000000000000000000aa")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, TransferBook, cfg.TransferDriver)
	assert.Equal(t, AddressEVM, cfg.AddressFormat)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "alice")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TRANSFER_DRIVER", "kafka")
	t.Setenv("ADDRESS_FORMAT", "any")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, TransferKafka, cfg.TransferDriver)
	assert.Equal(t, AddressAny, cfg.AddressFormat)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Owner:          "alice",
			JWTSecret:      "s3cret",
			TransferDriver: TransferBook,
			AddressFormat:  AddressAny,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing owner", mutate: func(c *Config) { c.Owner = " " }},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }},
		{name: "kafka transfer without brokers", mutate: func(c *Config) { c.TransferDriver = TransferKafka }},
		{name: "unknown transfer driver", mutate: func(c *Config) { c.TransferDriver = "carrier-pigeon" }},
		{name: "unknown address format", mutate: func(c *Config) { c.AddressFormat = "bech32" }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
