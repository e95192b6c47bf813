package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-api/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, config.StoragePostgres, cfg.App.StorageDriver)
	assert.Equal(t, 14, cfg.Fulfillment.ReturnWindowDays)
	assert.Equal(t, 200, cfg.Fulfillment.HistoryMaxLimit)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("RETURN_WINDOW_DAYS", "10")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("SMTP_HOST", "smtp.example.com")
	v.Set("DB_PASSWORD", "p@ss/word")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.App.StorageDriver)
	assert.Equal(t, 10, cfg.Fulfillment.ReturnWindowDays)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Contains(t, cfg.DB.DSN(), "p%40ss%2Fword")
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "mongo")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("RETURN_WINDOW_DAYS", 0)
	_, err = config.FromViper(v)
	assert.Error(t, err)
}
