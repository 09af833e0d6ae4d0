package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "test", cfg.Fiscal.FinaEnvironment)
	assert.Equal(t, 30, cfg.Fiscal.MaxAgeDays)
	assert.Equal(t, 30*time.Second, cfg.Fiscal.FinaTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Fiscal.BatchDelay)
	assert.Equal(t, 1, cfg.Fiscal.BatchWorkers)
	assert.False(t, cfg.Fiscal.TLSInsecureSkipVerify)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("FINA_ENVIRONMENT", "PROD")
	v.Set("FINA_TIMEOUT", "10s")
	v.Set("FISCAL_BATCH_DELAY", "250")
	v.Set("FISCAL_BATCH_WORKERS", "4")
	v.Set("REDIS_ADDR", "redis:6379")
	v.Set("DB_FORCE_IPV4", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "prod", cfg.Fiscal.FinaEnvironment)
	assert.Equal(t, 10*time.Second, cfg.Fiscal.FinaTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Fiscal.BatchDelay)
	assert.Equal(t, 4, cfg.Fiscal.BatchWorkers)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestFromViper_DuracionInvalida(t *testing.T) {
	v := viper.New()
	v.Set("FISCAL_LOCK_TTL", "dos minutos")
	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FISCAL_LOCK_TTL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := fromViper(viper.New())
		require.NoError(t, err)
		cfg.JWT.Secret = "secreto"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Fiscal.TLSInsecureSkipVerify = true
	assert.NoError(t, cfg.Validate(), "permitido fuera de producción")
	cfg.App.Env = "production"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FISCAL_TLS_INSECURE_SKIP_VERIFY")

	cfg = valid()
	cfg.Fiscal.FinaEnvironment = "staging"
	assert.ErrorContains(t, cfg.Validate(), "FINA_ENVIRONMENT")

	cfg = valid()
	cfg.Fiscal.LockTTL = time.Second
	assert.ErrorContains(t, cfg.Validate(), "FISCAL_LOCK_TTL")

	cfg = valid()
	cfg.JWT.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "fisk", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/fisk?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
