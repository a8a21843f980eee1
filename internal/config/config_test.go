package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, vars map[string]string) *Config {
	t.Helper()
	cfg := &Config{}
	require.NoError(t, env.ParseWithOptions(cfg, env.Options{Environment: vars}))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t, map[string]string{})

	assert.True(t, cfg.Platform.FeePercentage.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "stripe", cfg.PaymentProvider)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, time.Hour, cfg.Stripe.SessionTTL)
	assert.Equal(t, "log", cfg.Events.Broker)
	assert.Equal(t, 2*time.Hour, cfg.Reconciler.PendingAfter)
	assert.Equal(t, "8080", cfg.HTTP.Port)
}

func TestPrefixedValues(t *testing.T) {
	cfg := parse(t, map[string]string{
		"PLATFORM_FEE_PERCENTAGE": "7.5",
		"DATABASE_DRIVER":         "postgres",
		"DATABASE_URL":            "postgres://localhost/marketplace",
		"EVENTS_BROKER":           "kafka",
		"EVENTS_KAFKA_BROKERS":    "k1:9092,k2:9092",
		"STRIPE_WEBHOOK_SECRET":   "whsec_test",
	})

	assert.Equal(t, "7.5", cfg.Platform.FeePercentage.String())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/marketplace", cfg.Database.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "whsec_test", cfg.Stripe.WebhookSecret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return parse(t, map[string]string{
			"AUTH_JWT_SECRET":       "secret",
			"DATABASE_URL":          "file.db",
			"STRIPE_SECRET_KEY":     "sk_test",
			"STRIPE_WEBHOOK_SECRET": "whsec_test",
		})
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Platform.FeePercentage = decimal.NewFromInt(120)
	assert.ErrorContains(t, cfg.Validate(), "PLATFORM_FEE_PERCENTAGE")

	cfg = valid()
	cfg.Stripe.SecretKey = ""
	assert.ErrorContains(t, cfg.Validate(), "STRIPE_SECRET_KEY")

	cfg = valid()
	cfg.Events.Broker = "rabbitmq"
	assert.ErrorContains(t, cfg.Validate(), "EVENTS_RABBITMQ_URL")

	for _, ttl := range []time.Duration{10 * time.Minute, 25 * time.Hour} {
		cfg = valid()
		cfg.Stripe.SessionTTL = ttl
		assert.ErrorContains(t, cfg.Validate(), "STRIPE_SESSION_TTL", ttl)
	}

	cfg = valid()
	cfg.Stripe.SessionTTL = 30 * time.Minute
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.PaymentProvider = "paypal"
	assert.ErrorContains(t, cfg.Validate(), "unknown PAYMENT_PROVIDER")
}
