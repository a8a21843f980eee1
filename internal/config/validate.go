package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// bounds the provider accepts for a checkout session's expires_at
const (
	minSessionTTL = 30 * time.Minute
	maxSessionTTL = 24 * time.Hour
)

func (c *Config) Validate() error {
	var errs []error

	if c.Platform.FeePercentage.IsNegative() || c.Platform.FeePercentage.GreaterThan(hundred) {
		errs = append(errs, fmt.Errorf("PLATFORM_FEE_PERCENTAGE must be between 0 and 100, got %s", c.Platform.FeePercentage))
	}
	if c.Stripe.SessionTTL < minSessionTTL || c.Stripe.SessionTTL > maxSessionTTL {
		errs = append(errs, fmt.Errorf("STRIPE_SESSION_TTL must be between %s and %s, got %s", minSessionTTL, maxSessionTTL, c.Stripe.SessionTTL))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.PaymentProvider {
	case "stripe":
		if c.Stripe.SecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
		}
		if c.Stripe.WebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
		}
	case "mock":
		if c.Stripe.WebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required to sign mock events"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider))
	}

	switch c.Events.Broker {
	case "log":
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("EVENTS_KAFKA_BROKERS is required for the kafka broker"))
		}
	case "rabbitmq":
		if c.Events.RabbitMQURL == "" {
			errs = append(errs, errors.New("EVENTS_RABBITMQ_URL is required for the rabbitmq broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_BROKER %q", c.Events.Broker))
	}

	return errors.Join(errs...)
}
