package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SeedDemo    bool   `env:"SEED_DEMO_DATA" envDefault:"false"`

	// stripe | mock
	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"stripe"`

	Database   Database   `envPrefix:"DATABASE_"`
	Platform   Platform   `envPrefix:"PLATFORM_"`
	Stripe     Stripe     `envPrefix:"STRIPE_"`
	Auth       Auth       `envPrefix:"AUTH_"`
	Redis      Redis      `envPrefix:"REDIS_"`
	Events     Events     `envPrefix:"EVENTS_"`
	Reconciler Reconciler `envPrefix:"RECONCILER_"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"mysql"` // mysql, postgres, sqlite
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Platform struct {
	FeePercentage decimal.Decimal `env:"FEE_PERCENTAGE" envDefault:"5"`
}

type Stripe struct {
	BaseApiURL       string        `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey        string        `env:"SECRET_KEY"`
	WebhookSecret    string        `env:"WEBHOOK_SECRET"`
	Currency         string        `env:"CURRENCY" envDefault:"usd"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	WebhookTolerance time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"ISSUER" envDefault:"marketplace"`
}

type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	DedupTTL time.Duration `env:"DEDUP_TTL" envDefault:"48h"`
}

type Events struct {
	Broker           string        `env:"BROKER" envDefault:"log"` // log, kafka, rabbitmq
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envSeparator:","`
	RabbitMQURL      string        `env:"RABBITMQ_URL"`
	RabbitMQExchange string        `env:"RABBITMQ_EXCHANGE" envDefault:"marketplace.events"`
	RelayInterval    time.Duration `env:"RELAY_INTERVAL" envDefault:"2s"`
	RelayBatchSize   int           `env:"RELAY_BATCH_SIZE" envDefault:"50"`
}

type Reconciler struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	Interval     time.Duration `env:"INTERVAL" envDefault:"1m"`
	PendingAfter time.Duration `env:"PENDING_AFTER" envDefault:"2h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
