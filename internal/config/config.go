package config

import (
	"fmt"
	"os"
	"reflect"
	"sync"
)

var cfg *Config
var once sync.Once

// Config is the configuration for the application
type Config struct {
	Server
	PostgreSQL
	Fees
	Reconciler
	Gateway
	Telegram
}

// Server is the configuration for the HTTP surface
type Server struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AdminToken string `env:"ADMIN_TOKEN" envDefault:""`
	LogFile    string `env:"LOG_FILE" envDefault:""`
}

// Addr returns the address for the server
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", "0.0.0.0", s.Port)
}

// PostgreSQL is the configuration for the ledger store
type PostgreSQL struct {
	Driver          string `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	Database        string `env:"DB_DATABASE" envDefault:"flexipay_wallet"`
	Username        string `env:"DB_USERNAME" envDefault:"flexipay_wallet"`
	Password        string `env:"DB_PASSWORD" envDefault:"flexipay_wallet"`
	SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConnAttempts string `env:"DB_MAX_CONN_ATTEMPTS" envDefault:"5"`
}

// DSN returns the DSN for the database
func (c PostgreSQL) DSN() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s?sslmode=%s",
		c.Driver,
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// Fees holds the fee schedule and operation limits. Values are decimal
// strings parsed once at startup.
type Fees struct {
	DepositRate     string `env:"DEPOSIT_FEE_RATE" envDefault:"0.11"`
	WithdrawFixed   string `env:"WITHDRAW_FIXED_FEE" envDefault:"2.00"`
	WithdrawPercent string `env:"WITHDRAW_PERCENT_FEE" envDefault:"0.05"`
	MinWithdrawNet  string `env:"MIN_WITHDRAW_NET" envDefault:"10.00"`
	DepositMin      string `env:"DEPOSIT_MIN" envDefault:"1.00"`
	DepositMax      string `env:"DEPOSIT_MAX" envDefault:"5000.00"`
}

// Reconciler is the configuration for the background reconciliation process
type Reconciler struct {
	IntervalSeconds       string `env:"RECONCILE_INTERVAL_SECONDS" envDefault:"20"`
	WindowHours           string `env:"RECONCILE_WINDOW_HOURS" envDefault:"2"`
	GatewayTimeoutSeconds string `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"10"`
}

// Gateway is the configuration for the instant-payment gateway client
type Gateway struct {
	BaseURL     string `env:"GATEWAY_BASE_URL" envDefault:"https://api.mercadopago.com"`
	AccessToken string `env:"GATEWAY_ACCESS_TOKEN" envDefault:""`
}

// Telegram is the configuration for the notification channel
type Telegram struct {
	BotToken     string `env:"BOT_TOKEN" envDefault:""`
	AdminChatIDs string `env:"ADMIN_CHAT_IDS" envDefault:""`
}

// Load loads the configuration from environment variables
func Load() *Config {
	once.Do(func() {
		cfg = &Config{}
		cfgType := reflect.TypeOf(*cfg)
		cfgValue := reflect.ValueOf(cfg).Elem()

		for i := 0; i < cfgType.NumField(); i++ {
			field := cfgType.Field(i)
			fieldValue := cfgValue.Field(i)
			for j := 0; j < field.Type.NumField(); j++ {
				subField := field.Type.Field(j)
				envVar := subField.Tag.Get("env")
				envDefault := subField.Tag.Get("envDefault")
				value := getEnv(envVar, envDefault)

				fieldValue.Field(j).SetString(value)
			}
		}
	})

	return cfg
}

// getEnv retrieves the value of the environment variable named by the key or returns the defaultValue if not set
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
	}
	return value
}
