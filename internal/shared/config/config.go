package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BotConfig holds Telegram-side settings.
type BotConfig struct {
	Token          string
	Username       string // without "@", used in provider return URLs
	AdminID        int64  // Telegram ID allowed to confirm payments in chat
	WorkerPoolSize int
}

// AdminConfig holds the admin HTTP panel settings.
type AdminConfig struct {
	Port   int
	Secret string // bearer token for /api routes
}

// RedisConfig holds connection settings for the session store.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	KeyPrefix       string
	SessionTTLHours int
}

// ProviderConfig carries the per-provider credentials.
type ProviderConfig struct {
	KaspiMerchantID     string
	KaspiMerchantSecret string
	YukassaShopID       string
	YukassaSecretKey    string
	ProdamusAPIKey      string
	ProdamusProjectID   string
}

// PaymentConfig holds subscription pricing defaults. The settings row
// in the database may override price, currency and duration.
type PaymentConfig struct {
	Price        int
	Currency     string
	DurationDays int
	Providers    ProviderConfig
}

// UploadConfig holds limits for admin file uploads.
type UploadConfig struct {
	Dir          string
	MaxFileBytes int64
}

// Config holds all configuration for the application.
type Config struct {
	AppEnv      string
	DatabaseURL string
	WebhookBase string // public base URL for provider callbacks
	Bot         BotConfig
	Admin       AdminConfig
	Redis       RedisConfig
	Payment     PaymentConfig
	Upload      UploadConfig
}

// IsDev reports whether we run with the developer conveniences on.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {

	// 1. Load .env file into the process environment.
	// A missing file is fine in prod, any other error is not.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// 2. Explicitly bind viper keys to env var names
	bindings := map[string]string{
		"app.env":                    "APP_ENV",
		"database.url":               "DATABASE_URL",
		"webhook.base":               "WEBHOOK_URL",
		"bot.token":                  "BOT_TOKEN",
		"bot.username":               "BOT_USERNAME",
		"bot.admin_id":               "BOT_ADMIN_ID",
		"bot.workers":                "BOT_WORKER_POOL_SIZE",
		"admin.port":                 "ADMIN_PORT",
		"admin.secret":               "ADMIN_SECRET",
		"redis.addr":                 "REDIS_ADDR",
		"redis.password":             "REDIS_PASSWORD",
		"redis.db":                   "REDIS_DB",
		"redis.prefix":               "REDIS_KEY_PREFIX",
		"redis.session_ttl_hours":    "REDIS_SESSION_TTL_HOURS",
		"payment.price":              "SUBSCRIPTION_PRICE",
		"payment.currency":           "SUBSCRIPTION_CURRENCY",
		"payment.duration_days":      "SUBSCRIPTION_DURATION_DAYS",
		"payment.kaspi.merchant_id":  "KASPI_MERCHANT_ID",
		"payment.kaspi.secret":       "KASPI_MERCHANT_SECRET",
		"payment.yukassa.shop_id":    "YUKASSA_SHOP_ID",
		"payment.yukassa.secret":     "YUKASSA_SECRET_KEY",
		"payment.prodamus.api_key":   "PRODAMUS_API_KEY",
		"payment.prodamus.project":   "PRODAMUS_PROJECT_ID",
		"upload.dir":                 "UPLOAD_PATH",
		"upload.max_bytes":           "MAX_FILE_SIZE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("bot.workers", 5)
	viper.SetDefault("admin.port", 3000)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "coursebot")
	viper.SetDefault("redis.session_ttl_hours", 24)
	viper.SetDefault("payment.price", 4000)
	viper.SetDefault("payment.currency", "KZT")
	viper.SetDefault("payment.duration_days", 30)
	viper.SetDefault("upload.dir", "./uploads")
	viper.SetDefault("upload.max_bytes", 10485760)

	// 4. Get values directly from viper
	cfg := Config{
		AppEnv:      viper.GetString("app.env"),
		DatabaseURL: viper.GetString("database.url"),
		WebhookBase: viper.GetString("webhook.base"),
		Bot: BotConfig{
			Token:          viper.GetString("bot.token"),
			Username:       viper.GetString("bot.username"),
			AdminID:        viper.GetInt64("bot.admin_id"),
			WorkerPoolSize: viper.GetInt("bot.workers"),
		},
		Admin: AdminConfig{
			Port:   viper.GetInt("admin.port"),
			Secret: viper.GetString("admin.secret"),
		},
		Redis: RedisConfig{
			Addr:            viper.GetString("redis.addr"),
			Password:        viper.GetString("redis.password"),
			DB:              viper.GetInt("redis.db"),
			KeyPrefix:       viper.GetString("redis.prefix"),
			SessionTTLHours: viper.GetInt("redis.session_ttl_hours"),
		},
		Payment: PaymentConfig{
			Price:        viper.GetInt("payment.price"),
			Currency:     viper.GetString("payment.currency"),
			DurationDays: viper.GetInt("payment.duration_days"),
			Providers: ProviderConfig{
				KaspiMerchantID:     viper.GetString("payment.kaspi.merchant_id"),
				KaspiMerchantSecret: viper.GetString("payment.kaspi.secret"),
				YukassaShopID:       viper.GetString("payment.yukassa.shop_id"),
				YukassaSecretKey:    viper.GetString("payment.yukassa.secret"),
				ProdamusAPIKey:      viper.GetString("payment.prodamus.api_key"),
				ProdamusProjectID:   viper.GetString("payment.prodamus.project"),
			},
		},
		Upload: UploadConfig{
			Dir:          viper.GetString("upload.dir"),
			MaxFileBytes: viper.GetInt64("upload.max_bytes"),
		},
	}

	// 5. Validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("BOT_TOKEN is not set in environment or .env file")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if cfg.Admin.Secret == "" {
		return nil, errors.New("ADMIN_SECRET is not set in environment or .env file")
	}
	if cfg.Payment.DurationDays <= 0 {
		return nil, fmt.Errorf("SUBSCRIPTION_DURATION_DAYS must be positive, got %d", cfg.Payment.DurationDays)
	}

	return &cfg, nil
}
