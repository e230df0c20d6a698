package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // 指定があれば POSTGRES_* より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // disable / require

	StripeSecretKey string // 決済代行のシークレット
	Currency        string // usd

	TaxRate        decimal.Decimal // 0.08
	DeliveryFee    decimal.Decimal // 2.99
	MinChargeCents int64           // 決済代行の最低額（50）

	RedisAddr      string        // 空ならRedisなし
	RedisPassword  string        // 任意
	IdempotencyTTL time.Duration // 二重送信ロックと記録の保持期間
	MenuCacheTTL   time.Duration // メニュー一覧のキャッシュ

	RabbitMQURL string // 空ならキュー発行なし

	PostmarkServerToken string // 空ならメール通知なし
	AlertEmailFrom      string
	AlertEmailTo        string

	CartTTL          time.Duration // 0なら放置カートを掃除しない
	CartReapInterval time.Duration

	LogFile  string
	LogLevel string
	SeedMenu bool
}

// Loadは環境変数
func Load() (Config, error) {
	var err error
	cfg := Config{
		Port: envOr("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  envOr("POSTGRES_SSLMODE", "disable"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(envOr("PAYMENT_CURRENCY", "usd")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		AlertEmailFrom:      os.Getenv("ALERT_EMAIL_FROM"),
		AlertEmailTo:        os.Getenv("ALERT_EMAIL_TO"),

		LogFile:  envOr("LOG_FILE", "./logs/app.log"),
		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	//DB接続先
	if cfg.DatabaseURL == "" {
		if cfg.PostgresPort, err = atoiOr("POSTGRES_PORT", 5432); err != nil {
			return Config{}, err
		}
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}

	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	//金額まわり
	if cfg.TaxRate, err = decimalOr("TAX_RATE", "0.08"); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryFee, err = decimalOr("DELIVERY_FEE", "2.99"); err != nil {
		return Config{}, err
	}
	if cfg.TaxRate.IsNegative() || cfg.DeliveryFee.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE and DELIVERY_FEE must not be negative")
	}
	minCharge, err := atoiOr("MIN_CHARGE_CENTS", 50)
	if err != nil {
		return Config{}, err
	}
	cfg.MinChargeCents = int64(minCharge)

	if cfg.IdempotencyTTL, err = durationOr("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MenuCacheTTL, err = durationOr("MENU_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CartTTL, err = durationOr("CART_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.CartReapInterval, err = durationOr("CART_REAP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CartTTL > 0 && cfg.CartReapInterval <= 0 {
		return Config{}, fmt.Errorf("CART_REAP_INTERVAL must be positive")
	}

	if cfg.SeedMenu, err = boolOr("SEED_MENU", true); err != nil {
		return Config{}, err
	}

	//メールは3つ揃ったときだけ
	if cfg.PostmarkServerToken != "" && (cfg.AlertEmailFrom == "" || cfg.AlertEmailTo == "") {
		return Config{}, fmt.Errorf("ALERT_EMAIL_FROM and ALERT_EMAIL_TO are required with POSTMARK_SERVER_TOKEN")
	}

	return cfg, nil
}

// DSN は gorm(postgres) に渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	return u.String()
}

// Addr は ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) RedisEnabled() bool    { return c.RedisAddr != "" }
func (c Config) RabbitMQEnabled() bool { return c.RabbitMQURL != "" }
func (c Config) EmailEnabled() bool    { return c.PostmarkServerToken != "" }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoiOr(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func decimalOr(key, def string) (decimal.Decimal, error) {
	v := envOr(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be number: %w", key, err)
	}
	return d, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
