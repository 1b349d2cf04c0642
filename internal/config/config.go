package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port        string // サーバーポート（8080）
	GoEnv       string // dev/prod
	ServiceName string

	DatabaseURL string // 空ならPOSTGRES_*から組み立てる。どちらも無ければインメモリ

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限

	AllowedOrigins []string // CORS

	RateLimitPerSecond float64
	RateLimitBurst     int

	AdminUsername string // 起動時に作る管理者（空なら作らない）
	AdminEmail    string
	AdminPassword string
}

const devJWTSecret = "dev_secret_change_me"

// .envを読んでから環境変数で設定を作る
func Load() (Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	ttlMinutes, err := intOr("ACCESS_TOKEN_TTL_MINUTES", 30)
	if err != nil {
		return Config{}, err
	}
	rps, err := floatOr("RATE_LIMIT_PER_SECOND", 20)
	if err != nil {
		return Config{}, err
	}
	burst, err := intOr("RATE_LIMIT_BURST", 40)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		GoEnv:       getenv("GO_ENV", "dev"),
		ServiceName: getenv("SERVICE_NAME", "shopapi"),

		DatabaseURL: databaseURL(),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: time.Duration(ttlMinutes) * time.Minute,

		AllowedOrigins: splitOrigins(getenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000")),

		RateLimitPerSecond: rps,
		RateLimitBurst:     burst,

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		if cfg.GoEnv != "dev" {
			return Config{}, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if ttlMinutes <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if rps <= 0 || burst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	if cfg.AdminUsername != "" && (cfg.AdminPassword == "" || cfg.AdminEmail == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required when ADMIN_USERNAME is set")
	}

	return cfg, nil
}

// 待ち受けアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DATABASE_URLを最優先。無ければPOSTGRES_HOSTがあるときだけ組み立てる
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		getenv("POSTGRES_PORT", "5432"),
		getenv("POSTGRES_USER", "postgres"),
		getenv("POSTGRES_PASSWORD", "postgres"),
		getenv("POSTGRES_DB", "shop"),
		getenv("POSTGRES_SSLMODE", "disable"),
	)
}

func splitOrigins(v string) []string {
	if strings.TrimSpace(v) == "*" {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatOr(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}
