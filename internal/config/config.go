package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	authConfig "github.com/zgoda02/LasCartasZamow/internal/auth/config"
	cacheConfig "github.com/zgoda02/LasCartasZamow/internal/catalogcache/config"
	handlerConfig "github.com/zgoda02/LasCartasZamow/internal/handler/config"
	loggerConfig "github.com/zgoda02/LasCartasZamow/internal/logger/config"
	storeConfig "github.com/zgoda02/LasCartasZamow/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Auth    authConfig.Config
	Store   storeConfig.Config
	Cache   cacheConfig.Config
	Logger  loggerConfig.Config
}

const defaultTokenTTL = 24 * time.Hour

// GetConfig собирает конфигурацию: флаги, поверх них переменные окружения.
// .env в рабочем каталоге подхватывается, если есть
func GetConfig() Config {
	var cfg Config

	godotenv.Load()

	flag.StringVar(&cfg.Handler.ServerAddr, "a", ":3000", "server address")
	flag.StringVar(&cfg.Store.DBDsn, "d", "", "postgres dsn")
	flag.StringVar(&cfg.Auth.AdminPassword, "p", "admin123", "admin password")
	flag.StringVar(&cfg.Cache.RedisAddr, "r", "", "redis address (empty disables the catalog cache)")
	flag.StringVar(&cfg.Logger.LogLevel, "l", "info", "log level")
	flag.Parse()

	if addr := os.Getenv("RUN_ADDRESS"); addr != "" {
		cfg.Handler.ServerAddr = addr
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Store.DBDsn = dsn
	}
	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		cfg.Auth.AdminPassword = pass
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Logger.LogLevel = lvl
	}

	cfg.Auth.TokenTTL = defaultTokenTTL

	return cfg
}
