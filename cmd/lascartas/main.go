package main

import (
	"log"

	"github.com/zgoda02/LasCartasZamow/internal/auth"
	"github.com/zgoda02/LasCartasZamow/internal/catalogcache"
	"github.com/zgoda02/LasCartasZamow/internal/config"
	"github.com/zgoda02/LasCartasZamow/internal/handler"
	"github.com/zgoda02/LasCartasZamow/internal/logger"
	"github.com/zgoda02/LasCartasZamow/internal/service"
	"github.com/zgoda02/LasCartasZamow/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.GetConfig()

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}

	cache := catalogcache.NewCache(cfg.Cache)

	auth := auth.NewAuth(cfg.Auth)
	service := service.NewService(store, cache)

	return handler.Serve(cfg.Handler, auth, service, zaplog)
}
