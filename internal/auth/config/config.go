package config

import "time"

type Config struct {
	AdminPassword string
	TokenTTL      time.Duration
}
