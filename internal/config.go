package internal

import "time"

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	TickInterval      time.Duration `env:"TICK_INTERVAL,default=10s"`
	AwayAfter         time.Duration `env:"AWAY_AFTER,default=5m"`
	EvictAfter        time.Duration `env:"EVICT_AFTER,default=10m"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_INTERVAL,default=6s"`

	RoomCapacity     int `env:"ROOM_CAPACITY,default=50"`
	MaxContentLength int `env:"MAX_CONTENT_LENGTH,default=2000"`
}
