package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every runtime setting of the WORTH server. The three network
// channels (registration/callback HTTP, TCP request, UDP chat) are
// independently configurable.
type Config struct {
	HTTPPort int    `env:"HTTP_PORT, default=5000"`
	TCPPort  int    `env:"TCP_PORT,  default=5001"`
	ChatPort int    `env:"CHAT_PORT, default=5002"`
	Env      string `env:"ENV,       default=development"`

	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// MulticastSeed is the first chat group address handed out.
	MulticastSeed string `env:"MULTICAST_SEED, default=239.0.0.0"`

	// StoreBackend selects the persistence gateway: "jsonfile" or "mongo".
	StoreBackend string `env:"STORE_BACKEND, default=jsonfile"`
	RecoveryDir  string `env:"RECOVERY_DIR,  default=./recovery"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=worth"`
}

// RedisConfig configures the optional presence mirror. The mirror is
// disabled while Addr is empty.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
