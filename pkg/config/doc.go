// Package config loads configuration structs from environment variables.
//
// Fields are declared with env tags and defaults; a .env file in the
// working directory is loaded once, if present, before parsing.
//
//	type Config struct {
//	    MaxQueueDepth int           `env:"FSM_MAX_QUEUE_DEPTH" envDefault:"1024"`
//	    ShutdownGrace time.Duration `env:"FSM_SHUTDOWN_GRACE" envDefault:"5s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// MustLoad panics on failure, for configuration required at startup.
package config
