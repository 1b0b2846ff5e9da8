package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envFileLoaded makes sure the optional .env file is read at most once per
// process, before the first parse.
var envFileLoaded sync.Once

// Load parses environment variables into the provided struct based on its
// env field tags. A .env file in the working directory is loaded first, if
// one exists.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	envFileLoaded.Do(func() {
		// The .env file is optional; missing is not an error.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure, for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
}
