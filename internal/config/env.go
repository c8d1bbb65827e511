package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvLookup returns a getenv function for ResolveXMLDir and the gate
// overrides. Variables of the process environment win over those read
// from envFile. An empty envFile means the process environment only.
func EnvLookup(envFile string) (func(string) string, error) {
	if envFile == "" {
		return os.Getenv, nil
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvFile, err)
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return values[key]
	}, nil
}
