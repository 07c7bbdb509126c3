package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	Port         string
	DataPath     string
	StoreDriver  string // "bbolt" or "sqlite"
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8686"),
		DataPath:     getEnv("DATA_PATH", "./fmg-pick.db"),
		StoreDriver:  getEnv("STORE_DRIVER", "bbolt"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
	}

	if cfg.StoreDriver != "bbolt" && cfg.StoreDriver != "sqlite" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (want bbolt or sqlite)", cfg.StoreDriver)
	}

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8686"
	}

	return cfg, nil
}

// loadKey reads a base64 key from the environment, generating a throwaway
// one (with a warning) when it is missing or too short.
func loadKey(name string) []byte {
	value := os.Getenv(name)
	if value == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the host is in serious trouble; refuse
		// to limp along with a guessable key.
		panic("failed to read random bytes: " + err.Error())
	}
	return b
}
