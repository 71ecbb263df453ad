// Package config reads the process environment. A .env file in the
// working directory is honored when present.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotenv loads .env if it exists; a missing file is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Client is the storefront client configuration.
type Client struct {
	CatalogURL string
	CartURL    string
	StatePath  string
	LogLevel   string
}

func LoadClient() Client {
	base := EnvDefault("STOREFRONT_URL", "http://localhost:8080")
	return Client{
		CatalogURL: EnvDefault("CATALOG_URL", base),
		CartURL:    EnvDefault("CART_URL", base),
		StatePath:  EnvDefault("STATE_PATH", defaultStatePath()),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),
	}
}

func defaultStatePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "storefront.db"
	}
	return filepath.Join(dir, "storefront", "state.db")
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
