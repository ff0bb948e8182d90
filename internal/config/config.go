// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file, and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DatabaseDSN holds the database connection string.
	DatabaseDSN string

	// JWTSecret signs and verifies issued bearer tokens.
	JWTSecret string

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration

	// UploadDir is where demand attachments are stored.
	UploadDir string

	// StateDir is where the client persists its session token.
	StateDir string

	// BaseURL is the backend base URL used by the client.
	BaseURL string

	// LogLevel sets the zap log level.
	LogLevel string

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.JWTSecret, "secret", "", "token signing secret")
	flag.DurationVar(&options.TokenTTL, "ttl", 24*time.Hour, "token lifetime")
	flag.StringVar(&options.UploadDir, "uploads", "uploads", "attachment storage directory")
	flag.StringVar(&options.StateDir, "state", defaultStateDir(), "client state directory")
	flag.StringVar(&options.BaseURL, "url", "http://localhost:8080/api/v1", "backend base URL")
	flag.StringVar(&options.LogLevel, "loglevel", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "demandhub"
	}
	return ".demandhub"
}

// Parse parses the command-line flags, config file, and environment
// variables to set configuration values. Environment variables win
// over the file, the file wins over flag defaults. A .env file in the
// working directory is loaded first when present.
func Parse() *Options {
	flag.Parse()

	// Load .env before reading environment overrides; missing file is fine.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if uploads := os.Getenv("UPLOAD_DIR"); uploads != "" {
		options.UploadDir = uploads
	}

	return options
}
