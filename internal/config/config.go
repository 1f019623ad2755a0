// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the binary needs at startup.
type Config struct {
	// HTTP server
	Port string

	// Storage backend selection
	DataBackend string

	// Postgres
	DatabaseURL string

	// Firestore
	FirestoreProjectID string

	// Cloudinary (unsigned uploads); empty disables real uploads
	CloudinaryCloudName    string
	CloudinaryUploadPreset string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the environment, after merging a .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),

		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks the configuration and returns an error describing every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			problems = append(problems, "FIRESTORE_PROJECT_ID is required when DATA_BACKEND=firestore")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be one of memory, postgres, firestore", c.DataBackend))
	}

	if (c.CloudinaryCloudName == "") != (c.CloudinaryUploadPreset == "") {
		problems = append(problems, "CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
