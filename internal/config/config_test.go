package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Port:        "8080",
		DataBackend: "memory",
		LogLevel:    "INFO",
		LogFormat:   "json",
	}
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, baseConfig().Validate())
}

func TestValidatePort(t *testing.T) {
	c := baseConfig()
	c.Port = "http"
	require.ErrorContains(t, c.Validate(), "invalid port")

	c.Port = "70000"
	require.ErrorContains(t, c.Validate(), "invalid port")
}

func TestValidateBackendRequirements(t *testing.T) {
	c := baseConfig()
	c.DataBackend = "postgres"
	require.ErrorContains(t, c.Validate(), "DATABASE_URL is required")

	c.DatabaseURL = "postgres://localhost:5432/spendwell"
	require.NoError(t, c.Validate())

	c = baseConfig()
	c.DataBackend = "firestore"
	require.ErrorContains(t, c.Validate(), "FIRESTORE_PROJECT_ID is required")

	c.FirestoreProjectID = "spendwell-dev"
	require.NoError(t, c.Validate())

	c = baseConfig()
	c.DataBackend = "sqlite"
	require.ErrorContains(t, c.Validate(), "invalid data backend")
}

func TestValidateCloudinaryPair(t *testing.T) {
	c := baseConfig()
	c.CloudinaryCloudName = "demo"
	require.ErrorContains(t, c.Validate(), "must be set together")

	c.CloudinaryUploadPreset = "unsigned"
	require.NoError(t, c.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	c := baseConfig()
	c.Port = "bad"
	c.DataBackend = "postgres"
	err := c.Validate()
	require.ErrorContains(t, err, "invalid port")
	require.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLoadDefaults(t *testing.T) {
	// Rely on t.Setenv to isolate the relevant variables.
	t.Setenv("PORT", "")
	t.Setenv("DATA_BACKEND", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	c := Load()
	require.Equal(t, "8080", c.Port)
	require.Equal(t, "memory", c.DataBackend)
	require.Equal(t, "INFO", c.LogLevel)
	require.Equal(t, "json", c.LogFormat)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATA_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://db/spendwell")

	c := Load()
	require.Equal(t, "9999", c.Port)
	require.Equal(t, "postgres", c.DataBackend)
	require.Equal(t, "postgres://db/spendwell", c.DatabaseURL)
}
