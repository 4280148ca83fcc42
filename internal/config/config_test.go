// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dall-e-3", cfg.OpenAI.Model)
	assert.Equal(t, "https://mainnet.base.org", cfg.Blockchain.RPCURL)
	assert.Equal(t, "eip155:8453", cfg.Blockchain.ChainID)
	assert.Equal(t, "10000000000000000", cfg.Blockchain.MintPriceWei)
	assert.Equal(t, "https://api.printify.com/v1", cfg.Printify.BaseURL)
	assert.False(t, cfg.Printify.Bypass)
	assert.False(t, cfg.Printify.ErrorBypass)
	assert.False(t, cfg.Database.Enabled)
	assert.NoError(t, cfg.Prices.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PRINTIFY_BYPASS", "true")
	t.Setenv("SESSION_TTL", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Printify.Bypass)
	assert.Equal(t, 15, cfg.Session.TTL)
}

func TestValidateRejectsBypassInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CHECKOUT_TOKEN_SECRET", "real-secret")
	t.Setenv("PRINTIFY_BYPASS", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "PRINTIFY_BYPASS")
}

func TestValidateRejectsErrorBypassInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CHECKOUT_TOKEN_SECRET", "real-secret")
	t.Setenv("PRINTIFY_ERROR_BYPASS", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "PRINTIFY_ERROR_BYPASS")
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "checkout token secret")
}

func TestPlaceholderAndWelcomeURLs(t *testing.T) {
	cfg := &Config{
		Frontend: FrontendConfig{
			BaseURL:          "https://app.example.com",
			WelcomeImagePath: "/welcome.png",
			TestImagePath:    "/test-image.svg",
		},
	}

	assert.Equal(t, "https://app.example.com/test-image.svg", cfg.PlaceholderImageURL())
	assert.Equal(t, "https://app.example.com/welcome.png", cfg.WelcomeImageURL())
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		Database: "mintnprint",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=mintnprint sslmode=disable",
		db.DSN())
}
