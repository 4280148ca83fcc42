// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mintnprint/backend/internal/models"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	OpenAI      OpenAIConfig
	AWS         AWSConfig
	Blockchain  BlockchainConfig
	Printify    PrintifyConfig
	Payment     PaymentConfig
	Checkout    CheckoutConfig
	Session     SessionConfig
	Frontend    FrontendConfig
	Prices      models.PriceTable
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	Enabled      bool
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type OpenAIConfig struct {
	APIKey    string
	Model     string
	ImageSize string
	Timeout   int // seconds, applies to generation and download
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type BlockchainConfig struct {
	RPCURL          string
	ChainID         string // CAIP-2, e.g. eip155:8453
	ContractAddress string
	MintPriceWei    string
	ExplorerBaseURL string
	VerifyTimeout   int // seconds
}

type PrintifyConfig struct {
	APIKey           string
	ShopID           string
	BaseURL          string
	TshirtBlueprint  string
	HoodieBlueprint  string
	MugBlueprint     string
	PrintProviderID  int
	Timeout          int // seconds per API call
	Bypass           bool
	ErrorBypass      bool
	PlaceholderImage string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
}

type CheckoutConfig struct {
	TokenSecret string
	TokenTTL    int // minutes
}

type SessionConfig struct {
	TTL int // minutes before an idle session is evicted
}

type FrontendConfig struct {
	BaseURL          string
	WelcomeImagePath string
	ErrorImagePath   string
	TestImagePath    string
	PublicDir        string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "mintnprint"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
			Enabled:      getEnvAsBool("DB_ENABLED", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			Model:     getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			ImageSize: getEnv("OPENAI_IMAGE_SIZE", "1024x1024"),
			Timeout:   getEnvAsInt("OPENAI_TIMEOUT", 30),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "mintnprint-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Blockchain: BlockchainConfig{
			RPCURL:          getEnv("BLOCKCHAIN_RPC_URL", "https://mainnet.base.org"),
			ChainID:         getEnv("BLOCKCHAIN_CHAIN_ID", "eip155:8453"),
			ContractAddress: getEnv("NFT_CONTRACT_ADDRESS", ""),
			MintPriceWei:    getEnv("MINT_PRICE_WEI", "10000000000000000"), // 0.01 ETH
			ExplorerBaseURL: getEnv("BLOCK_EXPLORER_URL", "https://basescan.org"),
			VerifyTimeout:   getEnvAsInt("BLOCKCHAIN_VERIFY_TIMEOUT", 15),
		},
		Printify: PrintifyConfig{
			APIKey:           getEnv("PRINTIFY_API_KEY", ""),
			ShopID:           getEnv("PRINTIFY_SHOP_ID", ""),
			BaseURL:          getEnv("PRINTIFY_BASE_URL", "https://api.printify.com/v1"),
			TshirtBlueprint:  getEnv("PRINTIFY_DEFAULT_TSHIRT_BLUEPRINT", "5d40b179d01f676456a0bbcd"),
			HoodieBlueprint:  getEnv("PRINTIFY_DEFAULT_HOODIE_BLUEPRINT", "5f46ce428a99620c0651a406"),
			MugBlueprint:     getEnv("PRINTIFY_DEFAULT_MUG_BLUEPRINT", "5f46ce5b8a99620c0651a407"),
			PrintProviderID:  getEnvAsInt("PRINTIFY_PRINT_PROVIDER_ID", 1),
			Timeout:          getEnvAsInt("PRINTIFY_TIMEOUT", 30),
			Bypass:           getEnvAsBool("PRINTIFY_BYPASS", false),
			ErrorBypass:      getEnvAsBool("PRINTIFY_ERROR_BYPASS", false),
			PlaceholderImage: getEnv("PRINTIFY_PLACEHOLDER_IMAGE", "https://placekitten.com/1024/1024"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		},
		Checkout: CheckoutConfig{
			TokenSecret: getEnv("CHECKOUT_TOKEN_SECRET", "dev-checkout-secret-change-me"),
			TokenTTL:    getEnvAsInt("CHECKOUT_TOKEN_TTL", 60),
		},
		Session: SessionConfig{
			TTL: getEnvAsInt("SESSION_TTL", 120),
		},
		Frontend: FrontendConfig{
			BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
			WelcomeImagePath: getEnv("WELCOME_IMAGE_PATH", "/welcome.png"),
			ErrorImagePath:   getEnv("ERROR_IMAGE_PATH", "/error-image.svg"),
			TestImagePath:    getEnv("TEST_IMAGE_PATH", "/test-image.svg"),
			PublicDir:        getEnv("PUBLIC_DIR", "./public"),
		},
		Prices: models.DefaultPriceTable(),
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if err := c.Prices.Validate(); err != nil {
		return err
	}

	if c.IsProduction() {
		if c.Printify.Bypass {
			return fmt.Errorf("PRINTIFY_BYPASS must not be enabled in production")
		}
		if c.Printify.ErrorBypass {
			return fmt.Errorf("PRINTIFY_ERROR_BYPASS must not be enabled in production")
		}
		if c.Checkout.TokenSecret == "dev-checkout-secret-change-me" {
			return fmt.Errorf("checkout token secret must be changed in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PlaceholderImageURL is the always-available fallback served when image
// generation is unconfigured or failing.
func (c *Config) PlaceholderImageURL() string {
	return c.Frontend.BaseURL + c.Frontend.TestImagePath
}

func (c *Config) WelcomeImageURL() string {
	return c.Frontend.BaseURL + c.Frontend.WelcomeImagePath
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
