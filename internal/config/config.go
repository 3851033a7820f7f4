package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	API         APIConfig
	Store       StoreConfig
	RabbitMQ    RabbitMQConfig
	Impact      ImpactConfig
}

// APIConfig holds external energy API settings
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RetryCount     int
	Token          string
	Username       string
	Password       string
}

// StoreConfig selects and configures the view-state store backend
type StoreConfig struct {
	Backend     string // "file" or "redis"
	FileDir     string
	RedisAddr   string
	RedisPrefix string
}

// RabbitMQConfig holds the optional alert-event publishing settings.
// Publishing is disabled when URL is empty.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// ImpactConfig holds the environmental-impact conversion factors. These are
// illustrative policy values the product exposes deliberately.
type ImpactConfig struct {
	CO2KgPerKWh    float64
	TreesPerTonCO2 float64
	CostUSDPerKWh  float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "energy-dashboard"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8090),
		API: APIConfig{
			BaseURL:        getEnv("ENERGY_API_URL", ""),
			TimeoutSeconds: getEnvAsInt("ENERGY_API_TIMEOUT_SECONDS", 10),
			RetryCount:     getEnvAsInt("ENERGY_API_RETRY_COUNT", 2),
			Token:          getEnv("ENERGY_API_TOKEN", ""),
			Username:       getEnv("ENERGY_API_USERNAME", ""),
			Password:       getEnv("ENERGY_API_PASSWORD", ""),
		},
		Store: StoreConfig{
			Backend:     getEnv("STORE_BACKEND", "file"),
			FileDir:     getEnv("STORE_FILE_DIR", "./data"),
			RedisAddr:   getEnv("STORE_REDIS_ADDR", "localhost:6379"),
			RedisPrefix: getEnv("STORE_REDIS_PREFIX", "energy-dashboard:"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_ALERT_EXCHANGE", "energy-dashboard.alerts.exchange"),
			RoutingKey: getEnv("RABBITMQ_ALERT_ROUTING_KEY", "dashboard.alert.triggered"),
		},
		Impact: ImpactConfig{
			CO2KgPerKWh:    getEnvAsFloat("IMPACT_CO2_KG_PER_KWH", 0.42),
			TreesPerTonCO2: getEnvAsFloat("IMPACT_TREES_PER_TON_CO2", 45),
			CostUSDPerKWh:  getEnvAsFloat("IMPACT_COST_USD_PER_KWH", 0.12),
		},
	}

	// Validate required fields
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("ENERGY_API_URL is required but not set in environment variables")
	}
	if cfg.Store.Backend != "file" && cfg.Store.Backend != "redis" {
		return nil, fmt.Errorf("STORE_BACKEND must be \"file\" or \"redis\", got %q", cfg.Store.Backend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
