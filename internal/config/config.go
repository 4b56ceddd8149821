package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Verifier VerifierConfig `yaml:"verifier"`
	Relay    RelayConfig    `yaml:"relay"`
	Pool     PoolConfig     `yaml:"pool"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	Enabled       bool   `yaml:"enabled"`
}

// VerifierConfig proof verifier service configuration
type VerifierConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout int    `yaml:"timeout"`
}

// RelayConfig relay intent signing domain configuration
type RelayConfig struct {
	DomainName    string `yaml:"domainName"`
	DomainVersion string `yaml:"domainVersion"`
	ChainID       uint64 `yaml:"chainId"`
	PoolID        string `yaml:"poolId"` // 32-byte hex
	MaxFee        string `yaml:"maxFee"` // decimal string, empty disables the cap
}

// PoolConfig privacy pool configuration
type PoolConfig struct {
	TreeDepth      int    `yaml:"treeDepth"`
	FeePoolBalance string `yaml:"feePoolBalance"` // decimal string, seeds the fee ledger
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	JWTSecret  string   `yaml:"jwtSecret"`
	AllowedIPs []string `yaml:"allowedIPs"` // IP addresses or CIDR ranges
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

var AppConfig *Config

// LoadConfig loads the YAML configuration file and applies environment
// variable overrides.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	AppConfig = &config
	return nil
}

// overrideFromEnv applies environment variable overrides. Environment wins
// over YAML so containers can be reconfigured without editing files.
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
		config.NATS.Enabled = true
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if verifierURL := os.Getenv("VERIFIER_BASE_URL"); verifierURL != "" {
		config.Verifier.BaseURL = verifierURL
	}

	if chainID := os.Getenv("RELAY_CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseUint(chainID, 10, 64); err == nil {
			config.Relay.ChainID = id
		}
	}
	if poolID := os.Getenv("RELAY_POOL_ID"); poolID != "" {
		config.Relay.PoolID = poolID
	}
	if maxFee := os.Getenv("RELAY_MAX_FEE"); maxFee != "" {
		config.Relay.MaxFee = maxFee
	}

	if depth := os.Getenv("POOL_TREE_DEPTH"); depth != "" {
		if d, err := strconv.Atoi(depth); err == nil {
			config.Pool.TreeDepth = d
		}
	}

	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Admin.JWTSecret = secret
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		config.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 18090
	}
	if config.Relay.DomainName == "" {
		config.Relay.DomainName = "ShieldPool"
	}
	if config.Relay.DomainVersion == "" {
		config.Relay.DomainVersion = "1"
	}
}

// GetVerifierURL returns the proof verifier service URL.
func GetVerifierURL() string {
	if AppConfig != nil && AppConfig.Verifier.BaseURL != "" {
		return AppConfig.Verifier.BaseURL
	}
	if verifierURL := os.Getenv("VERIFIER_BASE_URL"); verifierURL != "" {
		return verifierURL
	}
	if os.Getenv("GIN_MODE") == "release" {
		return "http://shieldpool-verifier:18081"
	}
	return "http://localhost:18081"
}

// GetJWTSecret returns the admin JWT signing secret.
func GetJWTSecret() []byte {
	if AppConfig != nil && AppConfig.Admin.JWTSecret != "" {
		return []byte(AppConfig.Admin.JWTSecret)
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("shieldpool-jwt-secret-dev")
}
