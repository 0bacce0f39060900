package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Vendor    VendorConfig    `yaml:"vendor"`
	Inventory InventoryConfig `yaml:"inventory"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logger    LoggerConfig    `yaml:"logger"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// VendorConfig holds the upstream proxy supplier channel credentials.
// AppSecret doubles as the AES key material, so it must be at least 32 bytes.
type VendorConfig struct {
	BaseURL         string        `yaml:"base_url"`
	AppKey          string        `yaml:"app_key"`
	AppSecret       string        `yaml:"app_secret"`
	Timeout         time.Duration `yaml:"timeout"`
	CallbackBaseURL string        `yaml:"callback_base_url"`
	Sandbox         bool          `yaml:"sandbox"`
}

type InventoryConfig struct {
	ProxyTypes   []int         `yaml:"proxy_types"`
	MinInterval  time.Duration `yaml:"min_interval"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type WebSocketConfig struct {
	ReadBufferSize  int  `yaml:"read_buffer_size"`
	WriteBufferSize int  `yaml:"write_buffer_size"`
	CheckOrigin     bool `yaml:"check_origin"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	TimeFormat string `yaml:"time_format"`
	Pretty     bool   `yaml:"pretty"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	var config Config
	configData, err := os.ReadFile("./config.yaml")
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if len(c.Vendor.AppSecret) < 32 {
		return fmt.Errorf("vendor.app_secret must be at least 32 bytes, got %d", len(c.Vendor.AppSecret))
	}
	if c.Vendor.Timeout == 0 {
		c.Vendor.Timeout = 15 * time.Second
	}
	if c.Inventory.MinInterval == 0 {
		c.Inventory.MinInterval = 300 * time.Second
	}
	return nil
}
