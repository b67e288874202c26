package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	PublicURL   string            `mapstructure:"public_url"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Menu        MenuConfig        `mapstructure:"menu"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Events      EventsConfig      `mapstructure:"events"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	Port string `mapstructure:"port"` // legacy PORT; wins over addr when set
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ProviderConfig struct {
	Name        string `mapstructure:"name"` // plivo | twilio
	AuthID      string `mapstructure:"auth_id"`
	AuthToken   string `mapstructure:"auth_token"`
	PhoneNumber string `mapstructure:"phone_number"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutMs   int    `mapstructure:"timeout_ms"`
}

type MenuConfig struct {
	Voice      string `mapstructure:"voice"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
	Retries    int    `mapstructure:"retries"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type IdempotencyConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type EventsConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	GroupID        string        `mapstructure:"group_id"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval int           `mapstructure:"commit_interval_ms"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// legacyEnv maps config keys to the variable names used by earlier .env files.
var legacyEnv = map[string]string{
	"provider.auth_id":      "PLIVO_AUTH_ID",
	"provider.auth_token":   "PLIVO_AUTH_TOKEN",
	"provider.phone_number": "PLIVO_PHONE_NUMBER",
	"public_url":            "PUBLIC_URL",
	"http.port":             "PORT",
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (IVR_*).
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (IVR_*)
	v.SetEnvPrefix("IVR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "IVR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if p := strings.TrimSpace(c.HTTP.Port); p != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(p, ":")
	}
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Name == "" {
		c.Provider.Name = "plivo"
	}
	c.Provider.PhoneNumber = strings.TrimSpace(c.Provider.PhoneNumber)
}

// Port returns the listening port portion of HTTP.Addr.
func (c Config) Port() string {
	addr := c.HTTP.Addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
