package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/fystack/trustcore/pkg/logger"
)

const (
	// Environment constants
	Production  = "production"
	Development = "development"

	// Vault backend types for the secret key store.
	VaultTypeLocal  = "local"
	VaultTypeRemote = "remote"

	defaultKeyStoreDir         = "keystore"
	defaultVaultType           = VaultTypeLocal
	defaultVaultSubject        = "trustcore.vault.rpc"
	defaultVaultTimeoutSeconds = 10
	defaultRegistryPrefix      = "crypto_registry"

	EnvConfigFile = "TRUSTCORE_CONFIG_FILE"
)

type Config struct {
	Consul *ConsulConfig `mapstructure:"consul"`
	NATs   *NATsConfig   `mapstructure:"nats"`

	Environment string `mapstructure:"environment"`

	// Secret key store configuration
	KeyStoreDir      string `mapstructure:"keystore_dir"`
	KeyStorePassword string `mapstructure:"keystore_password"`

	// Vault backend: "local" keeps secret keys in the encrypted on-disk
	// store, "remote" reaches an out-of-process vault over NATS RPC.
	VaultType           string `mapstructure:"vault_type"`
	VaultSubject        string `mapstructure:"vault_subject"`
	VaultTimeoutSeconds int    `mapstructure:"vault_timeout_seconds"`

	// Registry KV prefix under which public key protos are stored.
	RegistryPrefix string `mapstructure:"registry_prefix"`
}

type ConsulConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

type NATsConfig struct {
	URL      string     `mapstructure:"url"`
	Username string     `mapstructure:"username"`
	Password string     `mapstructure:"password"`
	TLS      *TLSConfig `mapstructure:"tls"`
}

type TLSConfig struct {
	ClientCert string `mapstructure:"client_cert"`
	ClientKey  string `mapstructure:"client_key"`
	CACert     string `mapstructure:"ca_cert"`
}

var (
	app *Config
	mu  sync.RWMutex
)

func initConfig() error {
	viper.SetEnvPrefix("TRUSTCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("environment", Development)
	viper.SetDefault("keystore_dir", defaultKeyStoreDir)
	viper.SetDefault("vault_type", defaultVaultType)
	viper.SetDefault("vault_subject", defaultVaultSubject)
	viper.SetDefault("vault_timeout_seconds", defaultVaultTimeoutSeconds)
	viper.SetDefault("registry_prefix", defaultRegistryPrefix)

	configFile := os.Getenv(EnvConfigFile)
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/trustcore/")
		viper.AddConfigPath("$HOME/.trustcore/")
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("viper read config: %w", err)
	}

	return nil
}

func SetEnvConfigPath(configPath string) {
	if configPath != "" {
		os.Setenv(EnvConfigFile, configPath)
	}
}

func LoadConfig() (*Config, error) {
	var cfg Config
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateEnvironment(cfg.Environment); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := validateVaultType(cfg.VaultType); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	setConfig(&cfg)
	return &cfg, nil
}

func Load() (*Config, error) {
	if err := initConfig(); err != nil {
		return nil, err
	}
	return LoadConfig()
}

func validateEnvironment(environment string) error {
	validEnvironments := []string{Production, Development}

	if !slices.Contains(validEnvironments, environment) {
		return fmt.Errorf("invalid environment '%s'. Must be one of: %s", environment, strings.Join(validEnvironments, ", "))
	}
	return nil
}

func validateVaultType(vaultType string) error {
	validTypes := []string{VaultTypeLocal, VaultTypeRemote}

	if !slices.Contains(validTypes, vaultType) {
		return fmt.Errorf("invalid vault_type '%s'. Must be one of: %s", vaultType, strings.Join(validTypes, ", "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = Development
	}
	if cfg.KeyStoreDir == "" {
		cfg.KeyStoreDir = defaultKeyStoreDir
	}
	if cfg.VaultType == "" {
		cfg.VaultType = defaultVaultType
	}
	if cfg.VaultSubject == "" {
		cfg.VaultSubject = defaultVaultSubject
	}
	if cfg.VaultTimeoutSeconds == 0 {
		cfg.VaultTimeoutSeconds = defaultVaultTimeoutSeconds
	}
	if cfg.RegistryPrefix == "" {
		cfg.RegistryPrefix = defaultRegistryPrefix
	}
}

func setConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	app = cfg
}

// GetConfig returns the in-memory application configuration.
// It aborts if the configuration has not been loaded yet.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if app == nil {
		logger.Fatal("configuration not loaded", nil)
	}
	return app
}

// Update applies the provided function while holding the configuration write lock.
func Update(fn func(cfg *Config)) {
	mu.Lock()
	defer mu.Unlock()
	if app == nil {
		panic("configuration not loaded")
	}
	fn(app)
}

func KeyStoreDir() string {
	return GetConfig().KeyStoreDir
}

func KeyStorePassword() string {
	return GetConfig().KeyStorePassword
}

func SetKeyStorePassword(password string) {
	Update(func(cfg *Config) {
		cfg.KeyStorePassword = password
	})
}

func VaultType() string {
	return GetConfig().VaultType
}

func VaultSubject() string {
	return GetConfig().VaultSubject
}

func VaultTimeoutSeconds() int {
	return GetConfig().VaultTimeoutSeconds
}

func RegistryPrefix() string {
	return GetConfig().RegistryPrefix
}

func NATs() *NATsConfig {
	return GetConfig().NATs
}

func Environment() string {
	return GetConfig().Environment
}

func IsProduction() bool {
	return strings.EqualFold(Environment(), Production)
}
