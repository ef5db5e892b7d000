package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"watchvault/crypto"
)

type Config struct {
	RPCAddress        string   `toml:"RPCAddress"`
	GatewayAddress    string   `toml:"GatewayAddress"`
	DataDir           string   `toml:"DataDir"`
	Environment       string   `toml:"Environment"`
	RPCToken          string   `toml:"RPCToken"`
	MintAuthority     string   `toml:"MintAuthority"`
	OracleWriter      string   `toml:"OracleWriter"`
	CollateralRatioBP uint64   `toml:"CollateralRatioBP"`
	InterestRateBP    uint64   `toml:"InterestRateBP"`
	PausedModules     []string `toml:"PausedModules"`
	RateLimitPerMin   float64  `toml:"RateLimitPerMinute"`
	RateLimitBurst    int      `toml:"RateLimitBurst"`
}

const (
	defaultCollateralRatioBP = 8_000
	defaultInterestRateBP    = 200
)

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	if c.CollateralRatioBP > 10_000 {
		return fmt.Errorf("config: CollateralRatioBP %d exceeds 10000", c.CollateralRatioBP)
	}
	if c.InterestRateBP > 10_000 {
		return fmt.Errorf("config: InterestRateBP %d exceeds 10000", c.InterestRateBP)
	}
	if strings.TrimSpace(c.MintAuthority) != "" {
		if _, err := crypto.DecodeAddress(c.MintAuthority); err != nil {
			return fmt.Errorf("config: MintAuthority: %w", err)
		}
	}
	if strings.TrimSpace(c.OracleWriter) != "" {
		if _, err := crypto.DecodeAddress(c.OracleWriter); err != nil {
			return fmt.Errorf("config: OracleWriter: %w", err)
		}
	}
	return nil
}

// MintAuthorityAddress decodes the configured mint authority, or the zero
// address when unset.
func (c *Config) MintAuthorityAddress() (crypto.Address, error) {
	return decodeOptional(c.MintAuthority)
}

// OracleWriterAddress decodes the configured oracle writer, or the zero
// address when unset.
func (c *Config) OracleWriterAddress() (crypto.Address, error) {
	return decodeOptional(c.OracleWriter)
}

func decodeOptional(raw string) (crypto.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return crypto.Address{}, nil
	}
	return crypto.DecodeAddress(raw)
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./watchvault-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.CollateralRatioBP == 0 {
		cfg.CollateralRatioBP = defaultCollateralRatioBP
	}
	if cfg.InterestRateBP == 0 {
		cfg.InterestRateBP = defaultInterestRateBP
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 600
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
