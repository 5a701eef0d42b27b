package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stakevault/crypto"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress        string  `toml:"RPCAddress"`
	MetricsAddress    string  `toml:"MetricsAddress"`
	DataDir           string  `toml:"DataDir"`
	NetworkName       string  `toml:"NetworkName"`
	Env               string  `toml:"Env"`
	AdminAddress      string  `toml:"AdminAddress"`
	AdminKeystorePath string  `toml:"AdminKeystorePath"`
	Genesis           Genesis `toml:"genesis"`
}

// Genesis seeds the ledger on first start: the initial term table and the
// account balances the service boots with.
type Genesis struct {
	TermDays      []uint64         `toml:"TermDays"`
	YieldPercents []uint64         `toml:"YieldPercents"`
	Accounts      []GenesisAccount `toml:"accounts"`
}

// GenesisAccount funds a single address. Balances are decimal strings so
// arbitrarily large amounts survive the TOML round trip.
type GenesisAccount struct {
	Address    string `toml:"Address"`
	BalanceSTK string `toml:"BalanceSTK"`
	BalanceRWD string `toml:"BalanceRWD"`
}

// Load loads the configuration from the given path, creating a default
// configuration and admin keystore when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "stakevault-local"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the configuration the service cannot start
// without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AdminAddress) == "" {
		return fmt.Errorf("config: AdminAddress is required")
	}
	if _, err := crypto.DecodeAddress(c.AdminAddress); err != nil {
		return fmt.Errorf("config: invalid AdminAddress: %w", err)
	}
	if len(c.Genesis.TermDays) > 3 || len(c.Genesis.YieldPercents) > 3 {
		return fmt.Errorf("config: genesis term table has at most 3 slots")
	}
	for i, d := range c.Genesis.TermDays {
		if d == 0 {
			return fmt.Errorf("config: genesis term slot %d has zero duration", i)
		}
	}
	for _, acct := range c.Genesis.Accounts {
		if _, err := crypto.DecodeAddress(acct.Address); err != nil {
			return fmt.Errorf("config: invalid genesis account %q: %w", acct.Address, err)
		}
	}
	return nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.AdminKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
		if strings.TrimSpace(cfg.AdminAddress) == "" {
			cfg.AdminAddress = key.PubKey().Address().String()
		}
	} else if err != nil {
		return err
	}

	if cfg.AdminKeystorePath != keystorePath {
		cfg.AdminKeystorePath = keystorePath
		return persist(configPath, cfg)
	}

	return nil
}

// createDefault creates and saves a default configuration file together with
// a fresh admin keystore.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:     ":8545",
		MetricsAddress: ":9464",
		DataDir:        "./stakevault-data",
		NetworkName:    "stakevault-local",
		AdminAddress:   key.PubKey().Address().String(),
		Genesis: Genesis{
			TermDays:      []uint64{30, 90, 180},
			YieldPercents: []uint64{5, 10, 20},
		},
	}
	cfg.AdminKeystorePath = keystorePath

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "admin.keystore")
}
