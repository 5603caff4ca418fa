// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"

	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

const (
	appName = "stakingd"

	sqliteDb = "sqlite"
	badgerDb = "badger"
)

// Config defines stakingd configuration, every field is read from STAKING_ prefixed env.
type Config struct {
	Datadir         string `mapstructure:"DATADIR" envDefault:"stakingd" envInfo:"Data directory for staking state"`
	DbType          string `mapstructure:"DB_TYPE" envDefault:"sqlite" envInfo:"Database backend: sqlite | badger"`
	LogLevel        uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`
	Network         string `mapstructure:"NETWORK" envDefault:"mainnet" envInfo:"Bitcoin network: mainnet | testnet | signet | regtest"`
	LockScriptType  string `mapstructure:"LOCK_SCRIPT_TYPE" envDefault:"p2sh" envInfo:"Locked address wrapping: p2sh | p2wsh"`
	TreasuryAddress string `mapstructure:"TREASURY_ADDRESS" envDefault:"" envInfo:"Service fee recipient address (required)"`

	UnisatURL     string `mapstructure:"UNISAT_URL" envDefault:"https://open-api.unisat.io" envInfo:"Unisat indexer and market API"`
	UnisatToken   string `mapstructure:"UNISAT_TOKEN" envDefault:"" envInfo:"Unisat API bearer token"`
	MempoolURL    string `mapstructure:"MEMPOOL_URL" envDefault:"https://mempool.space/api" envInfo:"Fee estimation API"`
	StaticFeeRate uint64 `mapstructure:"STATIC_FEE_RATE" envDefault:"0" envInfo:"Static fee rate in sat/vB, replaces fee API when set"`

	NodeHost       string `mapstructure:"NODE_HOST" envDefault:"" envInfo:"Node JSON-RPC host:port, broadcast is disabled when empty"`
	NodeUser       string `mapstructure:"NODE_USER" envDefault:"" envInfo:"Node JSON-RPC user"`
	NodePass       string `mapstructure:"NODE_PASS" envDefault:"" envInfo:"Node JSON-RPC password"`
	NodeDisableTLS bool   `mapstructure:"NODE_DISABLE_TLS" envDefault:"true" envInfo:"Disable TLS for node JSON-RPC"`

	RequestTimeout     uint32 `mapstructure:"REQUEST_TIMEOUT" envDefault:"30" envInfo:"External call timeout in seconds"`
	IndexerPageSize    uint32 `mapstructure:"INDEXER_PAGE_SIZE" envDefault:"16" envInfo:"Indexer pagination page size"`
	PriceCacheTTL      uint32 `mapstructure:"PRICE_CACHE_TTL" envDefault:"1800" envInfo:"Price quote cache TTL in seconds"`
	ServiceFeeFloor    uint64 `mapstructure:"SERVICE_FEE_FLOOR" envDefault:"2000" envInfo:"Service fee floor in sats"`
	ServiceFeeRateBps  uint64 `mapstructure:"SERVICE_FEE_RATE_BPS" envDefault:"100" envInfo:"Service fee variable rate in basis points"`
	BackgroundInterval uint32 `mapstructure:"BACKGROUND_INTERVAL" envDefault:"10" envInfo:"Seconds between background runs"`
	PollerThrottleMs   uint32 `mapstructure:"POLLER_THROTTLE_MS" envDefault:"500" envInfo:"Pause between reconciled staking rows in milliseconds"`
}

var networks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNetParams,
	"testnet": &chaincfg.TestNet3Params,
	"signet":  &chaincfg.SigNetParams,
	"regtest": &chaincfg.RegressionNetParams,
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STAKING")
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	return &config, nil
}

// Validate checks values which can not be defaulted.
func (c *Config) Validate() error {
	supportedDbType := map[string]struct{}{
		sqliteDb: {},
		badgerDb: {},
	}
	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	params, ok := networks[c.Network]
	if !ok {
		return fmt.Errorf("unsupported network: %s", c.Network)
	}

	if _, err := timelock.ParseScriptType(c.LockScriptType); err != nil {
		return err
	}

	if c.TreasuryAddress == "" {
		return errors.New("treasury address is required")
	}
	treasury, err := btcutil.DecodeAddress(c.TreasuryAddress, params)
	if err != nil {
		return fmt.Errorf("invalid treasury address: %w", err)
	}
	if !treasury.IsForNet(params) {
		return fmt.Errorf("treasury address is not for %s", c.Network)
	}

	if c.IndexerPageSize == 0 {
		return errors.New("indexer page size must be positive")
	}

	return nil
}

// NetworkParams returns chain parameters of the configured network.
func (c *Config) NetworkParams() *chaincfg.Params {
	return networks[c.Network]
}

// ScriptType returns configured locked address wrapping.
func (c *Config) ScriptType() timelock.ScriptType {
	return timelock.ScriptType(c.LockScriptType)
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) PriceTTL() time.Duration {
	return time.Duration(c.PriceCacheTTL) * time.Second
}

func (c *Config) PollerThrottle() time.Duration {
	return time.Duration(c.PollerThrottleMs) * time.Millisecond
}

// DbDir returns directory of the configured db backend.
func (c *Config) DbDir() string {
	return filepath.Join(c.Datadir, "db")
}

func (c *Config) initDb() error {
	if c.Datadir == appName {
		c.Datadir = btcutil.AppDataDir(appName, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.DbDir())
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}
