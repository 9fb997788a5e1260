package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// EnvPrefix prefixes every environment variable read by this package.
const EnvPrefix = "HDWALLET"

// Config holds all configurable parameters for the wallet engine.
type Config struct {
	// Per-protocol network selection; affects address and xpub version bytes only
	Networks map[models.Protocol]models.Network

	// Address index used when a request carries no derivation
	DefaultAddressIndex uint32

	// EIP-55 mixed-case EVM addresses instead of lowercase hex
	EVMChecksumAddress bool

	// Entropy bits for generated mnemonics (128-256, step 32)
	MnemonicStrength int

	LogLevel string
}

// Default returns a Config populated with default values.
func Default() Config {
	networks := make(map[models.Protocol]models.Network, len(models.Protocols))
	for _, p := range models.Protocols {
		networks[p] = models.NetworkMainnet
	}
	return Config{
		Networks:            networks,
		DefaultAddressIndex: 0,
		EVMChecksumAddress:  false,
		MnemonicStrength:    256,
		LogLevel:            "info",
	}
}

// Load reads an optional config file (yaml, json or toml) and overlays
// HDWALLET_* environment variables on top of defaults. An empty path skips
// the file, leaving defaults plus environment. Per-protocol networks come from
// HDWALLET_<PROTOCOL>_NETWORK or the networks.<protocol> file key.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("testnet", false)
	for _, p := range models.Protocols {
		// no default, so IsSet reports only file or env values
		if err := v.BindEnv(networkKey(p), networkEnv(p)); err != nil {
			return Config{}, errors.Wrap(err, "bind env")
		}
	}
	v.SetDefault("default_address_index", def.DefaultAddressIndex)
	v.SetDefault("evm_checksum", def.EVMChecksumAddress)
	v.SetDefault("mnemonic_strength", def.MnemonicStrength)
	v.SetDefault("log_level", def.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := def
	if v.GetBool("testnet") {
		cfg.SetNetwork(models.NetworkTestnet)
	}
	for _, p := range models.Protocols {
		if v.IsSet(networkKey(p)) {
			cfg.Networks[p] = models.Network(strings.ToLower(v.GetString(networkKey(p))))
		}
	}
	cfg.DefaultAddressIndex = v.GetUint32("default_address_index")
	cfg.EVMChecksumAddress = v.GetBool("evm_checksum")
	cfg.MnemonicStrength = v.GetInt("mnemonic_strength")
	cfg.LogLevel = v.GetString("log_level")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetNetwork selects the same network for every protocol.
func (c *Config) SetNetwork(n models.Network) {
	if c.Networks == nil {
		c.Networks = make(map[models.Protocol]models.Network, len(models.Protocols))
	}
	for _, p := range models.Protocols {
		c.Networks[p] = n
	}
}

// Network returns the network configured for p, mainnet when unset.
func (c Config) Network(p models.Protocol) models.Network {
	if n, ok := c.Networks[p]; ok {
		return n
	}
	return models.NetworkMainnet
}

// Validate checks value ranges.
func (c Config) Validate() error {
	for p, n := range c.Networks {
		if n != models.NetworkMainnet && n != models.NetworkTestnet {
			return errors.Errorf("config: network for %s must be mainnet or testnet, got %q", p, n)
		}
	}
	if c.MnemonicStrength < 128 || c.MnemonicStrength > 256 || c.MnemonicStrength%32 != 0 {
		return errors.Errorf("config: mnemonic_strength must be 128-256 in steps of 32, got %d", c.MnemonicStrength)
	}
	if c.DefaultAddressIndex >= 1<<31 {
		return errors.Errorf("config: default_address_index %d is in the hardened range", c.DefaultAddressIndex)
	}
	return nil
}

func networkKey(p models.Protocol) string {
	return "networks." + strings.ToLower(string(p))
}

// networkEnv is HDWALLET_<PROTOCOL>_NETWORK.
func networkEnv(p models.Protocol) string {
	return EnvPrefix + "_" + string(p) + "_NETWORK"
}
