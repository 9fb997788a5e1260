package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	for _, p := range models.Protocols {
		assert.Equal(t, models.NetworkMainnet, cfg.Network(p), p)
	}
	assert.Equal(t, 256, cfg.MnemonicStrength)
	assert.False(t, cfg.EVMChecksumAddress)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HDWALLET_BITCOIN_NETWORK", "TESTNET")
	t.Setenv("HDWALLET_DEFAULT_ADDRESS_INDEX", "7")
	t.Setenv("HDWALLET_EVM_CHECKSUM", "true")
	t.Setenv("HDWALLET_MNEMONIC_STRENGTH", "128")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, models.NetworkTestnet, cfg.Network(models.ProtocolBitcoin))
	assert.Equal(t, models.NetworkMainnet, cfg.Network(models.ProtocolHathor))
	assert.Equal(t, uint32(7), cfg.DefaultAddressIndex)
	assert.True(t, cfg.EVMChecksumAddress)
	assert.Equal(t, 128, cfg.MnemonicStrength)
}

func TestLoad_EnvTestnetWithProtocolOverride(t *testing.T) {
	t.Setenv("HDWALLET_TESTNET", "true")
	t.Setenv("HDWALLET_CELO_NETWORK", "mainnet")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, models.NetworkMainnet, cfg.Network(models.ProtocolCelo))
	assert.Equal(t, models.NetworkTestnet, cfg.Network(models.ProtocolBitcoin))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdwallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
testnet: true
networks:
  hathor: mainnet
default_address_index: 3
evm_checksum: true
log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.NetworkTestnet, cfg.Network(models.ProtocolBitcoin))
	assert.Equal(t, models.NetworkMainnet, cfg.Network(models.ProtocolHathor))
	assert.Equal(t, uint32(3), cfg.DefaultAddressIndex)
	assert.True(t, cfg.EVMChecksumAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdwallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mnemonic_strength: 128\n"), 0o600))
	t.Setenv("HDWALLET_MNEMONIC_STRENGTH", "192")
	t.Setenv("HDWALLET_HATHOR_NETWORK", "testnet")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 192, cfg.MnemonicStrength)
	assert.Equal(t, models.NetworkTestnet, cfg.Network(models.ProtocolHathor))
	assert.Equal(t, models.NetworkMainnet, cfg.Network(models.ProtocolBitcoin))
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad network", func(t *testing.T) {
		t.Setenv("HDWALLET_BITCOIN_NETWORK", "bogus")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("garbage index", func(t *testing.T) {
		t.Setenv("HDWALLET_DEFAULT_ADDRESS_INDEX", "2147483648")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("bad strength", func(t *testing.T) {
		t.Setenv("HDWALLET_MNEMONIC_STRENGTH", "100")
		_, err := Load("")
		assert.Error(t, err)
	})
}
