package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/hdwallet/internal/config"
	"github.com/olehkaliuzhnyi/hdwallet/internal/controller"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

type rootOptions struct {
	configPath string
	logLevel   string
	testnet    bool

	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	cmd := &cobra.Command{
		Use:   "hdwallet",
		Short: "Multi-protocol HD wallet engine",
		Long: `Derive wallets from BIP-39 mnemonics, restore them from private keys and
derive watch-only addresses from extended public keys.

Supported protocols: BITCOIN, ETHEREUM, BSC, CELO, RIPPLE, STELLAR, HATHOR.

Configuration is read from an optional file (--config) and HDWALLET_*
environment variables. Output is JSON on stdout.

SECURITY TIP: commands that print private keys or mnemonics should not be
run with output captured to shared logs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.testnet, "testnet", false, "use testnet version bytes for every protocol")

	cmd.AddCommand(
		newMnemonicCmd(opts),
		newGenerateCmd(opts),
		newFromKeyCmd(opts),
		newAddressCmd(opts),
		newAllocateCmd(opts),
		newProtocolsCmd(opts),
	)
	return cmd
}

// load resolves configuration, sets up logging and builds the controller.
func (o *rootOptions) load() (config.Config, *controller.Controller, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.testnet {
		cfg.SetNetwork(models.NetworkTestnet)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return config.Config{}, nil, err
	}

	c, err := controller.NewFromConfig(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, c, nil
}

func (o *rootOptions) print(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return nil
}

func protocolFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "protocol", "p", "", "blockchain protocol, e.g. BITCOIN")
	_ = cmd.MarkFlagRequired("protocol")
}
