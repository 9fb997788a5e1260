package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/hdwallet/internal/deposit"
	"github.com/olehkaliuzhnyi/hdwallet/internal/storage"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

func newMnemonicCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mnemonic",
		Short: "Generate a fresh BIP-39 mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}
			m, err := c.GenerateMnemonic(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(map[string]string{"mnemonic": m})
		},
	}
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		protocol   string
		mnemonic   string
		passphrase string
		index      int64
		path       string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive a wallet from a mnemonic, generating one when omitted",
		Example: `  hdwallet generate -p BITCOIN
  hdwallet generate -p ETHEREUM --mnemonic "abandon ... about" --index 3
  hdwallet generate -p STELLAR --mnemonic "abandon ... about" --path "m/44'/148'/2'"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}
			req := models.GenerateWalletRequest{
				Protocol:   models.NormalizeProtocol(protocol),
				Mnemonic:   mnemonic,
				Passphrase: passphrase,
			}
			if cmd.Flags().Changed("index") {
				idx, err := addressIndex(index)
				if err != nil {
					return err
				}
				req.Derivation = &models.Derivation{Address: idx}
			}
			if path != "" {
				req.Derivation = &models.Derivation{Path: path}
			}
			w, err := c.GenerateWallet(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(w)
		},
	}
	protocolFlag(cmd, &protocol)
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 mnemonic; a new one is generated when empty")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "optional BIP-39 passphrase")
	cmd.Flags().Int64Var(&index, "index", 0, "address index (default from config)")
	cmd.Flags().StringVar(&path, "path", "", "full derivation path, replacing the protocol default")
	cmd.MarkFlagsMutuallyExclusive("index", "path")
	return cmd
}

func newFromKeyCmd(opts *rootOptions) *cobra.Command {
	var protocol, key string
	cmd := &cobra.Command{
		Use:   "from-key",
		Short: "Restore address and public key from a private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}
			w, err := c.GenerateWalletFromPrivateKey(cmd.Context(), models.PrivateKeyRequest{
				Protocol:   models.NormalizeProtocol(protocol),
				PrivateKey: key,
			})
			if err != nil {
				return err
			}
			return opts.print(w)
		},
	}
	protocolFlag(cmd, &protocol)
	cmd.Flags().StringVar(&key, "key", "", "protocol-encoded private key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newAddressCmd(opts *rootOptions) *cobra.Command {
	var (
		protocol string
		xpub     string
		index    int64
	)
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive an address from an extended public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}
			idx, err := addressIndex(index)
			if err != nil {
				return err
			}
			p := models.NormalizeProtocol(protocol)
			addr, err := c.GenerateWalletAddressFromXpub(cmd.Context(), models.XpubRequest{
				Protocol: p,
				Xpub:     xpub,
				Address:  idx,
			})
			if err != nil {
				return err
			}
			return opts.print(map[string]interface{}{
				"protocol": p,
				"index":    idx,
				"address":  addr,
			})
		},
	}
	protocolFlag(cmd, &protocol)
	cmd.Flags().StringVar(&xpub, "xpub", "", "extended public key")
	cmd.Flags().Int64Var(&index, "index", 0, "address index")
	_ = cmd.MarkFlagRequired("xpub")
	return cmd
}

func newAllocateCmd(opts *rootOptions) *cobra.Command {
	var (
		protocol string
		xpub     string
		count    int
		release  []string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate consecutive deposit addresses from an extended public key",
		Long: `Allocate hands out consecutive addresses below an extended public key and
adds each one to the watch list. Addresses passed with --release are taken off
the watch list afterwards; releasing an address that was never handed out is
an error.`,
		Example: `  hdwallet allocate -p BITCOIN --xpub xpub6E... --count 3
  hdwallet allocate -p BITCOIN --xpub xpub6E... --count 2 --release 1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := opts.load()
			if err != nil {
				return err
			}
			watch := storage.NewMemoryWatchStore()
			alloc := deposit.NewAllocator(c,
				storage.NewMemoryIndexStore(),
				storage.NewMemoryAllocationStore(),
				watch,
			)
			allocs, err := alloc.AllocateBatch(cmd.Context(), models.NormalizeProtocol(protocol), xpub, count)
			if err != nil {
				return err
			}
			if err := releaseAddresses(watch, release); err != nil {
				return err
			}
			watched, err := watch.List()
			if err != nil {
				return err
			}
			return opts.print(allocateResult{Allocations: allocs, Watched: watched})
		},
	}
	protocolFlag(cmd, &protocol)
	cmd.Flags().StringVar(&xpub, "xpub", "", "extended public key")
	cmd.Flags().IntVar(&count, "count", 1, "number of addresses")
	cmd.Flags().StringSliceVar(&release, "release", nil, "allocated addresses to drop from the watch list")
	_ = cmd.MarkFlagRequired("xpub")
	return cmd
}

type allocateResult struct {
	Allocations []*models.Allocation `json:"allocations"`
	Watched     []string             `json:"watched"`
}

func releaseAddresses(watch storage.WatchStore, addrs []string) error {
	for _, addr := range addrs {
		ok, err := watch.Contains(addr)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("address %s is not watched", addr)
		}
		if err := watch.Remove(addr); err != nil {
			return err
		}
	}
	return nil
}

func newProtocolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "protocols",
		Short: "List supported protocols with curve and network",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, c, err := opts.load()
			if err != nil {
				return err
			}
			type entry struct {
				Protocol models.Protocol `json:"protocol"`
				Curve    models.Curve    `json:"curve"`
				Network  models.Network  `json:"network"`
				Path     string          `json:"path"`
			}
			var out []entry
			for _, p := range c.Registry().Protocols() {
				a, err := c.Registry().Resolve(p)
				if err != nil {
					return err
				}
				out = append(out, entry{
					Protocol: p,
					Curve:    a.Curve(),
					Network:  cfg.Network(p),
					Path:     a.DefaultPath(0).String(),
				})
			}
			return opts.print(out)
		},
	}
}

func addressIndex(i int64) (uint32, error) {
	if i < 0 || i >= 1<<31 {
		return 0, errors.Errorf("index %d out of range [0, 2^31)", i)
	}
	return uint32(i), nil
}
