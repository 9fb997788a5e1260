// Package controller implements the public wallet operations on top of the
// adapter registry and the seed provider.
package controller

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/olehkaliuzhnyi/hdwallet/internal/config"
	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/internal/seed"
	"github.com/olehkaliuzhnyi/hdwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// SeedProvider turns a mnemonic and passphrase into seed bytes.
type SeedProvider func(mnemonic, passphrase string) ([]byte, error)

// Controller orchestrates registry, seed provider and adapters. It keeps no
// per-call state and is safe for concurrent use.
type Controller struct {
	registry     *wallet.Registry
	mnemonics    seed.MnemonicService
	seeds        SeedProvider
	defaultIndex uint32
	logger       zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSeedProvider replaces seed.FromMnemonic.
func WithSeedProvider(p SeedProvider) Option {
	return func(c *Controller) { c.seeds = p }
}

// WithDefaultAddressIndex sets the index used when a request has no derivation.
func WithDefaultAddressIndex(i uint32) Option {
	return func(c *Controller) { c.defaultIndex = i }
}

// New creates a controller over the given registry and mnemonic service.
func New(registry *wallet.Registry, mnemonics seed.MnemonicService, opts ...Option) *Controller {
	c := &Controller{
		registry:  registry,
		mnemonics: mnemonics,
		seeds:     seed.FromMnemonic,
		logger:    log.With().Str("component", "wallet_controller").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires the default registry and a go-bip39 mnemonic service.
func NewFromConfig(cfg config.Config, opts ...Option) (*Controller, error) {
	mnemonics, err := seed.NewMnemonicService(cfg.MnemonicStrength)
	if err != nil {
		return nil, err
	}
	registry := wallet.DefaultRegistry(wallet.Options{
		Networks:    cfg.Networks,
		EVMChecksum: cfg.EVMChecksumAddress,
	})
	opts = append([]Option{WithDefaultAddressIndex(cfg.DefaultAddressIndex)}, opts...)
	return New(registry, mnemonics, opts...), nil
}

// Registry exposes the adapter registry.
func (c *Controller) Registry() *wallet.Registry {
	return c.registry
}

// GenerateMnemonic returns a fresh mnemonic from the mnemonic service.
func (c *Controller) GenerateMnemonic(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.mnemonics.Generate()
}

// GenerateWallet derives a wallet from a mnemonic, generating one when the
// request has none. The protocol is validated before any seed work.
func (c *Controller) GenerateWallet(ctx context.Context, req models.GenerateWalletRequest) (*models.Wallet, error) {
	adapter, err := c.registry.Resolve(req.Protocol)
	if err != nil {
		c.logger.Warn().Str("protocol", string(req.Protocol)).Err(err).Msg("generate wallet rejected")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := c.requestLogger(req.Protocol)

	path, err := c.derivationPath(adapter, req.Derivation)
	if err != nil {
		return nil, err
	}

	mnemonic, generated := req.Mnemonic, false
	if mnemonic == "" {
		if mnemonic, err = c.mnemonics.Generate(); err != nil {
			return nil, errors.Wrap(err, "generate mnemonic")
		}
		generated = true
	}

	s, err := c.seeds(mnemonic, req.Passphrase)
	if err != nil {
		logger.Warn().Err(err).Msg("seed derivation failed")
		return nil, err
	}
	defer seed.Wipe(s)

	kp, err := adapter.KeypairFromSeed(s, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path.String()).Msg("key derivation failed")
		return nil, err
	}
	defer kp.Wipe()

	w, err := wallet.NewWallet(adapter, kp)
	if err != nil {
		return nil, err
	}
	if w.PrivateKey, err = adapter.EncodePrivateKey(kp); err != nil {
		return nil, err
	}
	w.DerivationPath = path.String()

	switch xpub, err := adapter.ExtendedPublicKey(s, path); {
	case err == nil:
		w.Xpub = xpub
	case !errors.Is(err, wallet.ErrUnsupportedOperationForProtocol):
		return nil, err
	}
	if generated {
		w.Mnemonic = mnemonic
	}

	logger.Debug().
		Str("path", w.DerivationPath).
		Bool("generated_mnemonic", generated).
		Msg("wallet generated")
	return w, nil
}

// GenerateWalletFromPrivateKey rebuilds the public side of a wallet from a
// protocol-encoded private key. The private key is not echoed back.
func (c *Controller) GenerateWalletFromPrivateKey(ctx context.Context, req models.PrivateKeyRequest) (*models.Wallet, error) {
	adapter, err := c.registry.Resolve(req.Protocol)
	if err != nil {
		c.logger.Warn().Str("protocol", string(req.Protocol)).Err(err).Msg("wallet from private key rejected")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := c.requestLogger(req.Protocol)

	kp, err := adapter.KeypairFromPrivateKey(req.PrivateKey)
	if err != nil {
		logger.Warn().Err(err).Msg("private key rejected")
		return nil, err
	}
	defer kp.Wipe()

	w, err := wallet.NewWallet(adapter, kp)
	if err != nil {
		return nil, err
	}
	logger.Debug().Msg("wallet restored from private key")
	return w, nil
}

// GenerateWalletAddressFromXpub returns the address at req.Address below an
// extended public key. No private material is involved.
func (c *Controller) GenerateWalletAddressFromXpub(ctx context.Context, req models.XpubRequest) (string, error) {
	adapter, err := c.registry.Resolve(req.Protocol)
	if err != nil {
		c.logger.Warn().Str("protocol", string(req.Protocol)).Err(err).Msg("address from xpub rejected")
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	logger := c.requestLogger(req.Protocol)

	addr, err := adapter.AddressFromExtendedPublicKey(req.Xpub, req.Address)
	if err != nil {
		logger.Warn().Err(err).Uint32("index", req.Address).Msg("address from xpub failed")
		return "", err
	}
	logger.Debug().Uint32("index", req.Address).Msg("address derived from xpub")
	return addr, nil
}

// derivationPath resolves an explicit path override or the adapter's default
// path at the requested (or configured) address index.
func (c *Controller) derivationPath(a wallet.Adapter, d *models.Derivation) (hd.DerivationPath, error) {
	if d != nil && d.Path != "" {
		path, err := hd.ParsePath(d.Path)
		if err != nil {
			return hd.DerivationPath{}, err
		}
		if path.Len() == 0 {
			return hd.DerivationPath{}, errors.Wrap(hd.ErrInvalidPath, "path must name a child of the master key")
		}
		return path, nil
	}

	index := c.defaultIndex
	if d != nil {
		index = d.Address
	}
	if index >= hd.HardenedOffset {
		return hd.DerivationPath{}, errors.Wrapf(hd.ErrInvalidPath, "address index %d", index)
	}
	return a.DefaultPath(index), nil
}

func (c *Controller) requestLogger(p models.Protocol) zerolog.Logger {
	return c.logger.With().
		Str("request_id", uuid.NewString()).
		Str("protocol", string(p)).
		Logger()
}
