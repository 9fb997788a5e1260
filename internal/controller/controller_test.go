package controller

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/hdwallet/internal/config"
	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/internal/seed"
	"github.com/olehkaliuzhnyi/hdwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

const abandon = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type countingMnemonics struct {
	seed.MnemonicService
	calls atomic.Int32
}

func (m *countingMnemonics) Generate() (string, error) {
	m.calls.Add(1)
	return m.MnemonicService.Generate()
}

func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c, err := NewFromConfig(config.Default(), append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestGenerateWallet_Vectors(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	tests := []struct {
		protocol models.Protocol
		index    uint32
		address  string
		public   string
		xpub     string
	}{
		{models.ProtocolBitcoin, 0, "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA", "", "xpub6ELHKXNimKbxMCytPh7EdC2QXx46T9qLDJWGnTraz1H9kMMFdcduoU69wh9cxP12wDxqAAfbaESWGYt5rREsX1J8iR2TEunvzvddduAPYcY"},
		{models.ProtocolEthereum, 0, "0x9858effd232b4033e47d90003d41ec34ecaeda94", "", "xpub6EF8jXqFeFEW5bwMU7RpQtHkzE4KJxcqJtvkCjJumzW8CPpacXkb92ek4WzLQXjL93HycJwTPUAcuNxCqFPKKU5m5Z2Vq4nCyh5CyPeBFFr"},
		{models.ProtocolBSC, 0, "0x9858effd232b4033e47d90003d41ec34ecaeda94", "", ""},
		{models.ProtocolCelo, 0, "0xe70e8afef87cc8f0d7a61f58535f6ec99cd860ca", "", "xpub6Eg2SEFtReDrVUiXFRdWg7fLMMVS5yFKuk94SGrZkg7KjGUqvB9HdeeewNpyb7j23tgR5w7SNwnRkYaXDUGS78QwEQz6ujQfpxoDMe9U8EU"},
		{models.ProtocolHathor, 0, "HGGnv65WYrEfeW6WrLvbdMCcwH2TCubE3m", "", "xpub6EEJWhwgE3f6a6TiEtHYVra4277MWRWWzSi4c4L6y7pQvp5egUQgiUxLuUv7E16Yxgr55fKGD5wViLpPdTKqw1jf1Re9fUpvoN6z1vj7mVY"},
		{models.ProtocolRipple, 1, "rpGGggsSqsNTVdujPw7nWze7KC8zRcKUKT", "", ""},
		{models.ProtocolStellar, 0, "", "GB3JDWCQJCWMJ3IILWIGDTQJJC5567PGVEVXSCVPEQOTDN64VJBDQBYX", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.protocol), func(t *testing.T) {
			w, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
				Protocol:   tt.protocol,
				Mnemonic:   abandon,
				Derivation: &models.Derivation{Address: tt.index},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.protocol, w.Protocol)
			assert.Equal(t, tt.address, w.Address)
			if tt.public != "" {
				assert.Equal(t, tt.public, w.PublicKey)
			}
			if tt.xpub != "" {
				assert.Equal(t, tt.xpub, w.Xpub)
			}
			assert.NotEmpty(t, w.PrivateKey)
			assert.Empty(t, w.Mnemonic, "caller-supplied mnemonic must not be echoed")
		})
	}
}

func TestGenerateWallet_DerivationPath(t *testing.T) {
	c := newTestController(t)

	w, err := c.GenerateWallet(context.Background(), models.GenerateWalletRequest{
		Protocol:   models.ProtocolCelo,
		Mnemonic:   abandon,
		Derivation: &models.Derivation{Address: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, "m/44'/52752'/0'/0/7", w.DerivationPath)

	w, err = c.GenerateWallet(context.Background(), models.GenerateWalletRequest{
		Protocol: models.ProtocolStellar,
		Mnemonic: abandon,
	})
	require.NoError(t, err)
	assert.Equal(t, "m/44'/148'/0'", w.DerivationPath)
	assert.Empty(t, w.Xpub)
}

func TestGenerateWallet_PathOverride(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	w, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
		Protocol:   models.ProtocolEthereum,
		Mnemonic:   abandon,
		Derivation: &models.Derivation{Path: "m/44h/60h/0h/0/1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "0x6fac4d18c912343bf86fa7049364dd4e424ab9c0", w.Address)
	assert.Equal(t, "m/44'/60'/0'/0/1", w.DerivationPath)

	w, err = c.GenerateWallet(ctx, models.GenerateWalletRequest{
		Protocol:   models.ProtocolStellar,
		Mnemonic:   abandon,
		Derivation: &models.Derivation{Path: "m/44'/148'/1'"},
	})
	require.NoError(t, err)
	assert.Equal(t, "GDVSYYTUAJ3ACHTPQNSTQBDQ4LDHQCMNY4FCEQH5TJUMSSLWQSTG42MV", w.PublicKey)

	t.Run("path wins over index", func(t *testing.T) {
		w, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
			Protocol:   models.ProtocolEthereum,
			Mnemonic:   abandon,
			Derivation: &models.Derivation{Address: 5, Path: "m/44'/60'/0'/0/1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "0x6fac4d18c912343bf86fa7049364dd4e424ab9c0", w.Address)
	})

	mnemonics, err := seed.NewMnemonicService(seed.DefaultStrength)
	require.NoError(t, err)
	for _, bad := range []string{"m/x", "m", "44'/60'", "m/2147483648"} {
		t.Run(bad, func(t *testing.T) {
			counting := &countingMnemonics{MnemonicService: mnemonics}
			c := New(c.Registry(), counting, WithLogger(zerolog.Nop()))
			_, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
				Protocol:   models.ProtocolBitcoin,
				Derivation: &models.Derivation{Path: bad},
			})
			assert.True(t, errors.Is(err, hd.ErrInvalidPath), "got %v", err)
			assert.Zero(t, counting.calls.Load())
		})
	}

	t.Run("stellar needs hardened segments", func(t *testing.T) {
		_, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
			Protocol:   models.ProtocolStellar,
			Mnemonic:   abandon,
			Derivation: &models.Derivation{Path: "m/44'/148'/0"},
		})
		assert.True(t, errors.Is(err, hd.ErrHardenedDerivationRequiresPrivateKey), "got %v", err)
	})
}

func TestGenerateWallet_DefaultIndexFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultAddressIndex = 1
	c, err := NewFromConfig(cfg, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	w, err := c.GenerateWallet(context.Background(), models.GenerateWalletRequest{
		Protocol: models.ProtocolEthereum,
		Mnemonic: abandon,
	})
	require.NoError(t, err)
	assert.Equal(t, "0x6fac4d18c912343bf86fa7049364dd4e424ab9c0", w.Address)
}

func TestGenerateWallet_GeneratesMnemonic(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	w1, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: models.ProtocolEthereum})
	require.NoError(t, err)
	w2, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: models.ProtocolEthereum})
	require.NoError(t, err)

	require.NotEmpty(t, w1.Mnemonic)
	assert.Len(t, strings.Fields(w1.Mnemonic), 24)
	assert.NotEqual(t, w1.Mnemonic, w2.Mnemonic)
	assert.NotEqual(t, w1.Address, w2.Address)

	// the returned mnemonic reproduces the wallet
	again, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
		Protocol: models.ProtocolEthereum,
		Mnemonic: w1.Mnemonic,
	})
	require.NoError(t, err)
	assert.Equal(t, w1.Address, again.Address)
	assert.Equal(t, w1.PrivateKey, again.PrivateKey)
}

func TestGenerateWallet_Deterministic(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	for _, p := range models.Protocols {
		t.Run(string(p), func(t *testing.T) {
			req := models.GenerateWalletRequest{Protocol: p, Mnemonic: abandon, Passphrase: "TREZOR"}
			w1, err := c.GenerateWallet(ctx, req)
			require.NoError(t, err)
			w2, err := c.GenerateWallet(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, w1, w2)

			plain, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: p, Mnemonic: abandon})
			require.NoError(t, err)
			assert.NotEqual(t, w1.PrivateKey, plain.PrivateKey, "passphrase must change the seed")
		})
	}
}

func TestGenerateWallet_UnsupportedProtocolFirst(t *testing.T) {
	var seedCalls atomic.Int32
	mnemonics, err := seed.NewMnemonicService(seed.DefaultStrength)
	require.NoError(t, err)
	counting := &countingMnemonics{MnemonicService: mnemonics}

	c := New(wallet.DefaultRegistry(wallet.Options{}), counting,
		WithLogger(zerolog.Nop()),
		WithSeedProvider(func(m, p string) ([]byte, error) {
			seedCalls.Add(1)
			return seed.FromMnemonic(m, p)
		}),
	)

	for _, p := range []models.Protocol{"TEST", "", "bitcoin", "TRON"} {
		_, err := c.GenerateWallet(context.Background(), models.GenerateWalletRequest{Protocol: p})
		require.Error(t, err)
		assert.EqualError(t, err, "Unsupported blockchain protocol")

		_, err = c.GenerateWallet(context.Background(), models.GenerateWalletRequest{Protocol: p, Mnemonic: "not a mnemonic"})
		assert.True(t, errors.Is(err, wallet.ErrUnsupportedProtocol), "got %v", err)
	}
	assert.Zero(t, seedCalls.Load())
	assert.Zero(t, counting.calls.Load())
}

func TestGenerateWallet_InvalidInput(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	_, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
		Protocol: models.ProtocolBitcoin,
		Mnemonic: "abandon abandon abandon",
	})
	assert.True(t, errors.Is(err, seed.ErrInvalidMnemonic), "got %v", err)

	_, err = c.GenerateWallet(ctx, models.GenerateWalletRequest{
		Protocol:   models.ProtocolBitcoin,
		Mnemonic:   abandon,
		Derivation: &models.Derivation{Address: hd.HardenedOffset},
	})
	assert.True(t, errors.Is(err, hd.ErrInvalidPath), "got %v", err)
}

func TestGenerateWallet_Canceled(t *testing.T) {
	c := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: models.ProtocolBitcoin, Mnemonic: abandon})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{Protocol: models.ProtocolBitcoin})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.GenerateMnemonic(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateWalletFromPrivateKey_RoundTrip(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	for _, p := range models.Protocols {
		t.Run(string(p), func(t *testing.T) {
			generated, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
				Protocol:   p,
				Mnemonic:   abandon,
				Derivation: &models.Derivation{Address: 2},
			})
			require.NoError(t, err)

			restored, err := c.GenerateWalletFromPrivateKey(ctx, models.PrivateKeyRequest{
				Protocol:   p,
				PrivateKey: generated.PrivateKey,
			})
			require.NoError(t, err)

			assert.Equal(t, generated.Address, restored.Address)
			assert.Equal(t, generated.PublicKey, restored.PublicKey)
			assert.Empty(t, restored.PrivateKey)
			assert.Empty(t, restored.Mnemonic)
		})
	}
}

func TestGenerateWalletFromPrivateKey_Vectors(t *testing.T) {
	c := newTestController(t)

	w, err := c.GenerateWalletFromPrivateKey(context.Background(), models.PrivateKeyRequest{
		Protocol:   models.ProtocolRipple,
		PrivateKey: "spjjDoTPjCrdRvVBrTcVGo4ouYG9X",
	})
	require.NoError(t, err)
	assert.Equal(t, "rGcqB7ciEfDQpz9znXZSYXgEozqB5Xxhm", w.Address)

	w, err = c.GenerateWalletFromPrivateKey(context.Background(), models.PrivateKeyRequest{
		Protocol:   models.ProtocolStellar,
		PrivateKey: "SA6EEJRPDG2KNYMYCUJEWPUVDA3PGPUNX6JKNN2CX2K5LH34BWPKODYM",
	})
	require.NoError(t, err)
	assert.Equal(t, "GAC2V7MGMTG57FZKJSXRSZ4EIDL2RBFIYVXZJMTJZ232XPZQUCTYUCWL", w.PublicKey)
	assert.Empty(t, w.Address)
}

func TestGenerateWalletFromPrivateKey_Errors(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	_, err := c.GenerateWalletFromPrivateKey(ctx, models.PrivateKeyRequest{Protocol: "DOGE", PrivateKey: "00"})
	assert.EqualError(t, err, "Unsupported blockchain protocol")

	_, err = c.GenerateWalletFromPrivateKey(ctx, models.PrivateKeyRequest{Protocol: models.ProtocolEthereum, PrivateKey: "xyz"})
	assert.True(t, errors.Is(err, wallet.ErrInvalidPrivateKeyFormat), "got %v", err)
}

func TestGenerateWalletAddressFromXpub(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	for _, p := range []models.Protocol{
		models.ProtocolBitcoin,
		models.ProtocolEthereum,
		models.ProtocolBSC,
		models.ProtocolCelo,
		models.ProtocolHathor,
	} {
		t.Run(string(p), func(t *testing.T) {
			base, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: p, Mnemonic: abandon})
			require.NoError(t, err)
			require.NotEmpty(t, base.Xpub)

			for _, index := range []uint32{0, 1, 5} {
				w, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{
					Protocol:   p,
					Mnemonic:   abandon,
					Derivation: &models.Derivation{Address: index},
				})
				require.NoError(t, err)
				assert.Equal(t, base.Xpub, w.Xpub)

				addr, err := c.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{
					Protocol: p,
					Xpub:     base.Xpub,
					Address:  index,
				})
				require.NoError(t, err)
				assert.Equal(t, w.Address, addr)
			}
		})
	}
}

func TestGenerateWalletAddressFromXpub_Errors(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	_, err := c.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{Protocol: "TEST", Xpub: "xpub"})
	assert.EqualError(t, err, "Unsupported blockchain protocol")

	_, err = c.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{Protocol: models.ProtocolEthereum, Xpub: "garbage"})
	assert.True(t, errors.Is(err, hd.ErrInvalidExtendedKey), "got %v", err)

	for _, p := range []models.Protocol{models.ProtocolRipple, models.ProtocolStellar} {
		_, err = c.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{Protocol: p, Xpub: "xpub"})
		assert.True(t, errors.Is(err, wallet.ErrUnsupportedOperationForProtocol), "%s: got %v", p, err)
	}
}

func TestGenerateMnemonic(t *testing.T) {
	c := newTestController(t)

	m, err := c.GenerateMnemonic(context.Background())
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 24)
	_, err = seed.FromMnemonic(m, "")
	assert.NoError(t, err)
}

func TestController_Concurrent(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	want, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: models.ProtocolBitcoin, Mnemonic: abandon})
	require.NoError(t, err)

	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			w, err := c.GenerateWallet(ctx, models.GenerateWalletRequest{Protocol: models.ProtocolBitcoin, Mnemonic: abandon})
			if err == nil && w.Address != want.Address {
				err = errors.Errorf("address mismatch: %s", w.Address)
			}
			errs <- err
		}()
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-errs)
	}
}
