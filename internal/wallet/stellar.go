package wallet

import (
	"crypto/ed25519"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// XLMAdapter derives Stellar accounts (SEP-0005).
// Derivation path: m/44'/148'/{index}' (SLIP-0010 ed25519, hardened only)
type XLMAdapter struct {
	unsupported
}

// NewXLMAdapter returns a Stellar adapter.
func NewXLMAdapter() *XLMAdapter {
	return &XLMAdapter{}
}

func (a *XLMAdapter) Protocol() models.Protocol {
	return models.ProtocolStellar
}

func (a *XLMAdapter) Curve() models.Curve {
	return models.CurveEd25519
}

func (a *XLMAdapter) DefaultPath(index uint32) hd.DerivationPath {
	return hd.NewPath(
		hd.Segment{Index: hd.Purpose, Hardened: true},
		hd.Segment{Index: 148, Hardened: true},
		hd.Segment{Index: index, Hardened: true},
	)
}

func (a *XLMAdapter) KeypairFromSeed(seed []byte, path hd.DerivationPath) (*models.Keypair, error) {
	key, err := hd.Ed25519FromSeed(seed, path)
	if err != nil {
		return nil, errors.Wrapf(err, "%s derive %s", models.ProtocolStellar, path)
	}
	defer key.Wipe()

	pub, err := key.PublicKey()
	if err != nil {
		return nil, err
	}
	return &models.Keypair{
		Protocol:   models.ProtocolStellar,
		Curve:      models.CurveEd25519,
		PrivateKey: key.Seed(),
		PublicKey:  pub,
	}, nil
}

// KeypairFromPrivateKey accepts a secret seed strkey (S...).
func (a *XLMAdapter) KeypairFromPrivateKey(encoded string) (*models.Keypair, error) {
	raw, err := strkey.Decode(strkey.VersionByteSeed, strings.TrimSpace(encoded))
	if err != nil {
		return nil, invalidKey(models.ProtocolStellar, "%v", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, invalidKey(models.ProtocolStellar, "seed length %d", len(raw))
	}
	pub := ed25519.NewKeyFromSeed(raw).Public().(ed25519.PublicKey)
	return &models.Keypair{
		Protocol:   models.ProtocolStellar,
		Curve:      models.CurveEd25519,
		PrivateKey: raw,
		PublicKey:  pub,
	}, nil
}

func (a *XLMAdapter) EncodePrivateKey(kp *models.Keypair) (string, error) {
	if len(kp.PrivateKey) != ed25519.SeedSize {
		return "", errors.Errorf("ed25519 seed length %d", len(kp.PrivateKey))
	}
	return strkey.Encode(strkey.VersionByteSeed, kp.PrivateKey)
}

// AddressFromPublicKey returns the account id strkey (G...).
func (a *XLMAdapter) AddressFromPublicKey(pub []byte) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", errors.Errorf("ed25519 public key length %d", len(pub))
	}
	return strkey.Encode(strkey.VersionByteAccountID, pub)
}

func (a *XLMAdapter) accountIsPublicKey() {}
