// Package wallet holds the per-protocol adapters and the registry that
// dispatches to them.
package wallet

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

var (
	// ErrUnsupportedProtocol is returned for any protocol outside the registry.
	// The message is user-facing and matched verbatim by callers.
	ErrUnsupportedProtocol = errors.New("Unsupported blockchain protocol")

	// ErrInvalidPrivateKeyFormat is returned when a private key fails parsing, length or checksum checks.
	ErrInvalidPrivateKeyFormat = errors.New("invalid private key format")

	// ErrUnsupportedOperationForProtocol is returned when a protocol's key scheme cannot serve the call.
	ErrUnsupportedOperationForProtocol = errors.New("operation not supported for protocol")
)

// Adapter encapsulates one protocol's curve, path, key and address rules.
type Adapter interface {
	// Protocol returns which blockchain protocol this adapter serves
	Protocol() models.Protocol

	// Curve returns the curve family keys are generated on
	Curve() models.Curve

	// DefaultPath returns the derivation path for the given address index
	DefaultPath(index uint32) hd.DerivationPath

	// KeypairFromSeed derives the keypair at path from BIP-39 seed bytes
	KeypairFromSeed(seed []byte, path hd.DerivationPath) (*models.Keypair, error)

	// KeypairFromPrivateKey parses a protocol-encoded private key
	KeypairFromPrivateKey(encoded string) (*models.Keypair, error)

	// EncodePrivateKey renders the keypair's private material in the protocol's text format
	EncodePrivateKey(kp *models.Keypair) (string, error)

	// AddressFromPublicKey encodes a public key as a protocol address
	AddressFromPublicKey(pub []byte) (string, error)

	// AddressFromExtendedPublicKey derives the address at index below an extended public key
	AddressFromExtendedPublicKey(xpub string, index uint32) (string, error)

	// ExtendedPublicKey returns the serialized extended public key of path's parent node
	ExtendedPublicKey(seed []byte, path hd.DerivationPath) (string, error)
}

// publicKeyAccount is implemented by adapters whose account identifier is
// presented as a public key rather than an address.
type publicKeyAccount interface {
	accountIsPublicKey()
}

// NewWallet renders a keypair into the caller-facing record. Private key and
// xpub fields are left to the caller.
func NewWallet(a Adapter, kp *models.Keypair) (*models.Wallet, error) {
	account, err := a.AddressFromPublicKey(kp.PublicKey)
	if err != nil {
		return nil, err
	}

	w := &models.Wallet{Protocol: a.Protocol()}
	if _, ok := a.(publicKeyAccount); ok {
		w.PublicKey = account
	} else {
		w.Address = account
		w.PublicKey = hex.EncodeToString(kp.PublicKey)
	}
	return w, nil
}

// unsupported is embedded by adapters without BIP-32 public derivation.
type unsupported struct{}

func (unsupported) AddressFromExtendedPublicKey(string, uint32) (string, error) {
	return "", ErrUnsupportedOperationForProtocol
}

func (unsupported) ExtendedPublicKey([]byte, hd.DerivationPath) (string, error) {
	return "", ErrUnsupportedOperationForProtocol
}

func invalidKey(p models.Protocol, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidPrivateKeyFormat, string(p)+": "+format, args...)
}
