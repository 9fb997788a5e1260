// Package seed turns BIP-39 mnemonics into HD seeds and generates new ones.
package seed

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"
)

// SeedSize is the length in bytes of a BIP-39 seed.
const SeedSize = 64

// DefaultStrength is the entropy size, in bits, of generated mnemonics (24 words).
const DefaultStrength = 256

var (
	// ErrInvalidMnemonic is returned when a phrase fails word-list or checksum validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidStrength is returned for entropy sizes BIP-39 does not define.
	ErrInvalidStrength = errors.New("mnemonic strength must be 128-256 bits in steps of 32")
)

// MnemonicService generates and validates mnemonic phrases.
type MnemonicService interface {
	// Generate returns a new mnemonic backed by fresh entropy
	Generate() (string, error)

	// Validate reports whether the phrase passes word-list and checksum checks
	Validate(mnemonic string) bool
}

type bip39Service struct {
	strength int
}

// NewMnemonicService returns a go-bip39 backed MnemonicService producing
// phrases with the given entropy size in bits.
func NewMnemonicService(strength int) (MnemonicService, error) {
	if strength < 128 || strength > 256 || strength%32 != 0 {
		return nil, errors.Wrapf(ErrInvalidStrength, "got %d", strength)
	}
	return &bip39Service{strength: strength}, nil
}

func (s *bip39Service) Generate() (string, error) {
	entropy, err := bip39.NewEntropy(s.strength)
	if err != nil {
		return "", errors.Wrap(err, "new entropy")
	}
	defer wipe(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "new mnemonic")
	}
	return mnemonic, nil
}

func (s *bip39Service) Validate(mnemonic string) bool {
	return bip39.IsMnemonicValid(Normalize(mnemonic))
}

// Normalize applies NFKD and collapses runs of whitespace to single spaces.
func Normalize(mnemonic string) string {
	return strings.Join(strings.Fields(norm.NFKD.String(mnemonic)), " ")
}

// FromMnemonic derives the 64-byte BIP-39 seed (PBKDF2-HMAC-SHA512, 2048
// rounds, salt "mnemonic"+passphrase). The caller owns the returned slice
// and should wipe it when done.
func FromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	phrase := Normalize(mnemonic)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}

	s, err := bip39.NewSeedWithErrorChecking(phrase, norm.NFKD.String(passphrase))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMnemonic, err.Error())
	}
	return s, nil
}

// Wipe zeroes a seed in place.
func Wipe(seed []byte) {
	wipe(seed)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
