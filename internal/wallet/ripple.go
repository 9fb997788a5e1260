package wallet

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

const (
	rippleAccountVersion byte = 0x00 // r...
	rippleSeedVersion    byte = 0x21 // s...
	rippleEntropyLen          = 16
)

// XRPAdapter derives Ripple accounts. Keys come from a 16-byte family seed
// expanded with the XRPL secp256k1 root/account scheme, so there is no
// BIP-32 public derivation.
// Family seed source: first 16 bytes of the key at m/44'/144'/0'/0/{index}
type XRPAdapter struct {
	bip44
}

// NewXRPAdapter returns a Ripple adapter.
func NewXRPAdapter() *XRPAdapter {
	return &XRPAdapter{bip44: bip44{protocol: models.ProtocolRipple, coin: 144}}
}

func (a *XRPAdapter) KeypairFromSeed(seed []byte, path hd.DerivationPath) (*models.Keypair, error) {
	key, err := a.derive(seed, path)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	priv := key.PrivateKeyBytes()
	entropy := make([]byte, rippleEntropyLen)
	copy(entropy, priv)
	wipe(priv)

	return a.keypairFromEntropy(entropy)
}

// KeypairFromPrivateKey accepts a family seed (s...) or a raw account key as
// 64 hex characters, optionally prefixed with 00.
func (a *XRPAdapter) KeypairFromPrivateKey(encoded string) (*models.Keypair, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "s") {
		raw, err := base58.DecodeAlphabet(s, rippleAlphabet)
		if err != nil {
			return nil, invalidKey(a.protocol, "family seed is not base58")
		}
		body, ok := splitChecksum(raw)
		if !ok {
			return nil, invalidKey(a.protocol, "family seed checksum mismatch")
		}
		if len(body) != 1+rippleEntropyLen || body[0] != rippleSeedVersion {
			return nil, invalidKey(a.protocol, "not a secp256k1 family seed")
		}
		entropy := make([]byte, rippleEntropyLen)
		copy(entropy, body[1:])
		return a.keypairFromEntropy(entropy)
	}

	if len(s) == 66 && strings.HasPrefix(s, "00") {
		s = s[2:]
	}
	return secp256k1FromHex(a.protocol, s)
}

// EncodePrivateKey renders the family seed when known, otherwise the raw
// account key as 00-prefixed uppercase hex.
func (a *XRPAdapter) EncodePrivateKey(kp *models.Keypair) (string, error) {
	if len(kp.Secret) == rippleEntropyLen {
		return base58.EncodeAlphabet(versionedChecksum(rippleSeedVersion, kp.Secret), rippleAlphabet), nil
	}
	return "00" + strings.ToUpper(hex.EncodeToString(kp.PrivateKey)), nil
}

// AddressFromPublicKey returns the classic address: Hash160(pubKey) with
// version 0x00 and a double SHA256 checksum, in the Ripple alphabet.
func (a *XRPAdapter) AddressFromPublicKey(pub []byte) (string, error) {
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return "", err
	}
	return base58.EncodeAlphabet(versionedChecksum(rippleAccountVersion, hash160(pub)), rippleAlphabet), nil
}

func (a *XRPAdapter) AddressFromExtendedPublicKey(string, uint32) (string, error) {
	return "", ErrUnsupportedOperationForProtocol
}

func (a *XRPAdapter) ExtendedPublicKey([]byte, hd.DerivationPath) (string, error) {
	return "", ErrUnsupportedOperationForProtocol
}

func (a *XRPAdapter) keypairFromEntropy(entropy []byte) (*models.Keypair, error) {
	priv, err := rippleAccountKey(entropy)
	if err != nil {
		return nil, err
	}
	pub, err := hd.PublicKeyFromPrivate(priv)
	if err != nil {
		return nil, err
	}
	return &models.Keypair{
		Protocol:   a.protocol,
		Curve:      models.CurveSecp256k1,
		PrivateKey: priv,
		PublicKey:  pub,
		Secret:     entropy,
	}, nil
}

// rippleAccountKey expands family seed entropy into the account 0 private key:
// root = SHA512Half(entropy || seq), account = root + SHA512Half(rootPub || 0 || subseq) mod n.
func rippleAccountKey(entropy []byte) ([]byte, error) {
	root := sha512HalfScalar(entropy)
	defer root.Zero()

	rootPub := btcec.PrivKeyFromScalar(&root).PubKey().SerializeCompressed()
	tweak := sha512HalfScalar(rootPub, []byte{0, 0, 0, 0})
	defer tweak.Zero()

	var account btcec.ModNScalar
	account.Set(&root).Add(&tweak)
	if account.IsZero() {
		return nil, errors.New("ripple account key is zero")
	}
	b := account.Bytes()
	account.Zero()
	return b[:], nil
}

// sha512HalfScalar returns the first SHA512Half(parts || seq), seq = 0, 1, ...
// that is a valid non-zero scalar.
func sha512HalfScalar(parts ...[]byte) btcec.ModNScalar {
	var (
		k   btcec.ModNScalar
		seq [4]byte
	)
	for i := uint32(0); ; i++ {
		binary.BigEndian.PutUint32(seq[:], i)
		h := sha512.New()
		for _, p := range parts {
			h.Write(p)
		}
		h.Write(seq[:])
		sum := h.Sum(nil)

		overflow := k.SetByteSlice(sum[:32])
		wipe(sum)
		if !overflow && !k.IsZero() {
			return k
		}
	}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
