// Package hd implements hierarchical deterministic key derivation: BIP-32 over
// secp256k1 and SLIP-0010 over ed25519.
//
// Extended private and public keys are distinct types. Only
// ExtendedPrivateKey can derive hardened children; ExtendedPublicKey never
// holds private material.
package hd

import (
	"encoding/binary"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// serializedKeyLen is version(4) depth(1) fingerprint(4) child(4) chaincode(32) key(33) checksum(4).
const serializedKeyLen = 82

var (
	// ErrInvalidExtendedKey is returned for malformed, mis-versioned or private serialized keys.
	ErrInvalidExtendedKey = errors.New("invalid extended key")

	// ErrHardenedDerivationRequiresPrivateKey is returned when a hardened child is requested from public material.
	ErrHardenedDerivationRequiresPrivateKey = errors.New("hardened derivation requires a private key")

	// ErrUnsupportedCurve is returned when a curve has no BIP-32 master key procedure.
	ErrUnsupportedCurve = errors.New("unsupported curve")

	// ErrInvalidPath is returned for unparsable paths or out of range indices.
	ErrInvalidPath = errors.New("invalid derivation path")
)

// ExtendedKey is the shape shared by private and public extended keys.
type ExtendedKey interface {
	ChainCode() []byte
	Depth() uint8
	ParentFingerprint() []byte
	ChildIndex() uint32
	PublicKeyBytes() []byte
}

type extendedKey struct {
	k *bip32.Key
}

func (e extendedKey) ChainCode() []byte         { return clone(e.k.ChainCode) }
func (e extendedKey) Depth() uint8              { return e.k.Depth }
func (e extendedKey) ParentFingerprint() []byte { return clone(e.k.FingerPrint) }

func (e extendedKey) ChildIndex() uint32 {
	if len(e.k.ChildNumber) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(e.k.ChildNumber)
}

// ExtendedPrivateKey is a secp256k1 BIP-32 private node.
type ExtendedPrivateKey struct {
	extendedKey
}

// ExtendedPublicKey is a secp256k1 BIP-32 public node.
type ExtendedPublicKey struct {
	extendedKey
}

var (
	_ ExtendedKey = (*ExtendedPrivateKey)(nil)
	_ ExtendedKey = (*ExtendedPublicKey)(nil)
)

// MasterKeyFromSeed computes the BIP-32 master node (HMAC-SHA512 keyed with
// "Bitcoin seed"). Only secp256k1 is supported here; ed25519 chains use
// Ed25519FromSeed.
func MasterKeyFromSeed(seed []byte, curve models.Curve) (*ExtendedPrivateKey, error) {
	if curve != models.CurveSecp256k1 {
		return nil, errors.Wrapf(ErrUnsupportedCurve, "%s master key", curve)
	}
	k, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "master key")
	}
	return &ExtendedPrivateKey{extendedKey{k}}, nil
}

// Child derives a single child. index must be below 2^31; hardened selects CKDpriv with the private key.
func (x *ExtendedPrivateKey) Child(index uint32, hardened bool) (*ExtendedPrivateKey, error) {
	if index >= HardenedOffset {
		return nil, errors.Wrapf(ErrInvalidPath, "index %d out of range", index)
	}
	seg := Segment{Index: index, Hardened: hardened}
	child, err := x.k.NewChildKey(seg.ChildNumber())
	if err != nil {
		return nil, errors.Wrapf(err, "derive %s", seg)
	}
	return &ExtendedPrivateKey{extendedKey{child}}, nil
}

// Derive applies each path segment in order. Intermediate private nodes are wiped.
func (x *ExtendedPrivateKey) Derive(path DerivationPath) (*ExtendedPrivateKey, error) {
	cur := x
	for _, seg := range path.segments {
		next, err := cur.Child(seg.Index, seg.Hardened)
		if cur != x {
			cur.Wipe()
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if cur == x {
		return &ExtendedPrivateKey{extendedKey{copyKey(x.k)}}, nil
	}
	return cur, nil
}

// Neuter returns the paired extended public key.
func (x *ExtendedPrivateKey) Neuter() *ExtendedPublicKey {
	return &ExtendedPublicKey{extendedKey{copyKey(x.k.PublicKey())}}
}

// PrivateKeyBytes returns a copy of the 32-byte scalar.
func (x *ExtendedPrivateKey) PrivateKeyBytes() []byte {
	return clone(x.k.Key)
}

// PublicKeyBytes returns the 33-byte compressed public key.
func (x *ExtendedPrivateKey) PublicKeyBytes() []byte {
	_, pub := btcec.PrivKeyFromBytes(x.k.Key)
	return pub.SerializeCompressed()
}

// Wipe zeroes the private scalar. The key is unusable afterwards.
func (x *ExtendedPrivateKey) Wipe() {
	for i := range x.k.Key {
		x.k.Key[i] = 0
	}
}

// Child derives a non-hardened child (CKDpub).
func (x *ExtendedPublicKey) Child(index uint32) (*ExtendedPublicKey, error) {
	if index >= HardenedOffset {
		return nil, errors.Wrapf(ErrHardenedDerivationRequiresPrivateKey, "index %d", index)
	}
	child, err := x.k.NewChildKey(index)
	if err != nil {
		return nil, errors.Wrapf(err, "derive %d", index)
	}
	return &ExtendedPublicKey{extendedKey{child}}, nil
}

// Derive applies each segment in order and fails on the first hardened one.
func (x *ExtendedPublicKey) Derive(path DerivationPath) (*ExtendedPublicKey, error) {
	cur := x
	for _, seg := range path.segments {
		if seg.Hardened {
			return nil, errors.Wrapf(ErrHardenedDerivationRequiresPrivateKey, "segment %s", seg)
		}
		next, err := cur.Child(seg.Index)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// PublicKeyBytes returns the 33-byte compressed public key.
func (x *ExtendedPublicKey) PublicKeyBytes() []byte {
	return clone(x.k.Key)
}

// Serialize encodes the key as base58 with the given 4-byte version (xpub, tpub, ...).
func (x *ExtendedPublicKey) Serialize(version [4]byte) (string, error) {
	k := copyKey(x.k)
	k.Version = version[:]
	raw, err := k.Serialize()
	if err != nil {
		return "", errors.Wrap(err, "serialize extended key")
	}
	if len(raw) != serializedKeyLen {
		return "", errors.Wrapf(ErrInvalidExtendedKey, "serialized length %d", len(raw))
	}
	return base58.Encode(raw), nil
}

// ParseExtendedPublicKey decodes a base58 extended public key. When versions
// is non-empty the key's version bytes must match one of them.
func ParseExtendedPublicKey(s string, versions ...[4]byte) (*ExtendedPublicKey, error) {
	raw := base58.Decode(strings.TrimSpace(s))
	if len(raw) != serializedKeyLen {
		return nil, errors.Wrapf(ErrInvalidExtendedKey, "decoded length %d", len(raw))
	}

	k, err := bip32.Deserialize(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExtendedKey, err.Error())
	}
	if len(versions) > 0 && !versionAllowed(k.Version, versions) {
		return nil, errors.Wrapf(ErrInvalidExtendedKey, "unexpected version %x", k.Version)
	}
	if k.IsPrivate {
		return nil, errors.Wrap(ErrInvalidExtendedKey, "private key material in public key slot")
	}
	if _, err := btcec.ParsePubKey(k.Key); err != nil {
		return nil, errors.Wrap(ErrInvalidExtendedKey, err.Error())
	}
	return &ExtendedPublicKey{extendedKey{copyKey(k)}}, nil
}

// PublicKeyFromPrivate validates a 32-byte secp256k1 scalar (0 < k < n) and
// returns its compressed public key.
func PublicKeyFromPrivate(priv []byte) ([]byte, error) {
	if len(priv) != 32 {
		return nil, errors.Errorf("private key must be 32 bytes, got %d", len(priv))
	}
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(priv); overflow || s.IsZero() {
		return nil, errors.New("private key out of curve range")
	}
	_, pub := btcec.PrivKeyFromBytes(priv)
	return pub.SerializeCompressed(), nil
}

func versionAllowed(v []byte, allowed [][4]byte) bool {
	for _, a := range allowed {
		if string(v) == string(a[:]) {
			return true
		}
	}
	return false
}

func copyKey(k *bip32.Key) *bip32.Key {
	return &bip32.Key{
		Key:         clone(k.Key),
		Version:     clone(k.Version),
		ChildNumber: clone(k.ChildNumber),
		FingerPrint: clone(k.FingerPrint),
		ChainCode:   clone(k.ChainCode),
		Depth:       k.Depth,
		IsPrivate:   k.IsPrivate,
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
