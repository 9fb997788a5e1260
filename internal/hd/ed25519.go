package hd

import (
	"github.com/pkg/errors"
	"github.com/stellar/go/exp/crypto/derivation"
)

// Ed25519Key is a SLIP-0010 ed25519 node. ed25519 defines hardened
// derivation only, so there is no public counterpart.
type Ed25519Key struct {
	key   *derivation.Key
	depth uint8
	index uint32
}

// Ed25519FromSeed derives the node at path directly from the seed. Every
// segment must be hardened.
func Ed25519FromSeed(seed []byte, path DerivationPath) (*Ed25519Key, error) {
	k, err := derivation.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "ed25519 master key")
	}

	out := &Ed25519Key{key: k}
	for _, seg := range path.segments {
		if !seg.Hardened {
			out.Wipe()
			return nil, errors.Wrapf(ErrHardenedDerivationRequiresPrivateKey, "ed25519 segment %s", seg)
		}
		next, err := out.key.Derive(seg.ChildNumber())
		out.Wipe()
		if err != nil {
			return nil, errors.Wrapf(err, "ed25519 segment %s", seg)
		}
		out = &Ed25519Key{key: next, depth: out.depth + 1, index: seg.ChildNumber()}
	}
	return out, nil
}

// Seed returns a copy of the 32-byte ed25519 private seed.
func (k *Ed25519Key) Seed() []byte {
	return clone(k.key.Key)
}

// PublicKey returns the ed25519 public key.
func (k *Ed25519Key) PublicKey() ([]byte, error) {
	pub, err := k.key.PublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "ed25519 public key")
	}
	return pub, nil
}

// ChainCode returns a copy of the chain code.
func (k *Ed25519Key) ChainCode() []byte {
	return clone(k.key.ChainCode)
}

// Depth returns the number of derivation steps from the master node.
func (k *Ed25519Key) Depth() uint8 { return k.depth }

// ChildIndex returns the child number, hardened bit included.
func (k *Ed25519Key) ChildIndex() uint32 { return k.index }

// Wipe zeroes the private seed and chain code.
func (k *Ed25519Key) Wipe() {
	for i := range k.key.Key {
		k.key.Key[i] = 0
	}
	for i := range k.key.ChainCode {
		k.key.ChainCode[i] = 0
	}
}
