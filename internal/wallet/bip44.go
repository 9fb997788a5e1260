package wallet

import (
	"github.com/pkg/errors"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// bip44 is the secp256k1 derivation shared by the BIP-44 adapters.
// Path: m/44'/{coin}'/0'/0/{index}
type bip44 struct {
	protocol models.Protocol
	coin     uint32
	// xpubVersions are accepted when parsing; the first is used when serializing.
	xpubVersions [][4]byte
}

func (b bip44) Protocol() models.Protocol {
	return b.protocol
}

func (b bip44) Curve() models.Curve {
	return models.CurveSecp256k1
}

func (b bip44) DefaultPath(index uint32) hd.DerivationPath {
	return hd.BIP44(b.coin, 0, 0, index)
}

func (b bip44) derive(seed []byte, path hd.DerivationPath) (*hd.ExtendedPrivateKey, error) {
	master, err := hd.MasterKeyFromSeed(seed, models.CurveSecp256k1)
	if err != nil {
		return nil, err
	}
	defer master.Wipe()

	key, err := master.Derive(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%s derive %s", b.protocol, path)
	}
	return key, nil
}

func (b bip44) KeypairFromSeed(seed []byte, path hd.DerivationPath) (*models.Keypair, error) {
	key, err := b.derive(seed, path)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	return &models.Keypair{
		Protocol:   b.protocol,
		Curve:      models.CurveSecp256k1,
		PrivateKey: key.PrivateKeyBytes(),
		PublicKey:  key.PublicKeyBytes(),
	}, nil
}

// ExtendedPublicKey serializes the public node one level above path, which
// for a default path is the change level m/44'/{coin}'/0'/0.
func (b bip44) ExtendedPublicKey(seed []byte, path hd.DerivationPath) (string, error) {
	parent, err := b.derive(seed, path.Parent())
	if err != nil {
		return "", err
	}
	defer parent.Wipe()

	xpub, err := parent.Neuter().Serialize(b.xpubVersions[0])
	if err != nil {
		return "", errors.Wrapf(err, "%s xpub", b.protocol)
	}
	return xpub, nil
}

// childPublicKey parses xpub and walks the non-hardened remainder of the
// default path below the key's depth.
func (b bip44) childPublicKey(xpub string, index uint32) ([]byte, error) {
	key, err := hd.ParseExtendedPublicKey(xpub, b.xpubVersions...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s xpub", b.protocol)
	}

	child, err := key.Derive(addressSuffix(b.DefaultPath(index), key.Depth()))
	if err != nil {
		return nil, errors.Wrapf(err, "%s xpub", b.protocol)
	}
	return child.PublicKeyBytes(), nil
}

// addressSuffix returns the segments of path below depth. Keys at or below
// the change level only need the address index.
func addressSuffix(path hd.DerivationPath, depth uint8) hd.DerivationPath {
	if int(depth) >= path.Len() {
		last, _ := path.Last()
		return hd.NewPath(last)
	}
	return hd.NewPath(path.Segments()[depth:]...)
}
