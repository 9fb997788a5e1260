package wallet

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// Hathor P2PKH version bytes.
const (
	hathorMainnetVersion byte = 0x28 // H...
	hathorTestnetVersion byte = 0x49 // W...
)

// HTRAdapter derives Hathor addresses. Hathor reuses the Bitcoin P2PKH
// structure with its own version bytes.
// Derivation path: m/44'/280'/0'/0/{index}
type HTRAdapter struct {
	bip44
	version byte
}

// NewHTRAdapter returns a Hathor adapter for mainnet or testnet.
func NewHTRAdapter(network models.Network) *HTRAdapter {
	version := hathorMainnetVersion
	if network == models.NetworkTestnet {
		version = hathorTestnetVersion
	}
	return &HTRAdapter{
		bip44: bip44{
			protocol:     models.ProtocolHathor,
			coin:         280,
			xpubVersions: [][4]byte{networkParams(network).HDPublicKeyID},
		},
		version: version,
	}
}

// KeypairFromPrivateKey accepts a 32-byte scalar as hex.
func (a *HTRAdapter) KeypairFromPrivateKey(encoded string) (*models.Keypair, error) {
	return secp256k1FromHex(a.protocol, encoded)
}

func (a *HTRAdapter) EncodePrivateKey(kp *models.Keypair) (string, error) {
	return hex.EncodeToString(kp.PrivateKey), nil
}

// AddressFromPublicKey returns Base58Check(version + Hash160(pubKey)).
func (a *HTRAdapter) AddressFromPublicKey(pub []byte) (string, error) {
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return "", err
	}
	return base58.CheckEncode(hash160(pub), a.version), nil
}

func (a *HTRAdapter) AddressFromExtendedPublicKey(xpub string, index uint32) (string, error) {
	pub, err := a.childPublicKey(xpub, index)
	if err != nil {
		return "", err
	}
	return a.AddressFromPublicKey(pub)
}
