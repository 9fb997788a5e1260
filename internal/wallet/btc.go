package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// BTCAdapter derives Bitcoin P2PKH (legacy 1... / m,n...) addresses.
// Derivation path: m/44'/0'/0'/0/{index}. Network selects version bytes only.
type BTCAdapter struct {
	bip44
	params *chaincfg.Params
}

// NewBTCAdapter returns a Bitcoin adapter for mainnet or testnet.
func NewBTCAdapter(network models.Network) *BTCAdapter {
	params := networkParams(network)
	return &BTCAdapter{
		bip44: bip44{
			protocol:     models.ProtocolBitcoin,
			coin:         0,
			xpubVersions: [][4]byte{params.HDPublicKeyID},
		},
		params: params,
	}
}

// KeypairFromPrivateKey accepts WIF (compressed or not) or 64 hex characters.
// A WIF for the other network is rejected.
func (a *BTCAdapter) KeypairFromPrivateKey(encoded string) (*models.Keypair, error) {
	if wif, err := btcutil.DecodeWIF(encoded); err == nil {
		if !wif.IsForNet(a.params) {
			return nil, invalidKey(a.protocol, "WIF is not for %s", a.params.Name)
		}
		return &models.Keypair{
			Protocol:   a.protocol,
			Curve:      models.CurveSecp256k1,
			PrivateKey: wif.PrivKey.Serialize(),
			PublicKey:  wif.SerializePubKey(),
		}, nil
	}
	return secp256k1FromHex(a.protocol, encoded)
}

// EncodePrivateKey renders WIF, compressed unless the keypair carries an uncompressed public key.
func (a *BTCAdapter) EncodePrivateKey(kp *models.Keypair) (string, error) {
	priv, _ := btcec.PrivKeyFromBytes(kp.PrivateKey)
	wif, err := btcutil.NewWIF(priv, a.params, len(kp.PublicKey) != uncompressedPubKeyLen)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

// AddressFromPublicKey returns Base58Check(version + Hash160(pubKey)).
func (a *BTCAdapter) AddressFromPublicKey(pub []byte) (string, error) {
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return "", err
	}
	addr, err := btcutil.NewAddressPubKeyHash(hash160(pub), a.params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

func (a *BTCAdapter) AddressFromExtendedPublicKey(xpub string, index uint32) (string, error) {
	pub, err := a.childPublicKey(xpub, index)
	if err != nil {
		return "", err
	}
	return a.AddressFromPublicKey(pub)
}

// --- helpers ---

func networkParams(network models.Network) *chaincfg.Params {
	if network == models.NetworkTestnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// secp256k1FromHex parses a raw 32-byte scalar given as hex, with or without 0x.
func secp256k1FromHex(p models.Protocol, encoded string) (*models.Keypair, error) {
	priv, err := decodeHex(encoded)
	if err != nil {
		return nil, invalidKey(p, "not hex")
	}
	pub, err := hd.PublicKeyFromPrivate(priv)
	if err != nil {
		return nil, invalidKey(p, "%v", err)
	}
	return &models.Keypair{
		Protocol:   p,
		Curve:      models.CurveSecp256k1,
		PrivateKey: priv,
		PublicKey:  pub,
	}, nil
}
