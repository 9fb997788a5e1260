package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// EVM coin types (SLIP-44). BSC shares Ethereum's.
const (
	coinTypeETH  = 60
	coinTypeCELO = 52752
)

// EVMAdapter derives addresses for Ethereum-family chains.
// Derivation path: m/44'/{coin}'/0'/0/{index}
// Address = last 20 bytes of Keccak256(uncompressed pubKey without 0x04),
// lowercase hex unless checksum casing (EIP-55) is enabled.
type EVMAdapter struct {
	bip44
	checksum bool
}

// NewETHAdapter returns an Ethereum adapter.
func NewETHAdapter(checksum bool) *EVMAdapter {
	return newEVMAdapter(models.ProtocolEthereum, coinTypeETH, checksum)
}

// NewBSCAdapter returns a BNB Smart Chain adapter.
func NewBSCAdapter(checksum bool) *EVMAdapter {
	return newEVMAdapter(models.ProtocolBSC, coinTypeETH, checksum)
}

// NewCeloAdapter returns a Celo adapter.
func NewCeloAdapter(checksum bool) *EVMAdapter {
	return newEVMAdapter(models.ProtocolCelo, coinTypeCELO, checksum)
}

func newEVMAdapter(p models.Protocol, coin uint32, checksum bool) *EVMAdapter {
	return &EVMAdapter{
		bip44: bip44{
			protocol: p,
			coin:     coin,
			// EVM tooling only ever emits mainnet xpubs
			xpubVersions: [][4]byte{chaincfg.MainNetParams.HDPublicKeyID},
		},
		checksum: checksum,
	}
}

// KeypairFromPrivateKey accepts 64 hex characters, with or without 0x.
func (a *EVMAdapter) KeypairFromPrivateKey(encoded string) (*models.Keypair, error) {
	s := strings.TrimSpace(encoded)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, invalidKey(a.protocol, "%v", err)
	}
	return &models.Keypair{
		Protocol:   a.protocol,
		Curve:      models.CurveSecp256k1,
		PrivateKey: crypto.FromECDSA(key),
		PublicKey:  crypto.CompressPubkey(&key.PublicKey),
	}, nil
}

// EncodePrivateKey renders 0x-prefixed hex.
func (a *EVMAdapter) EncodePrivateKey(kp *models.Keypair) (string, error) {
	return hexutil.Encode(kp.PrivateKey), nil
}

// AddressFromPublicKey accepts a compressed or uncompressed secp256k1 public key.
func (a *EVMAdapter) AddressFromPublicKey(pub []byte) (string, error) {
	var (
		key *ecdsa.PublicKey
		err error
	)
	switch len(pub) {
	case compressedPubKeyLen:
		key, err = crypto.DecompressPubkey(pub)
	case uncompressedPubKeyLen:
		key, err = crypto.UnmarshalPubkey(pub)
	default:
		err = errors.Errorf("public key length %d", len(pub))
	}
	if err != nil {
		return "", errors.Wrapf(err, "%s public key", a.protocol)
	}

	addr := crypto.PubkeyToAddress(*key).Hex()
	if !a.checksum {
		addr = strings.ToLower(addr)
	}
	return addr, nil
}

func (a *EVMAdapter) AddressFromExtendedPublicKey(xpub string, index uint32) (string, error) {
	pub, err := a.childPublicKey(xpub, index)
	if err != nil {
		return "", err
	}
	return a.AddressFromPublicKey(pub)
}
