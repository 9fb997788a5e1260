package models

import "strings"

// Protocol identifies a supported blockchain protocol
type Protocol string

// Supported blockchain protocols.
const (
	ProtocolBitcoin  Protocol = "BITCOIN"
	ProtocolEthereum Protocol = "ETHEREUM"
	ProtocolBSC      Protocol = "BSC"
	ProtocolCelo     Protocol = "CELO"
	ProtocolRipple   Protocol = "RIPPLE"
	ProtocolStellar  Protocol = "STELLAR"
	ProtocolHathor   Protocol = "HATHOR"
)

// Protocols lists every supported protocol in a stable order.
var Protocols = []Protocol{
	ProtocolBitcoin,
	ProtocolEthereum,
	ProtocolBSC,
	ProtocolCelo,
	ProtocolRipple,
	ProtocolStellar,
	ProtocolHathor,
}

// NormalizeProtocol upper-cases and trims user input. The result is not
// guaranteed to be a supported protocol.
func NormalizeProtocol(s string) Protocol {
	return Protocol(strings.ToUpper(strings.TrimSpace(s)))
}

// Network selects main or test network parameters (version bytes only).
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// Curve is the elliptic curve family a protocol signs with.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
)

// Wallet is the record returned to callers. Which of Address and PublicKey
// carries the account identifier depends on the protocol: Stellar exposes
// its G... account id as PublicKey and leaves Address empty.
type Wallet struct {
	Protocol       Protocol `json:"protocol"`
	Address        string   `json:"address,omitempty"`
	PublicKey      string   `json:"public_key,omitempty"`
	PrivateKey     string   `json:"private_key,omitempty"`
	Xpub           string   `json:"xpub,omitempty"`
	Mnemonic       string   `json:"mnemonic,omitempty"`
	DerivationPath string   `json:"derivation_path,omitempty"`
}

// Keypair holds raw key material for a single call.
// PrivateKey is nil when the pair was derived from an extended public key.
// Secret is the protocol-level secret PrivateKey was expanded from, when the
// protocol has one (Ripple family seed entropy).
type Keypair struct {
	Protocol   Protocol
	Curve      Curve
	PrivateKey []byte
	PublicKey  []byte
	Secret     []byte
}

// Wipe zeroes private material in place.
func (k *Keypair) Wipe() {
	if k == nil {
		return
	}
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
	for i := range k.Secret {
		k.Secret[i] = 0
	}
	k.PrivateKey = nil
	k.Secret = nil
}

// Derivation overrides the terminal address index of the default path.
// A non-empty Path replaces the default path entirely.
type Derivation struct {
	Address uint32 `json:"address"`
	Path    string `json:"path,omitempty"`
}

// GenerateWalletRequest asks for a wallet derived from a mnemonic.
// When Mnemonic is empty a fresh one is generated.
type GenerateWalletRequest struct {
	Protocol   Protocol    `json:"protocol"`
	Mnemonic   string      `json:"mnemonic,omitempty"`
	Passphrase string      `json:"passphrase,omitempty"`
	Derivation *Derivation `json:"derivation,omitempty"`
}

// PrivateKeyRequest asks for a wallet rebuilt from a protocol-encoded private key.
type PrivateKeyRequest struct {
	Protocol   Protocol `json:"protocol"`
	PrivateKey string   `json:"private_key"`
}

// XpubRequest asks for the address at a given index below an extended public key.
type XpubRequest struct {
	Protocol Protocol `json:"protocol"`
	Xpub     string   `json:"xpub"`
	Address  uint32   `json:"address"`
}

// Allocation is a deposit address handed out from a watch-only xpub.
type Allocation struct {
	ID       string   `json:"id"`
	Protocol Protocol `json:"protocol"`
	Xpub     string   `json:"xpub"`
	Index    uint32   `json:"index"`
	Address  string   `json:"address"`
}
