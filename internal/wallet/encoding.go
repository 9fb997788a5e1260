package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is required by the Bitcoin-derived address formats
)

const (
	compressedPubKeyLen   = 33
	uncompressedPubKeyLen = 65
	checksumLen           = 4
)

// hash160 is RIPEMD160(SHA256(data)).
func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	return ripe.Sum(nil)
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// versionedChecksum returns version + payload + first 4 bytes of double SHA256.
func versionedChecksum(version byte, payload []byte) []byte {
	data := make([]byte, 0, 1+len(payload)+checksumLen)
	data = append(data, version)
	data = append(data, payload...)
	return append(data, doubleSHA256(data)[:checksumLen]...)
}

// splitChecksum verifies and strips a trailing double SHA256 checksum.
func splitChecksum(data []byte) ([]byte, bool) {
	if len(data) < 1+checksumLen {
		return nil, false
	}
	body, sum := data[:len(data)-checksumLen], data[len(data)-checksumLen:]
	want := doubleSHA256(body)[:checksumLen]
	for i := range sum {
		if sum[i] != want[i] {
			return nil, false
		}
	}
	return body, true
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
