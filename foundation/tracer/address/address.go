// Package address validates Bitcoin addresses before they are used in
// API calls or stored in trace results.
package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// Validate checks the specified string decodes as a mainnet Bitcoin
// address. Base58 (P2PKH, P2SH) and bech32 (P2WPKH, P2WSH, P2TR)
// encodings are accepted.
func Validate(addr string) error {
	a, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if !a.IsForNet(&chaincfg.MainNetParams) {
		return fmt.Errorf("address %q is not a mainnet address", addr)
	}

	return nil
}

// IsValid reports whether the specified string is a mainnet Bitcoin
// address.
func IsValid(addr string) bool {
	return Validate(addr) == nil
}
