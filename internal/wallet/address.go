// Package wallet validates wallet addresses before permissions are granted.
package wallet

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address validation errors.
var (
	ErrInvalidBase58 = errors.New("address is not valid base58")
	ErrInvalidLength = errors.New("address does not decode to 32 bytes")
	ErrOffCurve      = errors.New("address is not a valid ed25519 public key")
)

// ValidateAddress checks that a wallet address is a base58-encoded 32-byte
// ed25519 public key on the curve. Program-derived addresses are off-curve
// and rejected: permissions are granted to signing wallets only.
func ValidateAddress(address string) error {
	if address == "" {
		return ErrInvalidLength
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBase58, err)
	}
	if len(raw) != 32 {
		return ErrInvalidLength
	}
	if !isOnCurve(raw) {
		return ErrOffCurve
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
