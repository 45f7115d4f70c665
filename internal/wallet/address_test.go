package wallet

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidateAddress_RealKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	address := base58.Encode(pub)
	if err := ValidateAddress(address); err != nil {
		t.Errorf("Valid ed25519 public key rejected: %v", err)
	}
}

func TestValidateAddress_Empty(t *testing.T) {
	err := ValidateAddress("")
	if !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength, got %v", err)
	}
}

func TestValidateAddress_NotBase58(t *testing.T) {
	// 0, O, I and l are outside the base58 alphabet
	err := ValidateAddress("0OIl!!!not-an-address")
	if !errors.Is(err, ErrInvalidBase58) {
		t.Errorf("Expected ErrInvalidBase58, got %v", err)
	}
}

func TestValidateAddress_WrongLength(t *testing.T) {
	short := base58.Encode([]byte{1, 2, 3})
	err := ValidateAddress(short)
	if !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength, got %v", err)
	}
}

func TestValidateAddress_RejectsOffCurvePoints(t *testing.T) {
	// Roughly half of all 32-byte strings are not valid curve points.
	// Sweep the first byte over a fixed pattern and require that both
	// outcomes occur, so the on-curve check is actually discriminating.
	var accepted, rejected int
	raw := make([]byte, 32)
	for b := 0; b < 64; b++ {
		for i := range raw {
			raw[i] = byte(i)
		}
		raw[0] = byte(b)
		if err := ValidateAddress(base58.Encode(raw)); err != nil {
			if !errors.Is(err, ErrOffCurve) {
				t.Fatalf("Unexpected error class: %v", err)
			}
			rejected++
		} else {
			accepted++
		}
	}

	if rejected == 0 {
		t.Error("No off-curve point rejected; on-curve check is not discriminating")
	}
	if accepted == 0 {
		t.Error("No point accepted; on-curve check rejects everything")
	}
}
