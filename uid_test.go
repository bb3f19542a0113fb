package sgp

import (
	"math/big"
	"testing"
)

func TestUIDRoundTrip(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"123456789",
		"987654321098765432109876", // S2: a 24-digit recipient uid
	}
	for _, s := range cases {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			t.Fatalf("bad test input %q", s)
		}
		uid, err := NewUID(n)
		if err != nil {
			t.Fatalf("NewUID(%s): %v", s, err)
		}
		if got := uid.BigInt().String(); got != s {
			t.Fatalf("round trip mismatch: want %s, got %s", s, got)
		}
	}
}

func TestUIDOverflow(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 96) // 2^96, one past the max
	if _, err := NewUID(tooBig); err == nil {
		t.Fatal("expected error for a UID that does not fit in 96 bits")
	}
}

func TestUIDIsZero(t *testing.T) {
	if !ZeroUID.IsZero() {
		t.Fatal("ZeroUID.IsZero() should be true")
	}
	uid := UIDFromUint64(1)
	if uid.IsZero() {
		t.Fatal("nonzero uid reported as zero")
	}
}
