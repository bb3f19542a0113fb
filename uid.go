package sgp

import (
	"math/big"
)

// UID is a 96-bit unsigned identity: an owner or a current holder. It is
// stored as its canonical big-endian 12-byte encoding, matching the wire
// layout of the payload record (spec.md §3) directly, so serialization is
// a plain copy rather than a big.Int conversion on every embed/extract.
type UID [12]byte

// ZeroUID is the null current-holder UID: it denotes a master.
var ZeroUID UID

// NewUID builds a UID from an arbitrary non-negative integer, returning
// *OverflowError if it does not fit in 96 bits.
func NewUID(x *big.Int) (UID, error) {
	var u UID
	if x.Sign() < 0 {
		return u, &OverflowError{Field: "uid"}
	}
	b := x.Bytes()
	if len(b) > len(u) {
		return u, &OverflowError{Field: "uid"}
	}
	copy(u[len(u)-len(b):], b)
	return u, nil
}

// UIDFromUint64 builds a UID from a machine-word integer. It always fits,
// since 2^64 < 2^96.
func UIDFromUint64(x uint64) UID {
	u, _ := NewUID(new(big.Int).SetUint64(x))
	return u
}

// IsZero reports whether this UID is the null current-holder value.
func (u UID) IsZero() bool {
	return u == ZeroUID
}

// BigInt returns the UID's value as an arbitrary-precision integer.
func (u UID) BigInt() *big.Int {
	return new(big.Int).SetBytes(u[:])
}

// String renders the UID in decimal, matching how owner/recipient UIDs
// are quoted elsewhere (audit reports, error messages).
func (u UID) String() string {
	return u.BigInt().String()
}
