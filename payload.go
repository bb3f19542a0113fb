package sgp

import (
	"encoding/binary"
	"hash/crc32"
)

// RecordSize is the fixed, total size in bytes of a serialized payload
// record (spec.md §3). It is also the number of bits embedded per image:
// PayloadBits = RecordSize * 8.
const RecordSize = 32

// PayloadBits is the number of bits embedded per image (spec.md §3).
const PayloadBits = RecordSize * 8

// protocolMagic is the constant protocol tag written to bytes [0..4).
const protocolMagic uint32 = 0x53475001

// Wire offsets within the 32-byte record. original_uid occupies a full
// 96-bit (12-byte) field at [8:20); current_uid shares the remaining
// space with the flags and reserved bytes and so is a 80-bit (10-byte)
// field at [20:30) — see DESIGN.md for why this narrower width is the
// only offset assignment consistent with flags sitting at byte 30 and
// reserved at byte 31 inside a fixed 32-byte record.
const (
	offMagic    = 0
	offCRC      = 4
	offOriginal = 8
	offCurrent  = 20
	currentSize = 10
	offFlags    = 30
	offReserved = 31
)

// Flag bits within the record's single flags byte (offset 30).
const (
	FlagAllowDerivative = 1 << 0
	FlagAllowReprint    = 1 << 1
	flagsReservedMask   = ^byte(FlagAllowDerivative | FlagAllowReprint)
)

// Record is the in-memory, validated form of the 32-byte payload
// described in spec.md §3. It is constructed by the DRM state machine
// (drm.go) and never mutated after construction.
type Record struct {
	OriginalUID     UID
	CurrentUID      UID
	AllowDerivative bool
	AllowReprint    bool
}

// IsMaster reports whether this record's current holder is the null UID,
// i.e. whether it is a master rather than a distribution copy.
func (r Record) IsMaster() bool {
	return r.CurrentUID.IsZero()
}

func (r Record) flagsByte() byte {
	var f byte
	if r.AllowDerivative {
		f |= FlagAllowDerivative
	}
	if r.AllowReprint {
		f |= FlagAllowReprint
	}
	return f
}

// Serialize writes magic, a placeholder CRC, both UIDs, flags, and a
// zeroed reserved byte, then computes the CRC-32/IEEE checksum over bytes
// [8..32) and writes it into bytes [4..8) (spec.md §4.A). It fails with
// *OverflowError if CurrentUID does not fit in the 80 bits available to
// it on the wire (OriginalUID always fits: UID itself is bounded to 96
// bits by construction, see uid.go).
func (r Record) Serialize() ([RecordSize]byte, error) {
	var buf [RecordSize]byte
	if r.CurrentUID[0] != 0 || r.CurrentUID[1] != 0 {
		return buf, &OverflowError{Field: "current_uid"}
	}

	binary.BigEndian.PutUint32(buf[offMagic:offMagic+4], protocolMagic)
	// buf[offCRC:offCRC+4] is a placeholder, filled in below.
	copy(buf[offOriginal:offOriginal+12], r.OriginalUID[:])
	copy(buf[offCurrent:offCurrent+currentSize], r.CurrentUID[12-currentSize:])
	buf[offFlags] = r.flagsByte()
	buf[offReserved] = 0

	crc := crc32.ChecksumIEEE(buf[offOriginal:RecordSize])
	binary.BigEndian.PutUint32(buf[offCRC:offCRC+4], crc)
	return buf, nil
}

// Deserialize validates a 32-byte buffer and, on success, returns the
// decoded record. On any mismatch — wrong length, bad magic, bad CRC, or
// (in strict mode) reserved bits set — it returns a nil record and an
// *InvalidPayloadError carrying the sub-reason. It never panics on
// arbitrary input.
func Deserialize(data []byte, strict bool) (*Record, error) {
	if len(data) != RecordSize {
		return nil, &InvalidPayloadError{Reason: ReasonBadLength}
	}
	var buf [RecordSize]byte
	copy(buf[:], data)

	if binary.BigEndian.Uint32(buf[offMagic:offMagic+4]) != protocolMagic {
		return nil, &InvalidPayloadError{Reason: ReasonBadMagic}
	}

	wantCRC := binary.BigEndian.Uint32(buf[offCRC : offCRC+4])
	gotCRC := crc32.ChecksumIEEE(buf[offOriginal:RecordSize])
	if wantCRC != gotCRC {
		return nil, &InvalidPayloadError{Reason: ReasonBadCRC}
	}

	flags := buf[offFlags]
	reserved := buf[offReserved]
	if strict && (flags&flagsReservedMask != 0 || reserved != 0) {
		return nil, &InvalidPayloadError{Reason: ReasonReservedBits}
	}

	var rec Record
	copy(rec.OriginalUID[:], buf[offOriginal:offOriginal+12])
	copy(rec.CurrentUID[12-currentSize:], buf[offCurrent:offCurrent+currentSize])
	rec.AllowDerivative = flags&FlagAllowDerivative != 0
	rec.AllowReprint = flags&FlagAllowReprint != 0
	return &rec, nil
}
