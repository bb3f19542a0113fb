package sgp

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// recomputeCRC patches buf's CRC field to match its current contents,
// used by tests that hand-corrupt a field after Serialize computed the
// original checksum.
func recomputeCRC(buf *[RecordSize]byte) {
	crc := crc32.ChecksumIEEE(buf[offOriginal:RecordSize])
	binary.BigEndian.PutUint32(buf[offCRC:offCRC+4], crc)
}

func TestRecordRoundTrip(t *testing.T) {
	rec := Record{
		OriginalUID:     UIDFromUint64(424242),
		CurrentUID:      ZeroUID,
		AllowDerivative: true,
		AllowReprint:    false,
	}
	buf, err := rec.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(buf[:], true)
	if err != nil {
		t.Fatal(err)
	}
	if *got != rec {
		t.Fatalf("round trip mismatch: want %+v, got %+v", rec, *got)
	}
}

func TestRecordRoundTripWithCurrentUID(t *testing.T) {
	rec := Record{
		OriginalUID:     UIDFromUint64(1),
		CurrentUID:      UIDFromUint64(987654321),
		AllowDerivative: false,
		AllowReprint:    true,
	}
	buf, err := rec.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(buf[:], true)
	if err != nil {
		t.Fatal(err)
	}
	if *got != rec {
		t.Fatalf("round trip mismatch: want %+v, got %+v", rec, *got)
	}
}

func TestCurrentUIDOverflow(t *testing.T) {
	// current_uid only has 80 wire bits; a value using any of the top 16
	// bits of the in-memory 96-bit UID cannot be stamped as a current
	// holder.
	huge := UIDFromUint64(0)
	huge[0] = 1 // forces a nonzero top byte, outside the 80-bit window
	rec := Record{OriginalUID: ZeroUID, CurrentUID: huge}
	if _, err := rec.Serialize(); err == nil {
		t.Fatal("expected an overflow error for an oversized current_uid")
	}
}

func TestDeserializeBadLength(t *testing.T) {
	_, err := Deserialize(make([]byte, 10), false)
	ipe, ok := err.(*InvalidPayloadError)
	if !ok || ipe.Reason != ReasonBadLength {
		t.Fatalf("expected ReasonBadLength, got %v", err)
	}
}

func TestDeserializeBadMagic(t *testing.T) {
	rec := Record{OriginalUID: UIDFromUint64(1)}
	buf, _ := rec.Serialize()
	buf[0] ^= 0xFF
	_, err := Deserialize(buf[:], false)
	ipe, ok := err.(*InvalidPayloadError)
	if !ok || ipe.Reason != ReasonBadMagic {
		t.Fatalf("expected ReasonBadMagic, got %v", err)
	}
}

func TestDeserializeBadCRC(t *testing.T) {
	rec := Record{OriginalUID: UIDFromUint64(1)}
	buf, _ := rec.Serialize()
	buf[10] ^= 0xFF // corrupt a byte inside the CRC-covered range
	_, err := Deserialize(buf[:], false)
	ipe, ok := err.(*InvalidPayloadError)
	if !ok || ipe.Reason != ReasonBadCRC {
		t.Fatalf("expected ReasonBadCRC, got %v", err)
	}
}

func TestDeserializeStrictRejectsReservedBits(t *testing.T) {
	rec := Record{OriginalUID: UIDFromUint64(1)}
	buf, _ := rec.Serialize()
	buf[offReserved] = 1
	recomputeCRC(&buf)

	if _, err := Deserialize(buf[:], false); err != nil {
		t.Fatalf("lenient mode should accept reserved bits, got %v", err)
	}
	_, err := Deserialize(buf[:], true)
	ipe, ok := err.(*InvalidPayloadError)
	if !ok || ipe.Reason != ReasonReservedBits {
		t.Fatalf("expected ReasonReservedBits in strict mode, got %v", err)
	}
}

func TestIsMaster(t *testing.T) {
	master := Record{OriginalUID: UIDFromUint64(1), CurrentUID: ZeroUID}
	if !master.IsMaster() {
		t.Fatal("zero current_uid should be a master")
	}
	distCopy := Record{OriginalUID: UIDFromUint64(1), CurrentUID: UIDFromUint64(2)}
	if distCopy.IsMaster() {
		t.Fatal("nonzero current_uid should not be a master")
	}
}
