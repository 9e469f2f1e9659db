package page

import (
	"encoding/binary"
	"fmt"
)

// SlottedPage is the in-memory view of one page's worth of variable-length
// records (spec §3, §4.1). The on-disk layout is:
//
//	[0:2)  num_records (u16 LE)
//	[2:4)  end_free    (u16 LE) — offset of the last byte still free
//	[4*i:4*i+4) for i in 1..=num_records: (size u16 LE, loc u16 LE)
//
// Record payloads grow downward from the end of the page; slot headers grow
// upward from offset 4. size == 0 (equivalently loc == 0) marks a tombstone.
type SlottedPage struct {
	buf        []byte
	block      BlockID
	numRecords uint16
	endFree    uint16
}

// New wraps buf (which must be exactly Size bytes) as a slotted page for
// block. If isNew, the page is formatted with a zero-record header;
// otherwise num_records/end_free are read back out of buf.
func New(buf []byte, block BlockID, isNew bool) (*SlottedPage, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("page: buffer must be %d bytes, got %d", Size, len(buf))
	}
	sp := &SlottedPage{buf: buf, block: block}
	if isNew {
		sp.numRecords = 0
		sp.endFree = Size - 1
		sp.writeHeader()
	} else {
		sp.numRecords = binary.LittleEndian.Uint16(buf[0:2])
		sp.endFree = binary.LittleEndian.Uint16(buf[2:4])
	}
	return sp, nil
}

// Block returns the block id this page was loaded from.
func (sp *SlottedPage) Block() BlockID { return sp.block }

// Bytes returns the underlying page buffer, for handing back to the heap
// file on a Put.
func (sp *SlottedPage) Bytes() []byte { return sp.buf }

func (sp *SlottedPage) writeHeader() {
	binary.LittleEndian.PutUint16(sp.buf[0:2], sp.numRecords)
	binary.LittleEndian.PutUint16(sp.buf[2:4], sp.endFree)
}

func (sp *SlottedPage) slotOffset(id RecordID) int { return 4 * int(id) }

func (sp *SlottedPage) readSlot(id RecordID) (size, loc uint16) {
	off := sp.slotOffset(id)
	return binary.LittleEndian.Uint16(sp.buf[off : off+2]), binary.LittleEndian.Uint16(sp.buf[off+2 : off+4])
}

func (sp *SlottedPage) writeSlot(id RecordID, size, loc uint16) {
	off := sp.slotOffset(id)
	binary.LittleEndian.PutUint16(sp.buf[off:off+2], size)
	binary.LittleEndian.PutUint16(sp.buf[off+2:off+4], loc)
}

// freeSpace is the number of bytes available between the slot directory and
// end_free, before accounting for a new slot header.
func (sp *SlottedPage) freeSpace() int {
	return int(sp.endFree) - 4*int(sp.numRecords)
}

// HasRoom reports whether a brand-new record of n bytes (plus its 4-byte
// slot header) fits on the page. This is the corrected form of the
// original's has_room — see spec §9 design notes.
func (sp *SlottedPage) HasRoom(n int) bool {
	return n+4 <= sp.freeSpace()
}

func (sp *SlottedPage) hasRoomForGrowth(extra int) bool {
	return extra <= sp.freeSpace()
}

// Add places data as a new record on the page and returns its RecordID.
func (sp *SlottedPage) Add(data []byte) (RecordID, error) {
	if !sp.HasRoom(len(data)) {
		return 0, ErrNoRoom
	}
	id := RecordID(sp.numRecords + 1)
	loc := sp.endFree - uint16(len(data)) + 1
	sp.endFree -= uint16(len(data))
	sp.numRecords++
	sp.writeSlot(id, uint16(len(data)), loc)
	sp.writeHeader()
	copy(sp.buf[loc:int(loc)+len(data)], data)
	return id, nil
}

// Get returns a copy of the record's bytes, or ok=false if the record is
// deleted or never existed. The corrected predicate is loc != 0 (the
// original source's `!loc == 0` was a typo — spec §9).
func (sp *SlottedPage) Get(id RecordID) (data []byte, ok bool) {
	if id < 1 || int(id) > int(sp.numRecords) {
		return nil, false
	}
	size, loc := sp.readSlot(id)
	if loc == 0 {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, sp.buf[loc:int(loc)+int(size)])
	return out, true
}

// Put updates an existing record in place if it still fits, compacting the
// page to make room otherwise.
func (sp *SlottedPage) Put(id RecordID, data []byte) error {
	if id < 1 || int(id) > int(sp.numRecords) {
		return fmt.Errorf("page: record id %d out of range", id)
	}
	size, loc := sp.readSlot(id)
	if loc == 0 {
		return ErrDeleted
	}
	newSize := uint16(len(data))
	if newSize <= size {
		copy(sp.buf[loc:int(loc)+int(newSize)], data)
		sp.writeSlot(id, newSize, loc)
		return nil
	}
	extra := int(newSize) - int(size)
	if !sp.hasRoomForGrowth(extra) {
		return ErrNoRoom
	}
	newLoc := loc - uint16(extra)
	sp.slide(loc, newLoc)
	copy(sp.buf[newLoc:int(newLoc)+int(newSize)], data)
	sp.writeSlot(id, newSize, newLoc)
	return nil
}

// Del tombstones a record and reclaims its space by compacting the page.
// num_records is left unchanged; only the slot is zeroed.
func (sp *SlottedPage) Del(id RecordID) error {
	if id < 1 || int(id) > int(sp.numRecords) {
		return fmt.Errorf("page: record id %d out of range", id)
	}
	size, loc := sp.readSlot(id)
	if loc == 0 {
		return nil // already deleted: idempotent
	}
	sp.writeSlot(id, 0, 0)
	sp.slide(loc, loc+size)
	return nil
}

// Ids returns the RecordIDs of non-deleted slots, in ascending order.
func (sp *SlottedPage) Ids() []RecordID {
	var ids []RecordID
	for i := RecordID(1); int(i) <= int(sp.numRecords); i++ {
		size, _ := sp.readSlot(i)
		if size != 0 {
			ids = append(ids, i)
		}
	}
	return ids
}

// slide shifts the payload byte range [end_free+1, start) by (end-start)
// bytes and rewrites every live slot header whose loc <= start by the same
// delta, then updates end_free. It is the core invariant-preserver behind
// Put (growth) and Del (reclaim): start==end is a no-op, and slots that are
// already tombstones (loc == 0) are never touched even though 0 <= start
// would otherwise match.
func (sp *SlottedPage) slide(start, end uint16) {
	delta := int(end) - int(start)
	if delta == 0 {
		return
	}
	lo := int(sp.endFree) + 1
	if lo < int(start) {
		copy(sp.buf[lo+delta:int(start)+delta], sp.buf[lo:int(start)])
	}
	for i := RecordID(1); int(i) <= int(sp.numRecords); i++ {
		size, loc := sp.readSlot(i)
		if loc == 0 {
			continue
		}
		if loc <= start {
			sp.writeSlot(i, size, uint16(int(loc)+delta))
		}
	}
	sp.endFree = uint16(int(sp.endFree) + delta)
	sp.writeHeader()
}
