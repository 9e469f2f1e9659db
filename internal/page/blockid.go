// Package page implements the fixed-size page layout the rest of the engine
// is built on: block/record identifiers and the slotted-page record format.
package page

import "fmt"

// Size is the fixed size in bytes of every page in the system.
const Size = 4096

// BlockID identifies a page within a file. Block 0 is reserved and never
// holds a page of table/index data.
type BlockID uint32

// RecordID identifies a record within a page. 0 denotes "deleted/absent".
type RecordID uint16

// Handle uniquely identifies a row within a table for its lifetime. It is
// invalidated by deletion of the row but not by compaction within a page.
type Handle struct {
	Block  BlockID
	Record RecordID
}

func (h Handle) String() string {
	return fmt.Sprintf("(%d, %d)", h.Block, h.Record)
}

// Equal reports whether two handles refer to the same row.
func (h Handle) Equal(o Handle) bool {
	return h.Block == o.Block && h.Record == o.Record
}
