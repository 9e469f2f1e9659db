// Package recordfile implements the external record-file contract spec.md
// §6 treats as an out-of-core collaborator: open/close/create/drop, get/put
// by integer block id, and an append primitive that hands back the next
// block id. Block ids are opaque uint32s; values are fixed-length (one page)
// for table/index files.
package recordfile

import "errors"

// ErrClosed is returned by operations on a RecordFile that hasn't been
// opened (or has already been closed).
var ErrClosed = errors.New("recordfile: not open")

// ErrNotFound is returned by Get for a block id that was never written.
var ErrNotFound = errors.New("recordfile: block not found")

// Stat summarizes a record file's on-disk state, used to recover
// bookkeeping (like HeapFile.last) after a restart.
type Stat struct {
	// NRecords is the number of distinct block ids ever written, not
	// counting the reserved meta block 0.
	NRecords int
}

// RecordFile is the minimal contract the page store needs from whatever
// embedded storage engine backs it: open/create/drop the file, put/get
// fixed-length blocks keyed by integer id, and append a new block.
type RecordFile interface {
	// Create creates a brand-new, empty record file, failing if one
	// already exists at this name. Calling Create on a handle that already
	// has its file open is a no-op.
	Create() error
	// Open opens an existing record file.
	Open() error
	// Close releases the underlying handle. Closing an already-closed
	// file is a no-op.
	Close() error
	// Drop closes (if open) and permanently removes the file.
	Drop() error

	// Put writes data (exactly page.Size bytes) to blockID.
	Put(blockID uint32, data []byte) error
	// Get reads back the bytes written to blockID.
	Get(blockID uint32) ([]byte, error)
	// Append allocates a new block, writes data to it, and returns the
	// freshly allocated block id.
	Append(data []byte) (uint32, error)

	// Stat reports summary statistics used to recover state on Open.
	Stat() (Stat, error)
}
