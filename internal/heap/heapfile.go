package heap

import (
	"fmt"

	"sql5300/internal/page"
	"sql5300/internal/recordfile"
)

// HeapFile is an ordered set of slotted pages comprising one physical
// relation, stored in the external record file under the table name
// (spec §4.2). It tracks `last`, the highest allocated block id.
type HeapFile struct {
	name string
	file recordfile.RecordFile
	last page.BlockID
	open bool
}

// NewHeapFile wraps rf (typically a *recordfile.KVFile) as a heap file
// named name. Neither Create nor Open has been called yet.
func NewHeapFile(name string, rf recordfile.RecordFile) *HeapFile {
	return &HeapFile{name: name, file: rf}
}

// Name returns the relation name this heap file stores.
func (hf *HeapFile) Name() string { return hf.name }

// Create creates the underlying file, then allocates one page so the
// relation always has at least one block to insert into.
func (hf *HeapFile) Create() error {
	if err := hf.file.Create(); err != nil {
		return fmt.Errorf("heap: create %s: %w", hf.name, err)
	}
	hf.open = true
	_, err := hf.GetNew()
	return err
}

// Open reopens an existing file and recovers `last` from its statistics.
func (hf *HeapFile) Open() error {
	if hf.open {
		return nil
	}
	if err := hf.file.Open(); err != nil {
		return fmt.Errorf("heap: open %s: %w", hf.name, err)
	}
	stat, err := hf.file.Stat()
	if err != nil {
		return fmt.Errorf("heap: stat %s: %w", hf.name, err)
	}
	hf.last = page.BlockID(stat.NRecords)
	hf.open = true
	return nil
}

// Close is a no-op on an already-closed file.
func (hf *HeapFile) Close() error {
	if !hf.open {
		return nil
	}
	if err := hf.file.Close(); err != nil {
		return fmt.Errorf("heap: close %s: %w", hf.name, err)
	}
	hf.open = false
	return nil
}

// Drop closes (if open) then removes the underlying file.
func (hf *HeapFile) Drop() error {
	if err := hf.file.Drop(); err != nil {
		return fmt.Errorf("heap: drop %s: %w", hf.name, err)
	}
	hf.open = false
	return nil
}

// GetNew allocates a zero-initialized page, writes it out through the
// underlying file (which assigns the next block id), then re-reads it so
// the returned page is backed by the store's own buffer.
func (hf *HeapFile) GetNew() (*page.SlottedPage, error) {
	buf := make([]byte, page.Size)
	sp, err := page.New(buf, page.BlockID(hf.last+1), true)
	if err != nil {
		return nil, err
	}
	blockID, err := hf.file.Append(sp.Bytes())
	if err != nil {
		return nil, fmt.Errorf("heap: allocate page in %s: %w", hf.name, err)
	}
	hf.last = page.BlockID(blockID)
	return hf.Get(hf.last)
}

// Get fetches the page stored at blockID.
func (hf *HeapFile) Get(blockID page.BlockID) (*page.SlottedPage, error) {
	data, err := hf.file.Get(uint32(blockID))
	if err != nil {
		return nil, fmt.Errorf("heap: get block %d of %s: %w", blockID, hf.name, err)
	}
	return page.New(data, blockID, false)
}

// Put writes sp back under its own block id.
func (hf *HeapFile) Put(sp *page.SlottedPage) error {
	if err := hf.file.Put(uint32(sp.Block()), sp.Bytes()); err != nil {
		return fmt.Errorf("heap: put block %d of %s: %w", sp.Block(), hf.name, err)
	}
	return nil
}

// BlockIDs returns 1..=last.
func (hf *HeapFile) BlockIDs() []page.BlockID {
	ids := make([]page.BlockID, 0, hf.last)
	for i := page.BlockID(1); i <= hf.last; i++ {
		ids = append(ids, i)
	}
	return ids
}

// Last reports the highest allocated block id.
func (hf *HeapFile) Last() page.BlockID { return hf.last }
