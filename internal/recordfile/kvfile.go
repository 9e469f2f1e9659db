package recordfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"modernc.org/kv"

	"sql5300/internal/page"
)

// metaBlockID repurposes block id 0 — reserved and never used for page data
// (spec.md §3) — to hold the "highest allocated block" counter, so Append
// doesn't need to scan the keyspace to find the next id.
const metaBlockID uint32 = 0

// KVFile implements RecordFile on top of modernc.org/kv, the embedded
// sorted key/value store also used (indirectly) by perkeep-perkeep for its
// own on-disk indexes. Each table or index gets its own kv.DB, with page
// payloads stored under their big-endian block-id key.
type KVFile struct {
	dir  string
	name string
	db   *kv.DB
}

// NewKVFile returns a handle for the record file named name inside dir. It
// does not touch the filesystem until Create or Open is called.
func NewKVFile(dir, name string) *KVFile {
	return &KVFile{dir: dir, name: name}
}

func (f *KVFile) path() string { return filepath.Join(f.dir, f.name) }

// Create makes a brand-new, empty record file. It is a no-op if this handle
// already has the file open.
func (f *KVFile) Create() error {
	if f.db != nil {
		return nil
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrapf(err, "recordfile: create directory for %s", f.name)
	}
	db, err := kv.Create(f.path(), &kv.Options{})
	if err != nil {
		return errors.Wrapf(err, "recordfile: create %s", f.name)
	}
	f.db = db
	return f.writeLast(0)
}

// Open reopens an existing record file.
func (f *KVFile) Open() error {
	if f.db != nil {
		return nil
	}
	db, err := kv.Open(f.path(), &kv.Options{})
	if err != nil {
		return errors.Wrapf(err, "recordfile: open %s", f.name)
	}
	f.db = db
	return nil
}

// Close is a no-op if the file isn't open.
func (f *KVFile) Close() error {
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	if err != nil {
		return errors.Wrapf(err, "recordfile: close %s", f.name)
	}
	return nil
}

// Drop closes and permanently removes the underlying file.
func (f *KVFile) Drop() error {
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Remove(f.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "recordfile: remove %s", f.name)
	}
	return nil
}

// Put writes exactly one page's worth of bytes to blockID.
func (f *KVFile) Put(blockID uint32, data []byte) error {
	if f.db == nil {
		return ErrClosed
	}
	if len(data) != page.Size {
		return fmt.Errorf("recordfile: block must be %d bytes, got %d", page.Size, len(data))
	}
	if err := f.db.Set(encodeBlockID(blockID), data); err != nil {
		return errors.Wrapf(err, "recordfile: put block %d", blockID)
	}
	return nil
}

// Get returns the bytes previously written to blockID.
func (f *KVFile) Get(blockID uint32) ([]byte, error) {
	if f.db == nil {
		return nil, ErrClosed
	}
	data, err := f.db.Get(nil, encodeBlockID(blockID))
	if err != nil {
		return nil, errors.Wrapf(err, "recordfile: get block %d", blockID)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// Append allocates the next block id, under a kv transaction so the data
// write and the counter bump commit atomically.
func (f *KVFile) Append(data []byte) (uint32, error) {
	if f.db == nil {
		return 0, ErrClosed
	}
	last, err := f.readLast()
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := f.db.BeginTransaction(); err != nil {
		return 0, errors.Wrap(err, "recordfile: begin append transaction")
	}
	if err := f.Put(next, data); err != nil {
		_ = f.db.Rollback()
		return 0, err
	}
	if err := f.writeLast(next); err != nil {
		_ = f.db.Rollback()
		return 0, err
	}
	if err := f.db.Commit(); err != nil {
		return 0, errors.Wrap(err, "recordfile: commit append transaction")
	}
	return next, nil
}

// Stat reports the highest allocated block id as NRecords, which is what
// HeapFile.Open needs to recover `last`.
func (f *KVFile) Stat() (Stat, error) {
	last, err := f.readLast()
	if err != nil {
		return Stat{}, err
	}
	return Stat{NRecords: int(last)}, nil
}

func (f *KVFile) readLast() (uint32, error) {
	data, err := f.db.Get(nil, encodeBlockID(metaBlockID))
	if err != nil {
		return 0, errors.Wrap(err, "recordfile: read block counter")
	}
	if data == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint32(data), nil
}

func (f *KVFile) writeLast(n uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	if err := f.db.Set(encodeBlockID(metaBlockID), b[:]); err != nil {
		return errors.Wrap(err, "recordfile: write block counter")
	}
	return nil
}

func encodeBlockID(id uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return b[:]
}
