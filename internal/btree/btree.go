package btree

import (
	"encoding/binary"
	"fmt"

	"sql5300/internal/page"
	"sql5300/internal/recordfile"
	"sql5300/internal/value"
)

// ErrDuplicateKey is returned by Insert when a unique index's key already
// has an entry.
var ErrDuplicateKey = fmt.Errorf("btree: duplicate key")

// ErrUnimplemented marks the two operations spec §4.5 defines but leaves
// unbuilt: range scans and delete.
var ErrUnimplemented = fmt.Errorf("btree: unimplemented")

// BTreeStat lives in statBlock and persists the tree's root block id,
// height (1 for a leaf-only tree, >=2 once it has split), and the key
// profile (needed to decode every other block in the file).
type BTreeStat struct {
	RootID  page.BlockID
	Height  int
	Profile []value.DataType
}

func (s *BTreeStat) marshal() []byte {
	buf := make([]byte, page.Size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(s.RootID))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(s.Height))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(s.Profile)))
	off := 8
	for _, dt := range s.Profile {
		buf[off] = byte(dt)
		off++
	}
	return buf
}

func unmarshalStat(buf []byte) *BTreeStat {
	s := &BTreeStat{
		RootID: page.BlockID(binary.LittleEndian.Uint32(buf[0:4])),
		Height: int(binary.LittleEndian.Uint16(buf[4:6])),
	}
	n := int(binary.LittleEndian.Uint16(buf[6:8]))
	off := 8
	for i := 0; i < n; i++ {
		s.Profile = append(s.Profile, value.DataType(buf[off]))
		off++
	}
	return s
}

// Relation is the subset of heap.DbRelation a BTreeIndex needs to rebuild
// itself from scratch: select every handle, then project out the key
// columns for each.
type Relation interface {
	Select() ([]page.Handle, error)
	Project(h page.Handle, cols []string) (value.Row, error)
}

// BTreeIndex is a unique B+-tree-like secondary index keyed by KeyValue,
// stored in its own record file named "{table}-{index}" (spec §4.5).
type BTreeIndex struct {
	name       string
	keyColumns []string
	unique     bool
	file       recordfile.RecordFile
	stat       *BTreeStat
	open       bool
}

// NewBTreeIndex builds an index named name over keyColumns (with parallel
// profile), backed by rf. unique must be true: spec §4.5 only supports
// unique indices, and create() rejects unique=false.
func NewBTreeIndex(name string, keyColumns []string, profile []value.DataType, unique bool, rf recordfile.RecordFile) *BTreeIndex {
	return &BTreeIndex{
		name:       name,
		keyColumns: keyColumns,
		unique:     unique,
		file:       rf,
		stat:       &BTreeStat{Profile: profile},
	}
}

// KeyColumns returns the column names this index is keyed on, in profile
// order, for use by the query planner's index-coverage check.
func (idx *BTreeIndex) KeyColumns() []string { return idx.keyColumns }

// Create creates the index file, writes an empty root leaf, then rebuilds
// the index by inserting every row of rel.
func (idx *BTreeIndex) Create(rel Relation) error {
	if !idx.unique {
		return fmt.Errorf("btree: %s: %w: only unique indices are supported", idx.name, ErrUnimplemented)
	}
	if err := idx.file.Create(); err != nil {
		return fmt.Errorf("btree: create %s: %w", idx.name, err)
	}
	idx.open = true

	if _, err := idx.file.Append(idx.stat.marshal()); err != nil {
		return fmt.Errorf("btree: write stat block for %s: %w", idx.name, err)
	}
	root := newLeafNode(statBlock + 1)
	idx.stat.RootID = root.block
	idx.stat.Height = 1
	if _, err := idx.file.Append(root.marshal(idx.stat.Profile)); err != nil {
		return fmt.Errorf("btree: write root leaf for %s: %w", idx.name, err)
	}
	if err := idx.saveStat(); err != nil {
		return err
	}

	handles, err := rel.Select()
	if err != nil {
		return fmt.Errorf("btree: rebuild %s: %w", idx.name, err)
	}
	for _, h := range handles {
		if err := idx.insertFromRelation(rel, h); err != nil {
			return err
		}
	}
	return nil
}

func (idx *BTreeIndex) insertFromRelation(rel Relation, h page.Handle) error {
	row, err := rel.Project(h, idx.keyColumns)
	if err != nil {
		return fmt.Errorf("btree: rebuild %s: %w", idx.name, err)
	}
	return idx.Insert(row, h)
}

// Open reopens an existing index file and reads its stat block.
func (idx *BTreeIndex) Open() error {
	if idx.open {
		return nil
	}
	if err := idx.file.Open(); err != nil {
		return fmt.Errorf("btree: open %s: %w", idx.name, err)
	}
	buf, err := idx.file.Get(uint32(statBlock))
	if err != nil {
		return fmt.Errorf("btree: read stat block for %s: %w", idx.name, err)
	}
	idx.stat = unmarshalStat(buf)
	idx.open = true
	return nil
}

// Close releases the underlying file handle.
func (idx *BTreeIndex) Close() error {
	if !idx.open {
		return nil
	}
	if err := idx.file.Close(); err != nil {
		return fmt.Errorf("btree: close %s: %w", idx.name, err)
	}
	idx.open = false
	return nil
}

// Drop closes and removes the underlying file.
func (idx *BTreeIndex) Drop() error {
	if err := idx.file.Drop(); err != nil {
		return fmt.Errorf("btree: drop %s: %w", idx.name, err)
	}
	idx.open = false
	return nil
}

func (idx *BTreeIndex) saveStat() error {
	if err := idx.file.Put(uint32(statBlock), idx.stat.marshal()); err != nil {
		return fmt.Errorf("btree: save stat block for %s: %w", idx.name, err)
	}
	return nil
}

func (idx *BTreeIndex) loadLeaf(block page.BlockID) (*leafNode, error) {
	buf, err := idx.file.Get(uint32(block))
	if err != nil {
		return nil, fmt.Errorf("btree: read block %d of %s: %w", block, idx.name, err)
	}
	return unmarshalLeaf(buf, block, idx.stat.Profile)
}

func (idx *BTreeIndex) loadInterior(block page.BlockID) (*interiorNode, error) {
	buf, err := idx.file.Get(uint32(block))
	if err != nil {
		return nil, fmt.Errorf("btree: read block %d of %s: %w", block, idx.name, err)
	}
	return unmarshalInterior(buf, block, idx.stat.Profile)
}

func (idx *BTreeIndex) saveLeaf(n *leafNode) error {
	return idx.file.Put(uint32(n.block), n.marshal(idx.stat.Profile))
}

func (idx *BTreeIndex) saveInterior(n *interiorNode) error {
	return idx.file.Put(uint32(n.block), n.marshal(idx.stat.Profile))
}

// newBlock appends a zero-filled placeholder block and returns its id; the
// caller overwrites it with the real node contents immediately afterward.
func (idx *BTreeIndex) newBlock() (page.BlockID, error) {
	id, err := idx.file.Append(make([]byte, page.Size))
	if err != nil {
		return 0, fmt.Errorf("btree: allocate block in %s: %w", idx.name, err)
	}
	return page.BlockID(id), nil
}

// Lookup builds a KeyValue from keyDict per the index's key_columns and
// key_profile, then descends from root to leaf and returns the matching
// handle, if any. A missing key is not an error: it returns a nil slice.
func (idx *BTreeIndex) Lookup(keyDict value.Row) ([]page.Handle, error) {
	key, err := tkey(idx.keyColumns, idx.stat.Profile, keyDict)
	if err != nil {
		return nil, err
	}
	leaf, err := idx.descendToLeaf(key)
	if err != nil {
		return nil, err
	}
	if h, ok := leaf.findEq(key); ok {
		return []page.Handle{h}, nil
	}
	return nil, nil
}

func (idx *BTreeIndex) descendToLeaf(key KeyValue) (*leafNode, error) {
	if idx.stat.Height == 1 {
		return idx.loadLeaf(idx.stat.RootID)
	}
	block := idx.stat.RootID
	for level := idx.stat.Height; level > 1; level-- {
		interior, err := idx.loadInterior(block)
		if err != nil {
			return nil, err
		}
		block = interior.childFor(key)
	}
	return idx.loadLeaf(block)
}

// Insert projects the key columns for row (handle h in the parent
// relation), descends to the target leaf, and inserts (key, h). A leaf or
// interior overflow propagates a split upward per spec §4.5; if the
// recursion reaches the root with a pending split, a new root interior is
// created.
func (idx *BTreeIndex) Insert(keyRow value.Row, h page.Handle) error {
	key, err := tkey(idx.keyColumns, idx.stat.Profile, keyRow)
	if err != nil {
		return err
	}

	if idx.stat.Height == 1 {
		leaf, err := idx.loadLeaf(idx.stat.RootID)
		if err != nil {
			return err
		}
		if _, ok := leaf.findEq(key); ok {
			return fmt.Errorf("btree: %s: %w: %v", idx.name, ErrDuplicateKey, key)
		}
		ins, err := idx.insertIntoLeaf(leaf, key, h)
		if err != nil {
			return err
		}
		if ins != nil {
			return idx.growRoot(ins)
		}
		return nil
	}

	path, leaf, err := idx.descendWithPath(key)
	if err != nil {
		return err
	}
	if _, ok := leaf.findEq(key); ok {
		return fmt.Errorf("btree: %s: %w: %v", idx.name, ErrDuplicateKey, key)
	}
	ins, err := idx.insertIntoLeaf(leaf, key, h)
	if err != nil {
		return err
	}
	for i := len(path) - 1; i >= 0 && ins != nil; i-- {
		ins, err = idx.insertIntoInterior(path[i], ins)
		if err != nil {
			return err
		}
	}
	if ins != nil {
		return idx.growRoot(ins)
	}
	return nil
}

// descendWithPath walks root-to-leaf, returning every interior node visited
// (root first) alongside the target leaf.
func (idx *BTreeIndex) descendWithPath(key KeyValue) ([]*interiorNode, *leafNode, error) {
	var path []*interiorNode
	block := idx.stat.RootID
	for level := idx.stat.Height; level > 1; level-- {
		interior, err := idx.loadInterior(block)
		if err != nil {
			return nil, nil, err
		}
		path = append(path, interior)
		block = interior.childFor(key)
	}
	leaf, err := idx.loadLeaf(block)
	if err != nil {
		return nil, nil, err
	}
	return path, leaf, nil
}

func (idx *BTreeIndex) insertIntoLeaf(leaf *leafNode, key KeyValue, h page.Handle) (*Insertion, error) {
	leaf.insert(key, h)
	if leaf.byteSize() <= page.Size {
		if err := idx.saveLeaf(leaf); err != nil {
			return nil, err
		}
		return nil, nil
	}
	newBlockID, err := idx.newBlock()
	if err != nil {
		return nil, err
	}
	right, boundary := leaf.split(newBlockID)
	if err := idx.saveLeaf(leaf); err != nil {
		return nil, err
	}
	if err := idx.saveLeaf(right); err != nil {
		return nil, err
	}
	return &Insertion{Block: right.block, Boundary: boundary}, nil
}

func (idx *BTreeIndex) insertIntoInterior(n *interiorNode, ins *Insertion) (*Insertion, error) {
	n.insert(ins.Boundary, ins.Block)
	if n.byteSize() <= page.Size {
		if err := idx.saveInterior(n); err != nil {
			return nil, err
		}
		return nil, nil
	}
	newBlockID, err := idx.newBlock()
	if err != nil {
		return nil, err
	}
	right, boundary := n.split(newBlockID)
	if err := idx.saveInterior(n); err != nil {
		return nil, err
	}
	if err := idx.saveInterior(right); err != nil {
		return nil, err
	}
	return &Insertion{Block: right.block, Boundary: boundary}, nil
}

// growRoot creates a new interior root when a split propagates past the
// current root: its `first` child is the old root, its sole entry the
// pending Insertion.
func (idx *BTreeIndex) growRoot(ins *Insertion) error {
	newRootID, err := idx.newBlock()
	if err != nil {
		return err
	}
	root := &interiorNode{block: newRootID, first: idx.stat.RootID}
	root.insert(ins.Boundary, ins.Block)
	if err := idx.saveInterior(root); err != nil {
		return err
	}
	idx.stat.RootID = newRootID
	idx.stat.Height++
	return idx.saveStat()
}

// Range is defined by spec §4.5 but left unimplemented.
func (idx *BTreeIndex) Range(min, max value.Row) ([]page.Handle, error) {
	return nil, ErrUnimplemented
}

// Del is defined by spec §4.5 but left unimplemented.
func (idx *BTreeIndex) Del(h page.Handle) error {
	return ErrUnimplemented
}
