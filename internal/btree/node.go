package btree

import (
	"encoding/binary"
	"fmt"
	"sort"

	"sql5300/internal/page"
	"sql5300/internal/value"
)

// nodeKind distinguishes a leaf block from an interior block; stored as the
// first byte of every non-STAT block in a B-tree file.
type nodeKind byte

const (
	kindLeaf     nodeKind = 0
	kindInterior nodeKind = 1
)

// statBlock is the fixed block id holding BTreeStat (spec §4.5); the root
// leaf created by BTreeIndex.create lives at statBlock+1.
const statBlock = page.BlockID(1)

// leafEntry pairs an index key with the handle of the row it points to.
type leafEntry struct {
	key    KeyValue
	handle page.Handle
}

// leafNode is the in-memory form of a BTreeLeaf block: sorted key/handle
// entries plus a reserved next-leaf pointer (range scans are unimplemented,
// spec §4.5, so it is always written as 0 and never read back).
type leafNode struct {
	block   page.BlockID
	entries []leafEntry
}

const leafHeaderSize = 1 + 2 + 8 // kind + numEntries + nextLeaf

func newLeafNode(block page.BlockID) *leafNode {
	return &leafNode{block: block}
}

func (n *leafNode) byteSize() int {
	size := leafHeaderSize
	for _, e := range n.entries {
		size += e.key.encodedLen() + 4 + 2
	}
	return size
}

// insert adds (key, handle) in sorted position. The caller is responsible
// for rejecting duplicate keys (unique index) before calling insert.
func (n *leafNode) insert(key KeyValue, h page.Handle) {
	i := sort.Search(len(n.entries), func(i int) bool { return n.entries[i].key.Compare(key) >= 0 })
	n.entries = append(n.entries, leafEntry{})
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = leafEntry{key: key, handle: h}
}

// findEq returns the handle stored under key, if any.
func (n *leafNode) findEq(key KeyValue) (page.Handle, bool) {
	i := sort.Search(len(n.entries), func(i int) bool { return n.entries[i].key.Compare(key) >= 0 })
	if i < len(n.entries) && n.entries[i].key.Equal(key) {
		return n.entries[i].handle, true
	}
	return page.Handle{}, false
}

// split moves the upper half of n's entries to a brand-new leaf at
// newBlock, returning the boundary key (the new leaf's smallest key).
func (n *leafNode) split(newBlock page.BlockID) (*leafNode, KeyValue) {
	mid := len(n.entries) / 2
	right := &leafNode{block: newBlock, entries: append([]leafEntry(nil), n.entries[mid:]...)}
	n.entries = n.entries[:mid]
	return right, right.entries[0].key
}

func (n *leafNode) marshal(profile []value.DataType) []byte {
	buf := make([]byte, page.Size)
	buf[0] = byte(kindLeaf)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(n.entries)))
	// buf[3:11) next-leaf pointer, left zero (reserved).
	off := leafHeaderSize
	for _, e := range n.entries {
		keyBytes := encodeKey(nil, e.key)
		copy(buf[off:], keyBytes)
		off += len(keyBytes)
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(e.handle.Block))
		off += 4
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(e.handle.Record))
		off += 2
	}
	return buf
}

func unmarshalLeaf(buf []byte, block page.BlockID, profile []value.DataType) (*leafNode, error) {
	if nodeKind(buf[0]) != kindLeaf {
		return nil, fmt.Errorf("btree: block %d is not a leaf", block)
	}
	n := &leafNode{block: block}
	count := int(binary.LittleEndian.Uint16(buf[1:3]))
	off := leafHeaderSize
	for i := 0; i < count; i++ {
		key, next, err := decodeKey(buf, off, profile)
		if err != nil {
			return nil, err
		}
		off = next
		blockID := page.BlockID(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		recordID := page.RecordID(binary.LittleEndian.Uint16(buf[off : off+2]))
		off += 2
		n.entries = append(n.entries, leafEntry{key: key, handle: page.Handle{Block: blockID, Record: recordID}})
	}
	return n, nil
}

// interiorEntry pairs a boundary key with the child block holding every key
// >= that boundary (and < the next entry's boundary, if any; the last
// entry's child covers everything up to the end of the key space).
type interiorEntry struct {
	key   KeyValue
	child page.BlockID
}

// interiorNode is the in-memory form of a BTreeInterior block: `first` is
// the child covering keys below the smallest boundary, entries are sorted
// ascending by boundary key.
type interiorNode struct {
	block   page.BlockID
	first   page.BlockID
	entries []interiorEntry
}

const interiorHeaderSize = 1 + 2 + 4 // kind + numEntries + first

func (n *interiorNode) byteSize() int {
	size := interiorHeaderSize
	for _, e := range n.entries {
		size += e.key.encodedLen() + 4
	}
	return size
}

// childFor returns the block id of the child subtree that may contain key.
func (n *interiorNode) childFor(key KeyValue) page.BlockID {
	child := n.first
	for _, e := range n.entries {
		if e.key.Compare(key) > 0 {
			break
		}
		child = e.child
	}
	return child
}

// insert adds (boundary, child) in sorted position.
func (n *interiorNode) insert(boundary KeyValue, child page.BlockID) {
	i := sort.Search(len(n.entries), func(i int) bool { return n.entries[i].key.Compare(boundary) >= 0 })
	n.entries = append(n.entries, interiorEntry{})
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = interiorEntry{key: boundary, child: child}
}

// split moves the entries after the median to a brand-new interior at
// newBlock (whose `first` is the median's child), returning the boundary
// key promoted to the parent (the median's own key).
func (n *interiorNode) split(newBlock page.BlockID) (*interiorNode, KeyValue) {
	mid := len(n.entries) / 2
	median := n.entries[mid]
	right := &interiorNode{
		block:   newBlock,
		first:   median.child,
		entries: append([]interiorEntry(nil), n.entries[mid+1:]...),
	}
	n.entries = n.entries[:mid]
	return right, median.key
}

func (n *interiorNode) marshal(profile []value.DataType) []byte {
	buf := make([]byte, page.Size)
	buf[0] = byte(kindInterior)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(n.entries)))
	binary.LittleEndian.PutUint32(buf[3:7], uint32(n.first))
	off := interiorHeaderSize
	for _, e := range n.entries {
		keyBytes := encodeKey(nil, e.key)
		copy(buf[off:], keyBytes)
		off += len(keyBytes)
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(e.child))
		off += 4
	}
	return buf
}

func unmarshalInterior(buf []byte, block page.BlockID, profile []value.DataType) (*interiorNode, error) {
	if nodeKind(buf[0]) != kindInterior {
		return nil, fmt.Errorf("btree: block %d is not an interior node", block)
	}
	n := &interiorNode{block: block}
	count := int(binary.LittleEndian.Uint16(buf[1:3]))
	n.first = page.BlockID(binary.LittleEndian.Uint32(buf[3:7]))
	off := interiorHeaderSize
	for i := 0; i < count; i++ {
		key, next, err := decodeKey(buf, off, profile)
		if err != nil {
			return nil, err
		}
		off = next
		child := page.BlockID(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		n.entries = append(n.entries, interiorEntry{key: key, child: child})
	}
	return n, nil
}

func blockKind(buf []byte) nodeKind { return nodeKind(buf[0]) }
