// Package btree implements the unique B+-tree-like secondary index layered
// on the page store (spec §4.5): leaf and interior nodes with split-on-full,
// equality lookup, and insertion with split propagation to the root.
package btree

import (
	"encoding/binary"
	"fmt"

	"sql5300/internal/page"
	"sql5300/internal/value"
)

// KeyValue is an ordered tuple of Values, one per column of an index's key
// profile (spec §3).
type KeyValue []value.Value

// Compare orders two KeyValues lexicographically over their components
// (spec §4.5's tie-break rule): equal-prefix components fall through to the
// next one, INT components compare numerically, TEXT byte-lexicographically.
func (k KeyValue) Compare(o KeyValue) int {
	for i := range k {
		if c := k[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether two KeyValues compare equal.
func (k KeyValue) Equal(o KeyValue) bool { return k.Compare(o) == 0 }

// encodedLen returns the number of bytes encodeKey(k) produces.
func (k KeyValue) encodedLen() int {
	n := 0
	for _, v := range k {
		switch v.Type {
		case value.Int:
			n += 4
		case value.Text:
			n += 2 + len(v.S)
		case value.Bool:
			n++
		}
	}
	return n
}

// encodeKey appends k's wire representation (one fixed- or length-prefixed
// field per component, in profile order) to buf.
func encodeKey(buf []byte, k KeyValue) []byte {
	for _, v := range k {
		switch v.Type {
		case value.Int:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(v.I))
			buf = append(buf, b[:]...)
		case value.Text:
			var lb [2]byte
			binary.LittleEndian.PutUint16(lb[:], uint16(len(v.S)))
			buf = append(buf, lb[:]...)
			buf = append(buf, v.S...)
		case value.Bool:
			if v.B {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// decodeKey reads one KeyValue matching profile out of data starting at
// offset off, returning the value and the offset just past it.
func decodeKey(data []byte, off int, profile []value.DataType) (KeyValue, int, error) {
	key := make(KeyValue, len(profile))
	for i, dt := range profile {
		switch dt {
		case value.Int:
			if off+4 > len(data) {
				return nil, 0, fmt.Errorf("btree: truncated key at field %d", i)
			}
			key[i] = value.NewInt(int32(binary.LittleEndian.Uint32(data[off : off+4])))
			off += 4
		case value.Text:
			if off+2 > len(data) {
				return nil, 0, fmt.Errorf("btree: truncated key length at field %d", i)
			}
			n := int(binary.LittleEndian.Uint16(data[off : off+2]))
			off += 2
			if off+n > len(data) {
				return nil, 0, fmt.Errorf("btree: truncated key text at field %d", i)
			}
			key[i] = value.NewText(string(data[off : off+n]))
			off += n
		case value.Bool:
			if off+1 > len(data) {
				return nil, 0, fmt.Errorf("btree: truncated key bool at field %d", i)
			}
			key[i] = value.NewBool(data[off] != 0)
			off++
		default:
			return nil, 0, fmt.Errorf("btree: unknown data type in key profile")
		}
	}
	return key, off, nil
}

// tkey builds a KeyValue from a dictionary keyed by column name, per the
// index's declared key_columns and key_profile, failing if a key column is
// missing or its value's type differs from the profile.
func tkey(keyColumns []string, profile []value.DataType, dict value.Row) (KeyValue, error) {
	key := make(KeyValue, len(keyColumns))
	for i, col := range keyColumns {
		v, ok := dict[col]
		if !ok {
			return nil, fmt.Errorf("btree: missing key column %s", col)
		}
		if v.Type != profile[i] {
			return nil, fmt.Errorf("btree: key column %s expects %s, got %s", col, profile[i], v.Type)
		}
		key[i] = v
	}
	return key, nil
}

// Insertion is the sentinel spec §9's design notes describe as
// Option<(BlockId, KeyValue)>: non-nil when a child split and the parent (or
// the tree itself, if the split reached the root) must absorb a new
// (boundary key, new block) pair.
type Insertion struct {
	Block    page.BlockID
	Boundary KeyValue
}
