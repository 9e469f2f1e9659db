package value

import (
	"encoding/binary"
	"fmt"
)

// Marshal concatenates a row's fields in column declaration order, per
// spec §4.3:
//
//	INT:  4 bytes, little-endian signed.
//	TEXT: 2-byte little-endian length N, then N ASCII bytes.
//
// columns gives the declaration order; attrs gives each column's type. Both
// slices must be the same length and index-aligned.
func Marshal(row Row, columns []string, attrs []ColumnAttribute) ([]byte, error) {
	if len(columns) != len(attrs) {
		return nil, fmt.Errorf("value: columns/attrs length mismatch (%d != %d)", len(columns), len(attrs))
	}
	buf := make([]byte, 0, 16*len(columns))
	for i, col := range columns {
		v, ok := row[col]
		if !ok {
			return nil, fmt.Errorf("value: row missing column %q", col)
		}
		switch attrs[i].DataType {
		case Int:
			if v.Type != Int {
				return nil, fmt.Errorf("value: column %q expects INT, got %s", col, v.Type)
			}
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(v.I))
			buf = append(buf, b[:]...)
		case Text:
			if v.Type != Text {
				return nil, fmt.Errorf("value: column %q expects TEXT, got %s", col, v.Type)
			}
			if len(v.S) > 0xFFFF {
				return nil, fmt.Errorf("value: column %q text too long (%d bytes)", col, len(v.S))
			}
			var n [2]byte
			binary.LittleEndian.PutUint16(n[:], uint16(len(v.S)))
			buf = append(buf, n[:]...)
			buf = append(buf, v.S...)
		default:
			return nil, fmt.Errorf("value: column %q has unsupported on-disk type %s", col, attrs[i].DataType)
		}
	}
	return buf, nil
}

// Unmarshal reverses Marshal, reading fields in the same declared order and
// advancing a running offset.
func Unmarshal(data []byte, columns []string, attrs []ColumnAttribute) (Row, error) {
	if len(columns) != len(attrs) {
		return nil, fmt.Errorf("value: columns/attrs length mismatch (%d != %d)", len(columns), len(attrs))
	}
	row := make(Row, len(columns))
	offset := 0
	for i, col := range columns {
		switch attrs[i].DataType {
		case Int:
			if offset+4 > len(data) {
				return nil, fmt.Errorf("value: truncated record reading column %q", col)
			}
			n := int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
			row[col] = NewInt(n)
			offset += 4
		case Text:
			if offset+2 > len(data) {
				return nil, fmt.Errorf("value: truncated record reading column %q length", col)
			}
			n := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
			offset += 2
			if offset+n > len(data) {
				return nil, fmt.Errorf("value: truncated record reading column %q text", col)
			}
			row[col] = NewText(string(data[offset : offset+n]))
			offset += n
		default:
			return nil, fmt.Errorf("value: column %q has unsupported on-disk type %s", col, attrs[i].DataType)
		}
	}
	return row, nil
}
