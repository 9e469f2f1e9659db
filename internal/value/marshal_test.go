package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	columns := []string{"a", "b"}
	attrs := []ColumnAttribute{{DataType: Int}, {DataType: Text}}
	row := Row{"a": NewInt(12), "b": NewText("Hello!")}

	data, err := Marshal(row, columns, attrs)
	require.NoError(t, err)

	got, err := Unmarshal(data, columns, attrs)
	require.NoError(t, err)
	require.True(t, got["a"].Equal(row["a"]))
	require.True(t, got["b"].Equal(row["b"]))
}

func TestMarshalEmptyText(t *testing.T) {
	columns := []string{"b"}
	attrs := []ColumnAttribute{{DataType: Text}}
	row := Row{"b": NewText("")}

	data, err := Marshal(row, columns, attrs)
	require.NoError(t, err)
	require.Len(t, data, 2)

	got, err := Unmarshal(data, columns, attrs)
	require.NoError(t, err)
	require.Equal(t, "", got["b"].S)
}

func TestMarshalMissingColumnFails(t *testing.T) {
	columns := []string{"a"}
	attrs := []ColumnAttribute{{DataType: Int}}
	_, err := Marshal(Row{}, columns, attrs)
	require.Error(t, err)
}

func TestMarshalWrongTypeFails(t *testing.T) {
	columns := []string{"a"}
	attrs := []ColumnAttribute{{DataType: Int}}
	_, err := Marshal(Row{"a": NewText("nope")}, columns, attrs)
	require.Error(t, err)
}
