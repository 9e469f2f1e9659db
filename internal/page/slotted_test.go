package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T) *SlottedPage {
	t.Helper()
	sp, err := New(make([]byte, Size), BlockID(1), true)
	require.NoError(t, err)
	return sp
}

func TestAddGetRoundTrip(t *testing.T) {
	sp := newTestPage(t)
	id, err := sp.Add([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, RecordID(1), id)

	data, ok := sp.Get(id)
	require.True(t, ok)
	require.Equal(t, "hello", string(data))
}

func TestGetDeletedReturnsFalse(t *testing.T) {
	sp := newTestPage(t)
	id, err := sp.Add([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, sp.Del(id))

	_, ok := sp.Get(id)
	require.False(t, ok)
}

func TestDelLeavesNumRecordsUnchanged(t *testing.T) {
	sp := newTestPage(t)
	id, err := sp.Add([]byte("only record"))
	require.NoError(t, err)
	require.NoError(t, sp.Del(id))
	require.Equal(t, uint16(1), sp.numRecords)
	require.Empty(t, sp.Ids())
}

func TestPutShrinkInPlace(t *testing.T) {
	sp := newTestPage(t)
	id, err := sp.Add([]byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, sp.Put(id, []byte("ab")))

	data, ok := sp.Get(id)
	require.True(t, ok)
	require.Equal(t, "ab", string(data))
}

func TestPutGrowCompacts(t *testing.T) {
	sp := newTestPage(t)
	id1, err := sp.Add([]byte("aa"))
	require.NoError(t, err)
	id2, err := sp.Add([]byte("bb"))
	require.NoError(t, err)

	require.NoError(t, sp.Put(id1, []byte("aaaaaaaaaa")))

	d1, ok := sp.Get(id1)
	require.True(t, ok)
	require.Equal(t, "aaaaaaaaaa", string(d1))

	d2, ok := sp.Get(id2)
	require.True(t, ok)
	require.Equal(t, "bb", string(d2))
}

func TestAddFailsWhenFull(t *testing.T) {
	sp := newTestPage(t)
	big := make([]byte, Size)
	_, err := sp.Add(big)
	require.ErrorIs(t, err, ErrNoRoom)
}

func TestIdsAscendingExcludesTombstones(t *testing.T) {
	sp := newTestPage(t)
	id1, _ := sp.Add([]byte("a"))
	id2, _ := sp.Add([]byte("b"))
	id3, _ := sp.Add([]byte("c"))
	require.NoError(t, sp.Del(id2))

	require.Equal(t, []RecordID{id1, id3}, sp.Ids())
}

func TestSlottedPageInvariant(t *testing.T) {
	sp := newTestPage(t)
	for i := 0; i < 20; i++ {
		_, err := sp.Add([]byte("record-payload"))
		require.NoError(t, err)
	}
	var used int
	for _, id := range sp.Ids() {
		data, ok := sp.Get(id)
		require.True(t, ok)
		used += len(data)
	}
	require.LessOrEqual(t, used+4*int(sp.numRecords)+2, int(sp.endFree)+1)
	require.LessOrEqual(t, int(sp.endFree)+1, Size)
}

func TestReopenExistingPage(t *testing.T) {
	buf := make([]byte, Size)
	sp, err := New(buf, BlockID(2), true)
	require.NoError(t, err)
	_, err = sp.Add([]byte("persisted"))
	require.NoError(t, err)

	reopened, err := New(buf, BlockID(2), false)
	require.NoError(t, err)
	data, ok := reopened.Get(RecordID(1))
	require.True(t, ok)
	require.Equal(t, "persisted", string(data))
}
