package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/aptaskd/internal/handle"
)

func newNoopHandle(id uint64) *handle.Handle {
	return handle.New(id, "dev", []any{1}, "u", nil)
}

func TestFIFO_AddAssignsMonotonicIDs(t *testing.T) {
	f := New(2)
	a := f.Add(newNoopHandle)
	b := f.Add(newNoopHandle)
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)
	assert.Equal(t, 2, f.Len())
}

func TestFIFO_ActiveWindowIsBounded(t *testing.T) {
	f := New(2)
	ids := []uint64{f.Add(newNoopHandle), f.Add(newNoopHandle), f.Add(newNoopHandle)}

	active := f.ActiveIDs()
	assert.Equal(t, []uint64{ids[0], ids[1]}, active)
	assert.Equal(t, ids, f.AllIDs())
}

func TestFIFO_RemoveByID(t *testing.T) {
	f := New(3)
	a := f.Add(newNoopHandle)
	b := f.Add(newNoopHandle)

	h, ok := f.Remove(a)
	require.True(t, ok)
	assert.Equal(t, a, h.ID)
	assert.Equal(t, []uint64{b}, f.AllIDs())

	_, ok = f.Get(a)
	assert.False(t, ok)
}

func TestFIFO_RemoveHead(t *testing.T) {
	f := New(3)
	a := f.Add(newNoopHandle)
	b := f.Add(newNoopHandle)

	h, ok := f.RemoveHead()
	require.True(t, ok)
	assert.Equal(t, a, h.ID)
	assert.Equal(t, []uint64{b}, f.AllIDs())
}

func TestFIFO_RemoveHeadOnEmptyReturnsFalse(t *testing.T) {
	f := New(1)
	_, ok := f.RemoveHead()
	assert.False(t, ok)
}

func TestFIFO_IterPreservesInsertionOrder(t *testing.T) {
	f := New(5)
	ids := []uint64{f.Add(newNoopHandle), f.Add(newNoopHandle), f.Add(newNoopHandle)}
	handles := f.Iter()
	require.Len(t, handles, 3)
	for i, h := range handles {
		assert.Equal(t, ids[i], h.ID)
	}
}

func TestFIFO_Position(t *testing.T) {
	f := New(5)
	a := f.Add(newNoopHandle)
	b := f.Add(newNoopHandle)
	assert.Equal(t, 0, f.Position(a))
	assert.Equal(t, 1, f.Position(b))
	assert.Equal(t, -1, f.Position(999))
}
