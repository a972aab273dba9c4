package preferences

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequePushFrontEvictsBack(t *testing.T) {
	d := NewDeque[int](3)

	for i := 1; i <= 3; i++ {
		_, evicted := d.PushFront(i)
		require.False(t, evicted)
	}
	require.Equal(t, []int{3, 2, 1}, d.Slice())

	removed, evicted := d.PushFront(4)
	require.True(t, evicted)
	require.Equal(t, 1, removed)
	require.Equal(t, []int{4, 3, 2}, d.Slice())
	require.Equal(t, 3, d.Len())
}

func TestDequePushBackWhenFull(t *testing.T) {
	d := NewDeque[string](2)
	require.True(t, d.PushBack("a"))
	require.True(t, d.PushBack("b"))
	require.False(t, d.PushBack("c"))
	require.Equal(t, []string{"a", "b"}, d.Slice())
}

func TestDequeRemoveFunc(t *testing.T) {
	d := NewDeque[int](5)
	for _, v := range []int{1, 2, 3, 2, 5} {
		d.PushBack(v)
	}

	require.Equal(t, 2, d.RemoveFunc(func(v int) bool { return v == 2 }))
	require.Equal(t, []int{1, 3, 5}, d.Slice())
	require.Zero(t, d.RemoveFunc(func(v int) bool { return v == 42 }))
	require.Equal(t, 2, d.IndexFunc(func(v int) bool { return v == 5 }))
	require.Equal(t, -1, d.IndexFunc(func(v int) bool { return v == 2 }))
}

func TestDequeWrapAround(t *testing.T) {
	d := NewDeque[int](3)
	d.PushBack(1)
	d.PushBack(2)
	d.PopBack()
	d.PushFront(0)
	d.PushFront(-1)

	require.Equal(t, []int{-1, 0, 1}, d.Slice())
	require.Equal(t, 0, d.At(1))
	require.Panics(t, func() { d.At(3) })

	d.Clear()
	require.Zero(t, d.Len())
	require.Empty(t, d.Slice())
	_, ok := d.PopBack()
	require.False(t, ok)
}

func TestNewDequeMinimumCapacity(t *testing.T) {
	require.Equal(t, 1, NewDeque[int](0).Cap())
}
