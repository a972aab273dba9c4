package preferences

// Deque is an ordered sequence holding at most a fixed number of items.
// Pushing to the front of a full deque evicts the back item.
type Deque[T any] struct {
	buf  []T
	head int
	size int
}

// NewDeque returns an empty deque with the given capacity (minimum 1).
func NewDeque[T any](capacity int) *Deque[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Deque[T]{buf: make([]T, capacity)}
}

// Len returns the number of stored items.
func (d *Deque[T]) Len() int { return d.size }

// Cap returns the maximum number of items.
func (d *Deque[T]) Cap() int { return len(d.buf) }

// PushFront inserts v at the front. When the deque is full the back item is
// removed first and returned with evicted set to true.
func (d *Deque[T]) PushFront(v T) (removed T, evicted bool) {
	if d.size == len(d.buf) {
		removed, evicted = d.PopBack()
	}
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.size++
	return removed, evicted
}

// PushBack appends v. It reports false, leaving the deque unchanged, when full.
func (d *Deque[T]) PushBack(v T) bool {
	if d.size == len(d.buf) {
		return false
	}
	d.buf[(d.head+d.size)%len(d.buf)] = v
	d.size++
	return true
}

// PopBack removes and returns the back item.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	i := (d.head + d.size - 1) % len(d.buf)
	v := d.buf[i]
	d.buf[i] = zero
	d.size--
	return v, true
}

// At returns the i-th item counting from the front.
func (d *Deque[T]) At(i int) T {
	if i < 0 || i >= d.size {
		panic("preferences: deque index out of range")
	}
	return d.buf[(d.head+i)%len(d.buf)]
}

// IndexFunc returns the position of the first item matching fn, or -1.
func (d *Deque[T]) IndexFunc(fn func(T) bool) int {
	for i := 0; i < d.size; i++ {
		if fn(d.At(i)) {
			return i
		}
	}
	return -1
}

// RemoveFunc drops every item matching fn, keeping the order of the rest,
// and returns how many were removed.
func (d *Deque[T]) RemoveFunc(fn func(T) bool) int {
	kept := d.Slice()
	d.Clear()

	removed := 0
	for _, v := range kept {
		if fn(v) {
			removed++
			continue
		}
		d.PushBack(v)
	}
	return removed
}

// Clear removes all items.
func (d *Deque[T]) Clear() {
	var zero T
	for i := range d.buf {
		d.buf[i] = zero
	}
	d.head = 0
	d.size = 0
}

// Slice returns the items front to back in a new slice.
func (d *Deque[T]) Slice() []T {
	out := make([]T, d.size)
	for i := range out {
		out[i] = d.At(i)
	}
	return out
}
