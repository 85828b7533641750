package ringbuffer

// RingBuffer is a fixed capacity FIFO queue. It is not safe for concurrent use.
type RingBuffer[T any] struct {
	buf  []T
	head int
	tail int
	size int
}

// New creates a RingBuffer with the given capacity.
// A default capacity of 1 is used if the given value is zero.
func New[T any](capacity uint) *RingBuffer[T] {
	return &RingBuffer[T]{
		buf: make([]T, max(1, capacity)),
	}
}

// Size returns the number of elements currently in the buffer.
func (r *RingBuffer[T]) Size() int {
	return r.size
}

// IsFull returns true if the queue is full.
func (r *RingBuffer[T]) IsFull() bool {
	return r.size == cap(r.buf)
}

// Push adds the provided item to the buffer. It returns false if the queue is full and a push cannot be done.
func (r *RingBuffer[T]) Push(item T) bool {
	if r.size == cap(r.buf) {
		return false
	}

	r.buf[r.tail] = item
	r.tail = (r.tail + 1) % cap(r.buf)
	r.size++
	return true
}

// PushEvict adds the provided item to the buffer, evicting the oldest item first if the buffer is full.
// The evicted item, if any, is returned alongside true.
func (r *RingBuffer[T]) PushEvict(item T) (T, bool) {
	var evicted T
	var ok bool
	if r.IsFull() {
		evicted, ok = r.Pop()
	}
	r.Push(item)
	return evicted, ok
}

// Pop removes and returns the oldest item. If empty, it returns (nil[T], false).
func (r *RingBuffer[T]) Pop() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}

	item := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % cap(r.buf)
	r.size--
	return item, true
}

// Last returns a copy of the n newest items ordered from oldest to newest.
// All items are returned if n is larger than the current size.
func (r *RingBuffer[T]) Last(n int) []T {
	n = min(max(n, 0), r.size)
	out := make([]T, 0, n)
	start := r.size - n
	for i := start; i < r.size; i++ {
		out = append(out, r.buf[(r.head+i)%cap(r.buf)])
	}
	return out
}
