package history

import "github.com/hamed0406/sitewatch/internal/domain"

// ring is a fixed-capacity buffer of outcomes. head is the index of the
// oldest entry; once full, push overwrites it.
type ring struct {
	buf  []domain.Outcome
	head int
	size int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]domain.Outcome, capacity)}
}

func (r *ring) capacity() int { return len(r.buf) }

func (r *ring) push(o domain.Outcome) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = o
		r.size++
		return
	}
	r.buf[r.head] = o
	r.head = (r.head + 1) % len(r.buf)
}

// items returns a copy, oldest first.
func (r *ring) items() []domain.Outcome {
	out := make([]domain.Outcome, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// resize changes capacity, keeping the newest entries.
func (r *ring) resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(r.buf) {
		return
	}
	items := r.items()
	if len(items) > capacity {
		items = items[len(items)-capacity:]
	}
	r.buf = make([]domain.Outcome, capacity)
	copy(r.buf, items)
	r.head = 0
	r.size = len(items)
}
