package plagiarism

// deque is a ring buffer of fingerprints used by the winnowing window.
// It grows on demand, so capacity is only a hint.
type deque struct {
	buf   []Fingerprint
	head  int
	count int
}

func newDeque(capacity int) *deque {
	if capacity < 1 {
		capacity = 1
	}
	return &deque{buf: make([]Fingerprint, capacity)}
}

func (d *deque) Len() int {
	return d.count
}

func (d *deque) PushBack(f Fingerprint) {
	if d.count == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.count)%len(d.buf)] = f
	d.count++
}

func (d *deque) PopBack() (Fingerprint, bool) {
	if d.count == 0 {
		return Fingerprint{}, false
	}
	d.count--
	return d.buf[(d.head+d.count)%len(d.buf)], true
}

func (d *deque) PopFront() (Fingerprint, bool) {
	if d.count == 0 {
		return Fingerprint{}, false
	}
	f := d.buf[d.head]
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return f, true
}

func (d *deque) Front() (Fingerprint, bool) {
	if d.count == 0 {
		return Fingerprint{}, false
	}
	return d.buf[d.head], true
}

func (d *deque) Back() (Fingerprint, bool) {
	if d.count == 0 {
		return Fingerprint{}, false
	}
	return d.buf[(d.head+d.count-1)%len(d.buf)], true
}

func (d *deque) grow() {
	buf := make([]Fingerprint, len(d.buf)*2)
	for i := 0; i < d.count; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}
