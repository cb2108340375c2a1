package buffer

const nilFrame = -1

var _ IReplacer = &LruReplacer{}

// LruReplacer is a doubly linked list of frame indexes threaded through two arrays, so touching and removing a frame
// never scans. head is the most recently used frame and tail the least recently used one.
type LruReplacer struct {
	prev    []int
	next    []int
	tracked []bool
	head    int
	tail    int
	size    int
}

func NewLruReplacer(poolSize int) *LruReplacer {
	l := &LruReplacer{
		prev:    make([]int, poolSize),
		next:    make([]int, poolSize),
		tracked: make([]bool, poolSize),
		head:    nilFrame,
		tail:    nilFrame,
	}
	for i := range l.prev {
		l.prev[i], l.next[i] = nilFrame, nilFrame
	}
	return l
}

func (l *LruReplacer) Touch(frameIdx int) {
	if l.tracked[frameIdx] {
		if l.head == frameIdx {
			return
		}
		l.unlink(frameIdx)
	}

	l.prev[frameIdx] = nilFrame
	l.next[frameIdx] = l.head
	if l.head != nilFrame {
		l.prev[l.head] = frameIdx
	}
	l.head = frameIdx
	if l.tail == nilFrame {
		l.tail = frameIdx
	}
	l.tracked[frameIdx] = true
	l.size++
}

func (l *LruReplacer) Remove(frameIdx int) {
	if l.tracked[frameIdx] {
		l.unlink(frameIdx)
	}
}

// ChooseVictim walks from the least recently used frame toward the most recently used one.
func (l *LruReplacer) ChooseVictim(canEvict func(frameIdx int) bool) (int, error) {
	for curr := l.tail; curr != nilFrame; curr = l.prev[curr] {
		if canEvict(curr) {
			l.unlink(curr)
			return curr, nil
		}
	}
	return nilFrame, ErrNoVictim
}

func (l *LruReplacer) Len() int {
	return l.size
}

// order returns frames from most to least recently used.
func (l *LruReplacer) order() []int {
	res := make([]int, 0, l.size)
	for curr := l.head; curr != nilFrame; curr = l.next[curr] {
		res = append(res, curr)
	}
	return res
}

func (l *LruReplacer) unlink(frameIdx int) {
	p, n := l.prev[frameIdx], l.next[frameIdx]
	if p != nilFrame {
		l.next[p] = n
	} else {
		l.head = n
	}
	if n != nilFrame {
		l.prev[n] = p
	} else {
		l.tail = p
	}

	l.prev[frameIdx], l.next[frameIdx] = nilFrame, nilFrame
	l.tracked[frameIdx] = false
	l.size--
}
