package buffer

import "github.com/pkg/errors"

var ErrNoVictim = errors.New("no frame can be evicted")

// IReplacer orders frames for eviction. Implementations are not safe for concurrent use, the buffer pool calls
// them while holding its own lock.
type IReplacer interface {
	// Touch marks the frame as the most recently used one, adding it if it is not tracked yet.
	Touch(frameIdx int)

	// Remove stops tracking the frame. It is a no-op for untracked frames.
	Remove(frameIdx int)

	// ChooseVictim returns the first frame in eviction order for which canEvict returns true and stops tracking it.
	ChooseVictim(canEvict func(frameIdx int) bool) (int, error)

	Len() int
}
