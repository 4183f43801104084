// Package queue implements the per-zone ordered play queue: item list,
// current-index cursor, shuffle order and repeat policy. It is a pure data
// structure; authority enforcement belongs to the playback coordinator.
package queue

import (
	"math/rand"
	"sync"

	"github.com/audiozone/zonecast/internal/models"
)

// RepeatMode controls boundary behavior when stepping the cursor.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// Queue is one zone's play queue.
type Queue struct {
	mu        sync.Mutex
	items     []models.QueueItem
	index     int
	shuffle   bool
	order     []int // permutation of item indices when shuffle is on
	repeat    RepeatMode
	authority models.QueueAuthority
}

// New returns an empty queue under local authority.
func New() *Queue {
	return &Queue{index: -1, authority: models.AuthorityLocal}
}

// SetItems replaces the queue contents and cursor. The item list is copied;
// the shuffle permutation is regenerated.
func (q *Queue) SetItems(items []models.QueueItem, index int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]models.QueueItem(nil), items...)
	if len(q.items) == 0 {
		q.index = -1
	} else if index < 0 || index >= len(q.items) {
		q.index = 0
	} else {
		q.index = index
	}
	q.regenOrderLocked()
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy of the queued items.
func (q *Queue) Items() []models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.QueueItem(nil), q.items...)
}

// Current returns the item under the cursor, or nil.
func (q *Queue) Current() *models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.index < 0 || q.index >= len(q.items) {
		return nil
	}
	item := q.items[q.index]
	return &item
}

// CurrentIndex returns the cursor position, -1 when empty.
func (q *Queue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index
}

// SetCurrentIndex moves the cursor. Out-of-range indices are clamped into
// the queue, or set to -1 when the queue is empty.
func (q *Queue) SetCurrentIndex(index int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		q.index = -1
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(q.items) {
		index = len(q.items) - 1
	}
	q.index = index
}

// SetShuffle toggles shuffle and regenerates the permutation.
func (q *Queue) SetShuffle(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuffle = on
	q.regenOrderLocked()
}

// Shuffle reports whether shuffle is enabled.
func (q *Queue) Shuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffle
}

// SetRepeat sets the repeat mode.
func (q *Queue) SetRepeat(mode RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = mode
}

// Repeat returns the repeat mode.
func (q *Queue) Repeat() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

// Authority returns who currently owns the queue cursor.
func (q *Queue) Authority() models.QueueAuthority {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.authority
}

// SetAuthority hands the queue cursor to a new owner.
func (q *Queue) SetAuthority(a models.QueueAuthority) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.authority = a
}

// Step moves the cursor by delta play positions and returns the new item
// index, or -1 when the boundary is reached without wrapping. The cursor is
// unchanged on -1. Repeat-one keeps the index, repeat-all wraps. With shuffle
// enabled the step walks the shuffle permutation, not the item order.
func (q *Queue) Step(delta int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := q.peekLocked(delta)
	if next < 0 {
		return -1
	}
	q.index = next
	return next
}

// NextIndex returns the item index a Step(+1) would land on, or -1, without
// moving the cursor.
func (q *Queue) NextIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peekLocked(1)
}

func (q *Queue) peekLocked(delta int) int {
	n := len(q.items)
	if n == 0 || q.index < 0 {
		return -1
	}
	if q.repeat == RepeatOne {
		return q.index
	}

	// Walk positions in play order: the shuffle permutation when enabled,
	// the item list otherwise.
	pos := q.index
	if q.shuffle {
		pos = q.orderPosLocked(q.index)
	}
	pos += delta

	switch {
	case pos >= 0 && pos < n:
	case q.repeat == RepeatAll:
		pos = ((pos % n) + n) % n
	default:
		return -1
	}

	if q.shuffle {
		return q.order[pos]
	}
	return pos
}

// orderPosLocked finds the position of an item index inside the shuffle
// permutation.
func (q *Queue) orderPosLocked(itemIndex int) int {
	for pos, idx := range q.order {
		if idx == itemIndex {
			return pos
		}
	}
	return 0
}

func (q *Queue) regenOrderLocked() {
	if !q.shuffle || len(q.items) == 0 {
		q.order = nil
		return
	}
	q.order = rand.Perm(len(q.items))
}

// Snapshot is a deep copy of the queue used by alert save/restore.
type Snapshot struct {
	Items     []models.QueueItem
	Index     int
	Shuffle   bool
	Order     []int
	Repeat    RepeatMode
	Authority models.QueueAuthority
}

// Snapshot captures the full queue state.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		Items:     append([]models.QueueItem(nil), q.items...),
		Index:     q.index,
		Shuffle:   q.shuffle,
		Order:     append([]int(nil), q.order...),
		Repeat:    q.repeat,
		Authority: q.authority,
	}
}

// Restore replaces the queue state with a previously captured snapshot.
func (q *Queue) Restore(s Snapshot) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]models.QueueItem(nil), s.Items...)
	q.index = s.Index
	q.shuffle = s.Shuffle
	q.order = append([]int(nil), s.Order...)
	q.repeat = s.Repeat
	q.authority = s.Authority
}
