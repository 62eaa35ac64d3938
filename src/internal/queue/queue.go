package queue

import (
	"errors"

	"pdrelay/src/internal/core"
)

// ErrEmpty is returned by Pop on an empty queue. The relay only drains
// while entries remain, so seeing it outside tests indicates a broken
// drain loop.
var ErrEmpty = errors.New("queue is empty")

// Queue is a FIFO buffer of enriched entries awaiting transmission. It
// decouples fetch pacing from send pacing, not fetching from sending:
// the relay owns it exclusively on a single control path, so it is not
// synchronized.
type Queue struct {
	entries []core.Entry
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends an entry to the tail.
func (q *Queue) Push(entry core.Entry) {
	q.entries = append(q.entries, entry)
}

// Pop removes and returns the head entry.
func (q *Queue) Pop() (core.Entry, error) {
	if len(q.entries) == 0 {
		return nil, ErrEmpty
	}
	head := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return head, nil
}

// IsEmpty reports whether the queue holds no entries.
func (q *Queue) IsEmpty() bool {
	return len(q.entries) == 0
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
