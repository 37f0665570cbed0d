package sandbox

import (
	"time"

	"github.com/dop251/goja"
)

type pendingTimer struct {
	id       int64
	seq      int64
	due      time.Time
	interval time.Duration
	repeat   bool
	fn       goja.Callable
	args     []goja.Value
}

// timerQueue orders pending callbacks by due time, then by scheduling order.
type timerQueue struct {
	lastID  int64
	lastSeq int64
	pending []*pendingTimer
}

func (q *timerQueue) add(fn goja.Callable, args []goja.Value, delay time.Duration, repeat bool) int64 {
	q.lastID++
	q.lastSeq++
	q.pending = append(q.pending, &pendingTimer{
		id:       q.lastID,
		seq:      q.lastSeq,
		due:      time.Now().Add(delay),
		interval: delay,
		repeat:   repeat,
		fn:       fn,
		args:     args,
	})
	return q.lastID
}

func (q *timerQueue) remove(id int64) {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *timerQueue) reschedule(t *pendingTimer) {
	q.lastSeq++
	t.seq = q.lastSeq
	t.due = time.Now().Add(t.interval)
	q.pending = append(q.pending, t)
}

func (q *timerQueue) next() (*pendingTimer, bool) {
	if len(q.pending) == 0 {
		return nil, false
	}
	best := 0
	for i, t := range q.pending[1:] {
		cur := q.pending[best]
		if t.due.Before(cur.due) || (t.due.Equal(cur.due) && t.seq < cur.seq) {
			best = i + 1
		}
	}
	t := q.pending[best]
	q.pending = append(q.pending[:best], q.pending[best+1:]...)
	return t, true
}
