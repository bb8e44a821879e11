package influx

import (
	"sync"
	"time"
)

// Writer is the sink side of Client, separated for testing.
type Writer interface {
	Write(points []Point) error
}

// Buffer accumulates points and flushes them as a batch once either the size
// threshold or the flush interval is reached. It replaces ad hoc package
// level buffers with an owned component that has an explicit Flush.
type Buffer struct {
	mu        sync.Mutex
	writer    Writer
	points    []Point
	maxPoints int
	interval  time.Duration
	lastFlush time.Time
	now       func() time.Time
}

func NewBuffer(writer Writer, maxPoints int, interval time.Duration) *Buffer {
	if maxPoints <= 0 {
		maxPoints = 1000
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Buffer{
		writer:    writer,
		maxPoints: maxPoints,
		interval:  interval,
		lastFlush: time.Now(),
		now:       time.Now,
	}
}

// Add appends a point and flushes when the buffer is full or the flush
// interval has elapsed.
func (b *Buffer) Add(point Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(b.points, point)
	if len(b.points) >= b.maxPoints || b.now().Sub(b.lastFlush) >= b.interval {
		return b.flushLocked()
	}
	return nil
}

// Flush writes out any buffered points immediately.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

// Len reports the number of buffered points.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

func (b *Buffer) flushLocked() error {
	if len(b.points) == 0 {
		b.lastFlush = b.now()
		return nil
	}
	points := b.points
	b.points = nil
	b.lastFlush = b.now()
	return b.writer.Write(points)
}
