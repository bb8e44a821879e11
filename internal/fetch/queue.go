package fetch

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// Fetcher issues one upstream request for a (group, chunk) pair. Transient
// conditions are signalled with ErrNotReady or *RowLimitError; any other
// error is unrecoverable for that request.
type Fetcher interface {
	Fetch(ctx context.Context, req timewindow.Request) ([]Record, error)
}

// Options tune the drain loop.
type Options struct {
	// BaseDelay is the first not-ready delay; the wait before the next
	// request grows linearly with the number of not-ready responses seen so
	// far. Defaults to 1s.
	BaseDelay time.Duration

	// MaxAttempts bounds how often a single request may report not-ready
	// before it is dropped. 0 means retry forever, which stalls the whole
	// drain on a permanently stuck upstream; callers should set a bound.
	MaxAttempts int

	// MaxSplitDepth bounds the recursive chunk splitting on row-limit
	// errors. Defaults to 1: split once, and drop a sub-chunk that still
	// exceeds the limit.
	MaxSplitDepth int

	// Wait is slept after each successful request while more are pending,
	// to go easy on rate-limited upstreams. Zero means no pause.
	Wait time.Duration

	Logger *slog.Logger
}

// Queue drains an ordered list of chunked requests against a Fetcher.
type Queue struct {
	fetcher Fetcher
	opts    Options
	pending []item

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

type item struct {
	req      timewindow.Request
	attempts int
	depth    int
}

// NewQueue builds a queue over the given requests in order.
func NewQueue(fetcher Fetcher, requests []timewindow.Request, opts Options) *Queue {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxSplitDepth <= 0 {
		opts.MaxSplitDepth = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	pending := make([]item, len(requests))
	for i, req := range requests {
		pending[i] = item{req: req}
	}
	return &Queue{
		fetcher: fetcher,
		opts:    opts,
		pending: pending,
		sleep:   sleepContext,
	}
}

// Drain issues every pending request until each has succeeded or been given
// up on. Results come back in completion order; dropped lists the requests
// whose data was lost to a persistent row limit or exhausted retries. The
// only returned error is context cancellation, checked between requests so
// an in-flight request is never aborted midway.
func (q *Queue) Drain(ctx context.Context) ([]Result, []timewindow.Request, error) {
	var (
		results  []Result
		dropped  []timewindow.Request
		notReady int
	)

	for len(q.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return results, dropped, err
		}
		current := q.pending[0]
		q.pending = q.pending[1:]

		records, err := q.fetcher.Fetch(ctx, current.req)
		switch {
		case err == nil:
			results = append(results, Result{Request: current.req, Records: records})
			if q.opts.Wait > 0 && len(q.pending) > 0 {
				if err := q.sleep(ctx, q.opts.Wait); err != nil {
					return results, dropped, err
				}
			}

		case errors.Is(err, ErrNotReady):
			current.attempts++
			notReady++
			if q.opts.MaxAttempts > 0 && current.attempts >= q.opts.MaxAttempts {
				q.opts.Logger.Warn("dropping chunk after repeated not-ready responses",
					"group", current.req.Group,
					"start", current.req.Chunk.Start,
					"end", current.req.Chunk.End,
					"attempts", current.attempts)
				dropped = append(dropped, current.req)
				continue
			}
			// Back of the queue, so retries round-robin across groups and
			// chunks instead of hammering the same one.
			q.pending = append(q.pending, current)
			delay := q.opts.BaseDelay * time.Duration(notReady)
			q.opts.Logger.Debug("upstream not ready, requeueing chunk",
				"group", current.req.Group,
				"start", current.req.Chunk.Start,
				"delay", delay)
			if err := q.sleep(ctx, delay); err != nil {
				return results, dropped, err
			}

		default:
			var rowLimit *RowLimitError
			if errors.As(err, &rowLimit) && current.depth < q.opts.MaxSplitDepth {
				subs := splitRequest(current.req, rowLimit)
				q.opts.Logger.Warn("too many rows, splitting chunk",
					"group", current.req.Group,
					"rows", rowLimit.Rows,
					"max", rowLimit.Max,
					"chunks", len(subs))
				items := make([]item, len(subs))
				for i, sub := range subs {
					items[i] = item{req: sub, depth: current.depth + 1}
				}
				// Sub-chunks go to the front so the group's chunks stay in
				// chronological order.
				q.pending = append(items, q.pending...)
				continue
			}
			if rowLimit != nil {
				q.opts.Logger.Error("too many rows after splitting, dropping chunk data",
					"group", current.req.Group,
					"start", current.req.Chunk.Start,
					"end", current.req.Chunk.End,
					"rows", rowLimit.Rows,
					"max", rowLimit.Max)
				dropped = append(dropped, current.req)
				continue
			}
			q.opts.Logger.Error("request failed, dropping chunk data",
				"group", current.req.Group,
				"start", current.req.Chunk.Start,
				"end", current.req.Chunk.End,
				"error", err)
			dropped = append(dropped, current.req)
		}
	}
	return results, dropped, nil
}

// splitRequest divides a chunk into ceil(rows/max*2) equal sub-chunks. The
// 2x factor over-splits on purpose to leave headroom for uneven row density.
func splitRequest(req timewindow.Request, rowLimit *RowLimitError) []timewindow.Request {
	count := int(math.Ceil(float64(rowLimit.Rows) / float64(rowLimit.Max) * 2))
	if count < 2 {
		count = 2
	}
	total := req.Chunk.End.Sub(req.Chunk.Start)
	size := time.Duration(math.Ceil(float64(total) / float64(count)))

	var subs []timewindow.Request
	for cursor := req.Chunk.Start; cursor.Before(req.Chunk.End); cursor = cursor.Add(size) {
		end := cursor.Add(size)
		if end.After(req.Chunk.End) {
			end = req.Chunk.End
		}
		subs = append(subs, timewindow.Request{
			Group: req.Group,
			Chunk: timewindow.Chunk{Start: cursor, End: end},
		})
	}
	return subs
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
