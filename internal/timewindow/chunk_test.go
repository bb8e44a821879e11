package timewindow

import (
	"testing"
	"time"
)

func window(start time.Time, length time.Duration) Window {
	return Window{Start: start, End: start.Add(length), Seconds: int64(length / time.Second)}
}

func TestChunksRegularCadenceWithShortTail(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	chunks, err := Chunks(window(t0, 10000*time.Second), 3000*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:3] {
		if chunk.End.Sub(chunk.Start) != 3000*time.Second {
			t.Fatalf("chunk %d has length %v", i, chunk.End.Sub(chunk.Start))
		}
	}
	last := chunks[3]
	if last.End.Sub(last.Start) != 1000*time.Second {
		t.Fatalf("last chunk has length %v", last.End.Sub(last.Start))
	}
	if !last.End.Equal(t0.Add(10000 * time.Second)) {
		t.Fatalf("last chunk must be clipped to window end, got %v", last.End)
	}
}

func TestChunksRoundTrip(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	w := window(t0, 36*time.Hour)
	chunks, err := Chunks(w, 7*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cursor := w.Start
	for i, chunk := range chunks {
		if !chunk.Start.Equal(cursor) {
			t.Fatalf("gap or overlap before chunk %d: expected %v, got %v", i, cursor, chunk.Start)
		}
		if chunk.End.Sub(chunk.Start) > 7*time.Hour {
			t.Fatalf("chunk %d exceeds max length", i)
		}
		cursor = chunk.End
	}
	if !cursor.Equal(w.End) {
		t.Fatalf("chunks do not reconstruct the window, ended at %v", cursor)
	}
}

func TestChunksSingleWhenWindowFits(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	chunks, err := Chunks(window(t0, time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
}

func TestChunksNonPositiveMax(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Chunks(window(t0, time.Hour), 0); err == nil {
		t.Fatalf("expected error for zero chunk length")
	}
	if _, err := Chunks(window(t0, time.Hour), -time.Second); err == nil {
		t.Fatalf("expected error for negative chunk length")
	}
}

func TestRequestsOrdering(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	requests, err := Requests([]string{"b", "a"}, window(t0, 2*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(requests) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(requests))
	}
	// Groups stay in caller order, chunks chronological within each group.
	if requests[0].Group != "b" || requests[1].Group != "b" || requests[2].Group != "a" {
		t.Fatalf("unexpected group order: %+v", requests)
	}
	if !requests[1].Chunk.Start.After(requests[0].Chunk.Start) {
		t.Fatalf("chunks not chronological within group")
	}
}

func TestBatchIDs(t *testing.T) {
	batches := BatchIDs([]string{"1", "2", "3", "4", "5"}, 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[2]) != 1 || batches[2][0] != "5" {
		t.Fatalf("unexpected final batch: %v", batches[2])
	}
	if BatchIDs(nil, 2) != nil {
		t.Fatalf("expected nil for empty input")
	}
	if BatchIDs([]string{"1"}, 0) != nil {
		t.Fatalf("expected nil for non-positive batch size")
	}
}
