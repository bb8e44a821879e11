package timewindow

import (
	"fmt"
	"time"
)

// Chunk is a bounded sub-interval [Start, End) of a larger window, sized to
// respect an upstream API's maximum request span.
type Chunk struct {
	Start time.Time
	End   time.Time
}

// Request pairs a logical group (a station, or a batch of measurement IDs)
// with one time chunk. The fetch loop issues one upstream request per Request.
type Request struct {
	Group string
	Chunk Chunk
}

// Chunks splits a window into consecutive chunks of at most maxChunk each.
// The cursor advances by maxChunk regardless of clipping, so the cadence is
// regular and only the final chunk can be short. Concatenating the chunks in
// order reconstructs the window exactly, with no gaps and no overlaps.
func Chunks(w Window, maxChunk time.Duration) ([]Chunk, error) {
	if maxChunk <= 0 {
		return nil, fmt.Errorf("chunk length must be positive, got %s", maxChunk)
	}
	var chunks []Chunk
	for cursor := w.Start; cursor.Before(w.End); cursor = cursor.Add(maxChunk) {
		end := cursor.Add(maxChunk)
		if end.After(w.End) {
			end = w.End
		}
		chunks = append(chunks, Chunk{Start: cursor, End: end})
	}
	return chunks, nil
}

// Requests builds the cross product of groups and time chunks: outer loop
// over groups in the caller's order, inner loop over chunks chronologically.
// The ordering is load-bearing for deterministic cache file naming and for
// resuming after a partial failure.
func Requests(groups []string, w Window, maxChunk time.Duration) ([]Request, error) {
	chunks, err := Chunks(w, maxChunk)
	if err != nil {
		return nil, err
	}
	requests := make([]Request, 0, len(groups)*len(chunks))
	for _, group := range groups {
		for _, chunk := range chunks {
			requests = append(requests, Request{Group: group, Chunk: chunk})
		}
	}
	return requests, nil
}

// BatchIDs splits ids into batches of at most maxPerBatch items each,
// preserving order. Upstreams like Nuuka cap the number of measurement IDs
// accepted per request.
func BatchIDs(ids []string, maxPerBatch int) [][]string {
	if maxPerBatch <= 0 || len(ids) == 0 {
		return nil
	}
	var batches [][]string
	for start := 0; start < len(ids); start += maxPerBatch {
		end := start + maxPerBatch
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
