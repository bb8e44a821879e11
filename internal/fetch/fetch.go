// Package fetch drains a queue of chunked upstream requests, retrying chunks
// the upstream reports as not ready yet and splitting chunks that exceed the
// upstream's row limit.
package fetch

import (
	"errors"
	"fmt"

	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// ErrNotReady signals that the upstream is still aggregating the requested
// chunk server-side (e.g. an HTTP 206 response) and the request should be
// retried later. It is a transient condition, not a failure.
var ErrNotReady = errors.New("upstream data not ready")

// RowLimitError reports that a chunk would return more rows than the
// upstream allows. The fetch loop reacts by splitting the chunk.
type RowLimitError struct {
	Rows int
	Max  int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("too many rows (%d), max number of rows %d", e.Rows, e.Max)
}

// Record is one upstream data row.
type Record = map[string]any

// Result carries the records fetched for one request.
type Result struct {
	Request timewindow.Request
	Records []Record
}
