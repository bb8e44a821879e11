package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// Kaltiot pulls beacon sensor history from the Kaltiot tracker API. The
// export is aggregated server-side; while aggregation for a chunk is still
// running the API answers 206 Partial Content, which maps to fetch.ErrNotReady
// so the queue retries the chunk later.
type Kaltiot struct {
	rest        *resty.Client
	baseURL     string
	measurement string
}

func NewKaltiot(baseURL, apiKey, measurement, userAgent string) *Kaltiot {
	return &Kaltiot{
		rest: resty.New().
			SetHeader("User-Agent", userAgent).
			SetHeader("ApiKey", apiKey),
		baseURL:     strings.TrimRight(baseURL, "/"),
		measurement: measurement,
	}
}

type kaltiotTag struct {
	ID      string `json:"id"`
	History []struct {
		Timestamp int64  `json:"timestamp"`
		Value     string `json:"value"`
	} `json:"history"`
}

// Fetch requests sensor history for the beacon IDs in req.Group (comma
// separated) over one chunk. The API takes epoch milliseconds.
func (c *Kaltiot) Fetch(ctx context.Context, req timewindow.Request) ([]fetch.Record, error) {
	response, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":  req.Group,
			"from": strconv.FormatInt(req.Chunk.Start.UnixMilli(), 10),
			"to":   strconv.FormatInt(req.Chunk.End.UnixMilli(), 10),
		}).
		Get(c.baseURL + "/history/sensor/" + c.measurement)
	if err != nil {
		return nil, fmt.Errorf("kaltiot request: %w", err)
	}
	// 206 means the server-side aggregation for this chunk is not finished.
	if response.StatusCode() == http.StatusPartialContent {
		return nil, fetch.ErrNotReady
	}
	if response.IsError() {
		return nil, fmt.Errorf("kaltiot request failed: %s (%s)", response.Status(), response.String())
	}
	var tags []kaltiotTag
	if err := json.Unmarshal(response.Body(), &tags); err != nil {
		return nil, fmt.Errorf("parse kaltiot response: %w", err)
	}

	var records []fetch.Record
	for _, tag := range tags {
		for _, row := range tag.History {
			value, err := strconv.ParseFloat(row.Value, 64)
			if err != nil {
				continue
			}
			records = append(records, fetch.Record{
				"id":    tag.ID,
				"time":  time.UnixMilli(row.Timestamp).UTC(),
				"value": value,
			})
		}
	}
	return records, nil
}
