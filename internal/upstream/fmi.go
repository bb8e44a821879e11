package upstream

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// FMI serves urban weather station data from the FMI Timeseries API. The API
// caps the time span per request, so callers chunk the window (7 days is the
// documented maximum) and pass station IDs as the request group.
type FMI struct {
	rest     *resty.Client
	url      string
	producer string
	params   string
}

func NewFMI(url, userAgent string) *FMI {
	if url == "" {
		url = "https://opendata.fmi.fi/timeseries"
	}
	return &FMI{
		rest:     resty.New().SetHeader("User-Agent", userAgent),
		url:      url,
		producer: "tapsi_qc",
		params:   "station_id,station_code,TA as temperature,RH as humidity,utctime",
	}
}

// Fetch requests one chunk of CSV data for the stations in req.Group (a
// comma-separated station ID list; empty means all stations).
func (c *FMI) Fetch(ctx context.Context, req timewindow.Request) ([]fetch.Record, error) {
	params := map[string]string{
		"producer":    c.producer,
		"precision":   "auto",
		"param":       c.params,
		"format":      "csv",
		"missingtext": "NULL",
		"tz":          "UTC",
		"timeformat":  "sql",
		"starttime":   req.Chunk.Start.UTC().Format("2006-01-02 15:04:05"),
		"endtime":     req.Chunk.End.UTC().Format("2006-01-02 15:04:05"),
	}
	if req.Group != "" {
		params["station_id"] = req.Group
	}

	response, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fmi request: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("fmi request failed: %s (%s)", response.Status(), response.String())
	}
	return parseCSVRecords(response.String())
}

// parseCSVRecords converts the API's CSV payload into records keyed by the
// header row. NULL markers become nil values.
func parseCSVRecords(payload string) ([]fetch.Record, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(payload))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse fmi csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	header := rows[0]
	records := make([]fetch.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := fetch.Record{}
		for i, column := range header {
			if i >= len(row) || row[i] == "NULL" {
				record[column] = nil
				continue
			}
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}
