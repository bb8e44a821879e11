package upstream

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// Nuuka pulls building measurement data from the Nuuka API. Request groups
// are semicolon-separated DataPointID batches; the API caps both the number
// of IDs per request and the number of returned rows, reporting the latter
// with a "Too many rows" message that the fetch queue reacts to by
// splitting the chunk.
type Nuuka struct {
	rest       *resty.Client
	baseURL    string
	token      string
	buildingID string

	// CacheDir enables a JSON-on-disk chunk cache when non-empty, so
	// re-running a long export does not refetch finished chunks.
	CacheDir string

	loc *time.Location
}

func NewNuuka(baseURL, token, buildingID, userAgent string) (*Nuuka, error) {
	// Nuuka expects request times in local Finnish time.
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &Nuuka{
		rest:       resty.New().SetHeader("User-Agent", userAgent),
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		buildingID: buildingID,
		loc:        loc,
	}, nil
}

// DataPoint describes one measuring point of a building.
type DataPoint struct {
	DataPointID int    `json:"DataPointID"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Unit        string `json:"Unit"`
	Category    string `json:"Category"`
}

// MeasurementInfo lists all available measuring points for the building,
// sorted by DataPointID.
func (c *Nuuka) MeasurementInfo(ctx context.Context) ([]DataPoint, error) {
	var points []DataPoint
	response, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"BuildingID":        c.buildingID,
			"MeasurementSystem": "SI",
			"$format":           "json",
			"$token":            c.token,
		}).
		SetResult(&points).
		Get(c.baseURL + "/GetMeasurementInfo/")
	if err != nil {
		return nil, fmt.Errorf("nuuka measurement info: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("nuuka measurement info failed: %s (%s)", response.Status(), response.String())
	}
	sort.Slice(points, func(i, j int) bool { return points[i].DataPointID < points[j].DataPointID })
	return points, nil
}

// Fetch requests one chunk of measurement data for the DataPointIDs in
// req.Group. A "Too many rows" reply comes back as *fetch.RowLimitError.
func (c *Nuuka) Fetch(ctx context.Context, req timewindow.Request) ([]fetch.Record, error) {
	if cached, ok := c.readCache(req); ok {
		return cached, nil
	}

	var payload []fetch.Record
	response, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"Building":          c.buildingID,
			"DataPointIDs":      req.Group,
			"StartTime":         req.Chunk.Start.In(c.loc).Format("2006-01-02 15:04:05"),
			"EndTime":           req.Chunk.End.In(c.loc).Format("2006-01-02 15:04:05"),
			"TimestampTimeZone": "UTCOffset",
			"MeasurementSystem": "SI",
			"$format":           "json",
			"$token":            c.token,
		}).
		SetResult(&payload).
		Get(c.baseURL + "/GetMeasurementDataByIDs/")
	if err != nil {
		return nil, fmt.Errorf("nuuka data request: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("nuuka data request failed: %s (%s)", response.Status(), response.String())
	}
	if rows, max, ok := parseTooManyRows(payload); ok {
		return nil, &fetch.RowLimitError{Rows: rows, Max: max}
	}

	c.writeCache(req, payload)
	return payload, nil
}

var tooManyRowsPattern = regexp.MustCompile(`Too many rows \((\d+)\)\. Max number of rows (\d+)\.`)

// parseTooManyRows detects the API's row-limit reply, a single-element list
// whose message looks like "Too many rows (423478). Max number of rows
// 200000.".
func parseTooManyRows(payload []fetch.Record) (rows, max int, ok bool) {
	if len(payload) != 1 {
		return 0, 0, false
	}
	message, _ := payload[0]["message"].(string)
	match := tooManyRowsPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, 0, false
	}
	rows, _ = strconv.Atoi(match[1])
	max, _ = strconv.Atoi(match[2])
	return rows, max, true
}

var cacheNameCleaner = regexp.MustCompile(`[-: ]`)

func (c *Nuuka) cachePath(req timewindow.Request) string {
	ids := strings.Split(req.Group, ";")
	stamp := cacheNameCleaner.ReplaceAllString(fmt.Sprintf("%s_%s",
		req.Chunk.Start.In(c.loc).Format("2006-01-02 15:04:05"),
		req.Chunk.End.In(c.loc).Format("2006-01-02 15:04:05")), "")
	name := fmt.Sprintf("data-%s-%s-%s.json.gz", stamp, ids[0], ids[len(ids)-1])
	return filepath.Join(c.CacheDir, c.buildingID, name)
}

func (c *Nuuka) readCache(req timewindow.Request) ([]fetch.Record, bool) {
	if c.CacheDir == "" {
		return nil, false
	}
	file, err := os.Open(c.cachePath(req))
	if err != nil {
		return nil, false
	}
	defer file.Close()
	reader, err := gzip.NewReader(file)
	if err != nil {
		return nil, false
	}
	defer reader.Close()
	var records []fetch.Record
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, false
	}
	return records, true
}

func (c *Nuuka) writeCache(req timewindow.Request, records []fetch.Record) {
	if c.CacheDir == "" {
		return
	}
	path := c.cachePath(req)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	file, err := os.Create(path)
	if err != nil {
		return
	}
	defer file.Close()
	writer := gzip.NewWriter(file)
	defer writer.Close()
	_ = json.NewEncoder(writer).Encode(records)
}
