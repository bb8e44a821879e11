package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/report"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
	"github.com/vekotinverstas/sensorpull/internal/upstream"
)

type nuukaOptions struct {
	commonOptions
	buildingID    string
	ids           string
	maxPoints     int
	chunkLength   string
	maxSplitDepth int
	cacheDir      string
	outdir        string
}

// runNuuka exports building measurement data from the Nuuka API. Data point
// IDs are batched, the window is chunked and chunks that trip the API's row
// limit are split and refetched.
func runNuuka(args []string) error {
	var opts nuukaOptions
	fs := newFlagSet("nuuka")
	addCommonFlags(fs, &opts.commonOptions)
	fs.StringVar(&opts.buildingID, "building-id", "", "Nuuka building ID")
	fs.StringVar(&opts.ids, "measurement-ids", "all", "comma separated DataPointIDs, or all")
	fs.IntVar(&opts.maxPoints, "max-points", 50, "max number of DataPointIDs per request")
	fs.StringVar(&opts.chunkLength, "chunk-length", "8d", "max length of one request (e.g. 12h 1d 8d)")
	fs.IntVar(&opts.maxSplitDepth, "max-split-depth", 1, "how many times a too-large chunk may be split")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "directory for the chunk cache (empty disables caching)")
	fs.StringVar(&opts.outdir, "outdir", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := opts.setupLogging()

	cfg, err := settings(fs, &opts.commonOptions)
	if err != nil {
		return err
	}
	if opts.buildingID == "" {
		return fmt.Errorf("--building-id is required")
	}
	token := cfg.String("nuuka-token", "")
	if token == "" {
		return fmt.Errorf("nuuka-token is not set")
	}

	window, err := opts.resolveWindow()
	if err != nil {
		return err
	}
	maxChunk, err := chunkDuration(opts.chunkLength)
	if err != nil {
		return err
	}

	baseURL := cfg.String("nuuka-url", "https://nuukacustomerwebapi.azurewebsites.net/api/v2.0")
	client, err := upstream.NewNuuka(baseURL, token, opts.buildingID, upstream.UserAgent(version))
	if err != nil {
		return err
	}
	client.CacheDir = opts.cacheDir

	ctx := context.Background()
	ids, err := dataPointIDs(ctx, client, opts)
	if err != nil {
		return err
	}
	var groups []string
	for _, batch := range timewindow.BatchIDs(ids, opts.maxPoints) {
		groups = append(groups, strings.Join(batch, ";"))
	}
	requests, err := timewindow.Requests(groups, window, maxChunk)
	if err != nil {
		return err
	}
	logger.Info("fetching nuuka data",
		"building", opts.buildingID, "datapoints", len(ids),
		"batches", len(groups), "requests", len(requests),
		"start", window.Start, "end", window.End)

	queue := fetch.NewQueue(client, requests, fetch.Options{
		MaxAttempts:   opts.maxAttempts,
		MaxSplitDepth: opts.maxSplitDepth,
		Logger:        logger,
	})
	results, dropped, err := queue.Drain(ctx)
	if err != nil {
		return err
	}
	var records []fetch.Record
	for _, result := range results {
		records = append(records, result.Records...)
	}
	logger.Info("fetch done", "rows", len(records))

	prefix := "nuuka-" + opts.buildingID
	if err := report.WriteCSV(report.DumpFilename(opts.outdir, prefix, "raw", window.Start, window.End, "csv"), records, nil); err != nil {
		return err
	}
	if err := report.WriteJSON(report.DumpFilename(opts.outdir, prefix, "raw", window.Start, window.End, "json"), records); err != nil {
		return err
	}
	return opts.partialExit(logger, len(dropped))
}

// dataPointIDs resolves --measurement-ids: either an explicit comma list or
// every data point the building has. The full listing is also written next
// to the export so the IDs can be mapped back to names.
func dataPointIDs(ctx context.Context, client *upstream.Nuuka, opts nuukaOptions) ([]string, error) {
	if opts.ids != "" && opts.ids != "all" {
		return strings.Split(opts.ids, ","), nil
	}
	points, err := client.MeasurementInfo(ctx)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("building %s has no data points", opts.buildingID)
	}
	listing := filepath.Join(opts.outdir, "nuuka-"+opts.buildingID+"-datapoints.json")
	if err := report.WriteJSON(listing, points); err != nil {
		return nil, err
	}
	ids := make([]string, len(points))
	for i, point := range points {
		ids[i] = strconv.Itoa(point.DataPointID)
	}
	return ids, nil
}
