package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/report"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
	"github.com/vekotinverstas/sensorpull/internal/upstream"
)

type fmiOptions struct {
	commonOptions
	stations  string
	maxperiod string
	wait      time.Duration
	outfile   string
}

// runFMI pulls urban weather station observations from the FMI Timeseries
// API, chunked to the API's maximum request span, and writes them out as CSV.
func runFMI(args []string) error {
	var opts fmiOptions
	fs := newFlagSet("fmi")
	addCommonFlags(fs, &opts.commonOptions)
	fs.StringVar(&opts.stations, "stations", "", "comma separated station IDs (empty for all stations)")
	fs.StringVar(&opts.maxperiod, "maxperiod", "7d", "max length of one request (e.g. 500s 10m 6h 1d)")
	fs.DurationVar(&opts.wait, "wait", time.Second, "pause between requests")
	fs.StringVar(&opts.outfile, "outfile", "", "output file (.csv or .json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := opts.setupLogging()

	cfg, err := settings(fs, &opts.commonOptions)
	if err != nil {
		return err
	}
	if opts.outfile == "" {
		return fmt.Errorf("--outfile is required")
	}

	window, err := opts.resolveWindow()
	if err != nil {
		return err
	}
	maxChunk, err := chunkDuration(opts.maxperiod)
	if err != nil {
		return err
	}
	requests, err := timewindow.Requests([]string{opts.stations}, window, maxChunk)
	if err != nil {
		return err
	}
	logger.Info("fetching fmi data",
		"stations", opts.stations, "chunks", len(requests),
		"start", window.Start, "end", window.End)

	client := upstream.NewFMI(cfg.String("fmi-url", ""), upstream.UserAgent(version))
	queue := fetch.NewQueue(client, requests, fetch.Options{
		MaxAttempts: opts.maxAttempts,
		Wait:        opts.wait,
		Logger:      logger,
	})
	results, dropped, err := queue.Drain(context.Background())
	if err != nil {
		return err
	}
	var records []fetch.Record
	for _, result := range results {
		records = append(records, result.Records...)
	}
	logger.Info("fetch done", "rows", len(records))

	if strings.HasSuffix(opts.outfile, ".json") {
		if err := report.WriteJSON(opts.outfile, records); err != nil {
			return err
		}
	} else if err := report.WriteCSV(opts.outfile, records, nil); err != nil {
		return err
	}
	return opts.partialExit(logger, len(dropped))
}
