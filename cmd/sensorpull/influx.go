package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/config"
	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/influx"
	"github.com/vekotinverstas/sensorpull/internal/report"
)

type influxOptions struct {
	commonOptions
	measurement string
	outfile     string
}

// runInflux exports one measurement's rows over the resolved window from
// InfluxDB into a CSV or JSON file.
func runInflux(args []string) error {
	var opts influxOptions
	fs := newFlagSet("influx")
	addCommonFlags(fs, &opts.commonOptions)
	fs.StringVar(&opts.measurement, "measurement", "", "measurement to export")
	fs.StringVar(&opts.outfile, "outfile", "", "output file (.csv, .json or .geojson)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := opts.setupLogging()

	cfg, err := settings(fs, &opts.commonOptions)
	if err != nil {
		return err
	}
	if opts.measurement == "" {
		return fmt.Errorf("--measurement is required")
	}
	if opts.outfile == "" {
		return fmt.Errorf("--outfile is required")
	}

	window, err := opts.resolveWindow()
	if err != nil {
		return err
	}

	client, err := influxConnect(cfg)
	if err != nil {
		return err
	}
	command := fmt.Sprintf("SELECT * FROM %q WHERE time >= '%s' AND time < '%s'",
		opts.measurement,
		window.Start.Format(time.RFC3339),
		window.End.Format(time.RFC3339))
	logger.Debug("querying influxdb", "command", command)

	rows, err := client.Query(command)
	if err != nil {
		return err
	}
	var records []fetch.Record
	for _, row := range rows {
		for _, values := range row.Values {
			record := fetch.Record{}
			for key, value := range row.Tags {
				record[key] = value
			}
			for i, column := range row.Columns {
				if i < len(values) {
					record[column] = values[i]
				}
			}
			records = append(records, record)
		}
	}
	logger.Info("export done", "measurement", opts.measurement, "rows", len(records),
		"start", window.Start, "end", window.End)

	switch {
	case strings.HasSuffix(opts.outfile, ".json"):
		return report.WriteJSON(opts.outfile, records)
	case strings.HasSuffix(opts.outfile, ".geojson"):
		return writeLatestGeoJSON(opts.outfile, records)
	default:
		return report.WriteCSV(opts.outfile, records, nil)
	}
}

// writeLatestGeoJSON keeps the last row per dev-id and emits one Point
// feature each, for maps that show the latest reading per device. Rows
// without lat/lon are skipped.
func writeLatestGeoJSON(path string, records []fetch.Record) error {
	latest := map[string]fetch.Record{}
	var order []string
	for _, record := range records {
		id, _ := record["dev-id"].(string)
		if id == "" {
			continue
		}
		if _, ok := latest[id]; !ok {
			order = append(order, id)
		}
		latest[id] = record
	}
	var features []report.Feature
	for _, id := range order {
		record := latest[id]
		lat, latOK := asFloat(record["lat"])
		lon, lonOK := asFloat(record["lon"])
		if !latOK || !lonOK {
			continue
		}
		properties := map[string]any{}
		for key, value := range record {
			if key == "lat" || key == "lon" || key == "dev-id" {
				continue
			}
			properties[key] = value
		}
		features = append(features, report.NewPointFeature(id, lon, lat, properties))
	}
	meta := map[string]any{"created_at": time.Now().UTC().Format(time.RFC3339)}
	return report.WriteGeoJSON(path, features, meta)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

func influxConnect(cfg *config.Layered) (*influx.Client, error) {
	database := cfg.String("influxdb-database", "")
	if database == "" {
		return nil, fmt.Errorf("influxdb-database is not set")
	}
	return influx.Connect(
		cfg.String("influxdb-url", "http://127.0.0.1:8086"),
		cfg.String("influxdb-username", ""),
		cfg.String("influxdb-password", ""),
		database,
	)
}
