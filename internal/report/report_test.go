package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
)

func TestWriteCSVWithColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []fetch.Record{
		{"time": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "id": "a", "value": 21.5},
		{"time": time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), "id": "b", "value": nil},
	}
	if err := WriteCSV(path, records, []string{"time", "id", "value"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,id,value" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "2024-06-01T00:00:00Z,a,21.5" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if lines[2] != "2024-06-01T01:00:00Z,b," {
		t.Fatalf("nil value must produce an empty cell: %q", lines[2])
	}
}

func TestWriteCSVDerivesColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []fetch.Record{{"b": 1, "a": 2}}
	if err := WriteCSV(path, records, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), "a,b\n") {
		t.Fatalf("derived columns must be sorted, got %q", string(data))
	}
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.geojson")
	features := []Feature{
		NewPointFeature("uiras-1", 24.95, 60.17, map[string]any{"temp_water": 18.2}),
	}
	if err := WriteGeoJSON(path, features, map[string]any{"created_at": "2024-06-01T00:00:00Z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var collection FeatureCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		t.Fatalf("parse geojson: %v", err)
	}
	if collection.Type != "FeatureCollection" {
		t.Fatalf("unexpected type %q", collection.Type)
	}
	if len(collection.Features) != 1 || collection.Features[0].Geometry.Coordinates[0] != 24.95 {
		t.Fatalf("unexpected features: %+v", collection.Features)
	}
}

func TestDumpFilename(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	got := DumpFilename("out", "ulkoliikunta", "daily", start, end, "csv")
	want := filepath.Join("out", "ulkoliikunta-daily-20240601-20240701.csv")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
