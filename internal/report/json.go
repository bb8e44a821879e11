// Package report writes fetched records out as CSV, JSON or GeoJSON files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteJSON marshals payload as indented JSON with a trailing newline.
func WriteJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomicWrite(path, data)
}

// DumpFilename builds the conventional export file name
// prefix-aggregation-YYYYMMDD-YYYYMMDD.ext for a window.
func DumpFilename(dir, prefix, aggregation string, start, end time.Time, ext string) string {
	name := fmt.Sprintf("%s-%s-%s-%s.%s",
		prefix, aggregation, start.UTC().Format("20060102"), end.UTC().Format("20060102"), ext)
	return filepath.Join(dir, name)
}

// atomicWrite replaces path in one step so a reader polling the export
// directory never observes a half-written file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
