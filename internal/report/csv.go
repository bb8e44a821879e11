package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
)

// WriteCSV writes records with the given column order, one header row first.
// Missing and nil values become empty cells. When columns is nil the union
// of record keys is used in sorted order.
func WriteCSV(path string, records []fetch.Record, columns []string) error {
	if columns == nil {
		columns = unionColumns(records)
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			row[i] = formatCell(record[column])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return atomicWrite(path, buf.Bytes())
}

func unionColumns(records []fetch.Record) []string {
	seen := map[string]bool{}
	var columns []string
	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
