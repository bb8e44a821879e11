// Package upstream holds the thin HTTP clients for the vendor APIs data is
// pulled from. Each client implements fetch.Fetcher over one (group, chunk)
// request; the chunking and retry policy live in the fetch package.
package upstream

import (
	"fmt"
	"runtime"
)

// UserAgent builds the uniform User-Agent string sent to every vendor API.
func UserAgent(version string) string {
	return fmt.Sprintf("https://github.com/vekotinverstas/sensorpull api-client/%s %s", version, runtime.Version())
}
