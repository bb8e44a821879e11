package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vekotinverstas/sensorpull/internal/config"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

// commonOptions are the flags every fetch command shares: the time window,
// logging and the optional config file.
type commonOptions struct {
	startTime    string
	endTime      string
	duration     string
	period       string
	subtractEnd  float64
	roundTimes   bool
	logLevel     string
	configFile   string
	maxAttempts  int
	failOnChunks bool
}

// addCommonFlags wires the full set for chunked fetch commands; addBaseFlags
// covers commands without a time window (mqtt).
func addCommonFlags(fs *flag.FlagSet, opts *commonOptions) {
	addBaseFlags(fs, opts)
	fs.StringVar(&opts.startTime, "start-time", "", "start datetime (with UTC offset) for data")
	fs.StringVar(&opts.endTime, "end-time", "", "end datetime (with UTC offset) for data")
	fs.StringVar(&opts.duration, "duration", "", "time period ISO duration (e.g. P3Y P12W P7D PT12H PT30M)")
	fs.StringVar(&opts.period, "period", "", "fixed time period (e.g. 2024, 2024-06, 2024-06-30, today, yesterday)")
	fs.Float64Var(&opts.subtractEnd, "subtract-end-time", 0, "subtract this amount of seconds from the end time")
	fs.BoolVar(&opts.roundTimes, "round-times", false, "truncate the end time to the start of its hour")
	fs.IntVar(&opts.maxAttempts, "max-attempts", 100, "how often a chunk may report not-ready before it is dropped")
	fs.BoolVar(&opts.failOnChunks, "fail-on-partial", false, "exit non-zero if any chunk's data was dropped")
}

func addBaseFlags(fs *flag.FlagSet, opts *commonOptions) {
	fs.StringVar(&opts.logLevel, "log", "INFO", "logging level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	fs.StringVar(&opts.configFile, "config", "", "path to YAML config file")
}

func newFlagSet(cmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// settings builds the layered configuration: explicitly set flags first,
// then the config file when given, then SENSORPULL_* environment variables,
// then flag defaults.
func settings(fs *flag.FlagSet, opts *commonOptions) (*config.Layered, error) {
	set := config.Values{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = f.Value.String()
	})
	defaults := config.Values{}
	fs.VisitAll(func(f *flag.Flag) {
		defaults[f.Name] = f.DefValue
	})

	providers := []config.Provider{set}
	if opts.configFile != "" {
		file, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, err
		}
		providers = append(providers, file)
	}
	providers = append(providers, config.Env{Prefix: "SENSORPULL"}, defaults)
	return config.NewLayered(providers...), nil
}

func (opts *commonOptions) setupLogging() *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(opts.logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARNING":
		level = slog.LevelWarn
	case "ERROR", "CRITICAL":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func (opts *commonOptions) resolveWindow() (timewindow.Window, error) {
	spec := timewindow.Spec{
		Start:       opts.startTime,
		End:         opts.endTime,
		Duration:    opts.duration,
		Period:      opts.period,
		SubtractEnd: time.Duration(opts.subtractEnd * float64(time.Second)),
		RoundTimes:  opts.roundTimes,
	}
	return timewindow.Resolve(spec, time.Now().UTC())
}

// chunkDuration parses a shorthand like 7d or 12h into the maximum chunk
// length.
func chunkDuration(s string) (time.Duration, error) {
	seconds, err := timewindow.ConvertToSeconds(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// partialExit implements the exit policy for chunked fetches: dropped chunks
// are a warning by default and only fail the run when asked for.
func (opts *commonOptions) partialExit(logger *slog.Logger, dropped int) error {
	if dropped == 0 {
		return nil
	}
	logger.Warn("some chunks were dropped", "count", dropped)
	if opts.failOnChunks {
		return exitError{code: 2, err: fmt.Errorf("%d chunks dropped", dropped)}
	}
	return nil
}
