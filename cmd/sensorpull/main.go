package main

import (
	"fmt"
	"os"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "influx":
		if err := runInflux(os.Args[2:]); err != nil {
			fail(err)
		}
	case "fmi":
		if err := runFMI(os.Args[2:]); err != nil {
			fail(err)
		}
	case "nuuka":
		if err := runNuuka(os.Args[2:]); err != nil {
			fail(err)
		}
	case "kaltiot":
		if err := runKaltiot(os.Args[2:]); err != nil {
			fail(err)
		}
	case "mqtt":
		if err := runMQTT(os.Args[2:]); err != nil {
			fail(err)
		}
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "sensorpull - pull sensor data over a time window and re-emit it as files or InfluxDB points")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  sensorpull influx  --measurement ruuvi --period 2024-06 --outfile ruuvi.csv")
	fmt.Fprintln(os.Stderr, "  sensorpull fmi     --period yesterday --stations 1402089125,1402089131 --outfile tapsi.csv")
	fmt.Fprintln(os.Stderr, "  sensorpull nuuka   --building-id 1234 --duration P30D --chunk-length 8d --outdir out")
	fmt.Fprintln(os.Stderr, "  sensorpull kaltiot --period 2024-06 --maxperiod 1d --measurement temperature --outdir out")
	fmt.Fprintln(os.Stderr, "  sensorpull mqtt    --broker tcp://localhost:1883 --topic 'sensors/#' --measurement ruuvi")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	if err == nil {
		os.Exit(1)
	}
	type exitCoder interface {
		ExitCode() int
	}
	if coded, ok := err.(exitCoder); ok {
		os.Exit(coded.ExitCode())
	}
	os.Exit(1)
}
