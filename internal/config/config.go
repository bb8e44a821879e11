// Package config resolves settings through an ordered list of providers:
// command-line flags first, then a config file, then environment variables,
// then built-in defaults. The first provider that knows a key wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider answers lookups for raw string settings.
type Provider interface {
	Lookup(key string) (string, bool)
}

// Layered queries its providers in order.
type Layered struct {
	providers []Provider
}

func NewLayered(providers ...Provider) *Layered {
	return &Layered{providers: providers}
}

func (l *Layered) Lookup(key string) (string, bool) {
	for _, provider := range l.providers {
		if value, ok := provider.Lookup(key); ok {
			return value, true
		}
	}
	return "", false
}

func (l *Layered) String(key, fallback string) string {
	if value, ok := l.Lookup(key); ok {
		return value
	}
	return fallback
}

func (l *Layered) Int(key string, fallback int) (int, error) {
	value, ok := l.Lookup(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return parsed, nil
}

func (l *Layered) Bool(key string, fallback bool) (bool, error) {
	value, ok := l.Lookup(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return parsed, nil
}

func (l *Layered) Duration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := l.Lookup(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return parsed, nil
}

// Values is a fixed map provider, used for explicitly-set flags and for
// defaults.
type Values map[string]string

func (v Values) Lookup(key string) (string, bool) {
	value, ok := v[key]
	return value, ok
}

// Env resolves keys against environment variables with the given prefix;
// "influxdb-host" becomes PREFIX_INFLUXDB_HOST.
type Env struct {
	Prefix string
}

func (e Env) Lookup(key string) (string, bool) {
	name := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if e.Prefix != "" {
		name = e.Prefix + "_" + name
	}
	return os.LookupEnv(name)
}

// File is a flat YAML mapping of setting names to values.
type File struct {
	values map[string]string
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &File{values: values}, nil
}

func (f *File) Lookup(key string) (string, bool) {
	value, ok := f.values[key]
	return value, ok
}
