package probe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"adisglobe/pkg/config"
)

// CityConfig fails when the marker list is empty or has invalid entries.
func CityConfig(cities []config.City) Probe {
	return Probe{
		Name:     "City Config",
		Critical: true,
		Check: func(context.Context) error {
			return config.ValidateCities(cities)
		},
	}
}

// DatasetSource checks that a local dataset exists or that a remote source
// is a well-formed http(s) URL. It does not fetch anything; a bad source
// only leaves the pollution layer empty.
func DatasetSource(source string) Probe {
	return Probe{
		Name: "Dataset Source",
		Check: func(context.Context) error {
			return checkSource(source)
		},
	}
}

func checkSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("no dataset source configured")
	}
	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			if u.Host == "" {
				return fmt.Errorf("dataset url %q has no host", source)
			}
			return nil
		case "file":
			source = u.Path
		}
	}
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("dataset file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("dataset path %s is a directory", source)
	}
	return nil
}
