// Package dataset loads the pollution sample array the globe's data layer
// renders.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"adisglobe/pkg/geo"
	"adisglobe/pkg/model"
	"adisglobe/pkg/request"
)

// ErrNoSource is returned when Load is called with an empty source.
var ErrNoSource = errors.New("dataset: no source")

// record is one element of the sample array. Extra fields (T2M and friends)
// are ignored.
type record struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	NO2     *float64 `json:"NO2"`
	Anomaly flag     `json:"anomaly_flag"`
}

// flag accepts 0/1 numbers as well as JSON booleans.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch s := string(bytes.TrimSpace(b)); s {
	case "null", "0", "0.0", "false":
		*f = false
	case "1", "1.0", "true":
		*f = true
	default:
		return fmt.Errorf("anomaly_flag: unexpected value %s", s)
	}
	return nil
}

// Result is a decoded dataset.
type Result struct {
	Samples []model.PollutionSample
	// Skipped counts records without coordinates.
	Skipped int
}

// Loader fetches and decodes sample datasets. Remote sources go through
// the shared request client, which makes a single attempt.
type Loader struct {
	client *request.Client
	log    *slog.Logger
}

// NewLoader creates a Loader. A nil client is only usable for local files.
// The logger is used as given; nil tags the default logger with
// component=dataset.
func NewLoader(client *request.Client, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default().With("component", "dataset")
	}
	return &Loader{client: client, log: logger}
}

// Load reads source, an http(s) URL, a file:// URL or a local path.
func (l *Loader) Load(ctx context.Context, source string) (Result, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Result{}, ErrNoSource
	}

	data, err := l.read(ctx, source)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", source, err)
	}

	res, err := Decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", source, err)
	}
	l.log.Info("Dataset loaded", "source", source, "samples", len(res.Samples), "skipped", res.Skipped, "bytes", len(data))
	return res, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if IsRemote(source) {
		if l.client == nil {
			return nil, errors.New("no http client configured")
		}
		return l.client.Get(ctx, source)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, _ := LocalPath(source)
	return os.ReadFile(path)
}

// LocalPath returns the filesystem path of a file:// URL or plain path.
// ok is false for remote sources.
func LocalPath(source string) (path string, ok bool) {
	source = strings.TrimSpace(source)
	if source == "" || IsRemote(source) {
		return "", false
	}
	if u, err := url.Parse(source); err == nil && u.Scheme == "file" {
		return u.Path, true
	}
	return source, true
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Decode parses a JSON array of {lat, lon, NO2, anomaly_flag} records.
// Records missing lat or lon are skipped. A missing NO2 reading becomes the
// invalid sentinel so the data layer filters it like any other gap.
func Decode(data []byte) (Result, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return Result{}, err
	}

	res := Result{Samples: make([]model.PollutionSample, 0, len(records))}
	for _, r := range records {
		if r.Lat == nil || r.Lon == nil {
			res.Skipped++
			continue
		}
		c := model.InvalidConcentration
		if r.NO2 != nil {
			c = *r.NO2
		}
		res.Samples = append(res.Samples, model.PollutionSample{
			// Lat stays raw so Valid can reject it; lon is wrapped.
			Coordinate:    geo.Coordinate{Lat: *r.Lat, Lon: geo.NormalizeLon(*r.Lon)},
			Concentration: c,
			Anomaly:       bool(r.Anomaly),
		})
	}
	return res, nil
}
