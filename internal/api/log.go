package api

import (
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"adisglobe/pkg/logging"
)

// key=value or key="quoted value"
var logField = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// maxAttrLen drops paths, URLs and ids from the overlay text.
const maxAttrLen = 20

// LogEntry is the last captured server log line, split into its slog fields.
type LogEntry struct {
	Time      string            `json:"time,omitempty"`
	Level     string            `json:"level,omitempty"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	// Text is a one-line summary for status overlays.
	Text string `json:"text"`
}

// handleLatestLog returns the last captured line. ?n=N adds up to N recent
// lines, oldest first.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	capture := logging.GlobalLogCapture
	resp := map[string]any{
		"entry": parseLogLine(capture.GetLastLine()),
		"lines": capture.Lines(),
	}
	if q := r.URL.Query().Get("n"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		recent := capture.Recent(n)
		entries := make([]LogEntry, len(recent))
		for i, line := range recent {
			entries[i] = parseLogLine(line)
		}
		resp["recent"] = entries
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseLogLine splits a slog text line. Lines without a msg field are
// returned verbatim as the message.
func parseLogLine(raw string) LogEntry {
	e := LogEntry{Message: raw, Text: raw}
	fields := logField.FindAllStringSubmatch(raw, -1)

	var msg string
	for _, f := range fields {
		key, val := f[1], f[2]
		if val == "" {
			val = f[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				e.Time = t.Format("15:04:05")
			}
		case "level":
			e.Level = val
		case "msg":
			msg = val
		case "component":
			e.Component = val
		default:
			if e.Attrs == nil {
				e.Attrs = make(map[string]string)
			}
			e.Attrs[key] = val
		}
	}
	if msg == "" {
		return LogEntry{Message: raw, Text: raw}
	}
	e.Message = msg
	e.Text = e.summary()
	return e
}

func (e LogEntry) summary() string {
	var b strings.Builder
	if e.Time != "" {
		b.WriteString(e.Time)
		b.WriteByte(' ')
	}
	if e.Component != "" {
		b.WriteString("[" + e.Component + "] ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for k, v := range e.Attrs {
		if len(v) <= maxAttrLen {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return b.String()
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Attrs[k]
	}
	b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	return b.String()
}
