package logs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"wrapped/internal/logging"
)

// Filter selects log lines. A nil Filter matches everything.
type Filter func(line string) bool

func (f Filter) match(line string) bool {
	return f == nil || f(line)
}

// All combines filters; every non-nil filter must match.
func All(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, f := range active {
			if !f(line) {
				return false
			}
		}
		return true
	}
}

// JobFilter keeps lines tagged with the export job id. Console lines carry
// the first eight characters of the id; JSON lines carry all of it.
func JobFilter(jobID string) Filter {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil
	}
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return func(line string) bool {
		if record, ok := decodeJSON(line); ok {
			id, _ := record[logging.FieldJobID].(string)
			return strings.HasPrefix(id, short)
		}
		return strings.Contains(line, short)
	}
}

// LevelFilter keeps lines at or above threshold. Lines without a
// recognizable level are kept.
func LevelFilter(threshold slog.Level) Filter {
	if threshold <= slog.LevelDebug {
		return nil
	}
	return func(line string) bool {
		level, ok := lineLevel(line)
		return !ok || level >= threshold
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func lineLevel(line string) (slog.Level, bool) {
	if record, ok := decodeJSON(line); ok {
		name, _ := record["level"].(string)
		return ParseLevel(name)
	}
	// Console lines start with "<timestamp> <LEVEL> ".
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return slog.LevelInfo, false
	}
	return ParseLevel(fields[1])
}

func decodeJSON(line string) (map[string]any, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return nil, false
	}
	return record, true
}
