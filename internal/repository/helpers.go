package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/neuron/internal/dates"
	json "github.com/goccy/go-json"
)

// nullableInt64 converts a *int64 to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// dayTimestamp returns the day-granularity timestamp of a DD/MM/YYYY string,
// or nil when it does not parse.
func dayTimestamp(text string) *int64 {
	d, ok := dates.Parse(text)
	if !ok {
		return nil
	}
	ms := d.UnixMilli()
	return &ms
}

func encodeNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeNames(raw string) ([]string, error) {
	names := []string{}
	if raw == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	return names, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
