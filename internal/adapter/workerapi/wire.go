package workerapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// snowflake decodes an id sent either as a JSON number or a string. It
// encodes as a number, which is what the worker stores.
type snowflake string

func (s snowflake) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(s), 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

func (s *snowflake) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = snowflake(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	*s = snowflake(n.String())
	return nil
}

// wireTimeLayout is what the worker stores: a naive ISO timestamp, in UTC.
const wireTimeLayout = "2006-01-02T15:04:05"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// offsetLayouts cover Postgres text output, whose offset may be hours only.
var offsetLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
}

// parseTime accepts RFC 3339, Postgres timestamptz text and the naive forms
// the worker emits. Naive timestamps are read as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(wireTimeLayout)
}
