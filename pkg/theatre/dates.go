package theatre

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of a performance date.
const DateLayout = "2006-01-02"

// NormalizePerformanceDates validates dates and returns them sorted and
// without duplicates. Entries may themselves be comma separated lists.
// Any invalid entry fails the whole call.
func NormalizePerformanceDates(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	for _, entry := range dates {
		for _, raw := range strings.Split(entry, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			d, err := time.Parse(DateLayout, raw)
			if err != nil {
				return nil, invalid("performance_dates", fmt.Sprintf("%q is not a YYYY-MM-DD date", raw))
			}
			out = append(out, d.Format(DateLayout))
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// ParseDateList splits a comma separated date list.
func ParseDateList(s string) []string {
	var out []string
	for _, raw := range strings.Split(s, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

// decodePerformanceDates reads a stored value. Both a JSON array and a comma
// separated list are accepted; unparseable entries are dropped.
func decodePerformanceDates(stored string) []string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return []string{}
	}
	var raw []string
	if strings.HasPrefix(stored, "[") {
		if err := json.Unmarshal([]byte(stored), &raw); err != nil {
			return []string{}
		}
	} else {
		raw = ParseDateList(stored)
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if d, err := time.Parse(DateLayout, strings.TrimSpace(r)); err == nil {
			out = append(out, d.Format(DateLayout))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeStrings(stored string) []string {
	var out []string
	if err := json.Unmarshal([]byte(stored), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
