package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// first returns the first present, non-null value among keys.
func first(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// text reads the first string-like value among keys. Objects are searched
// for a nested display value (name, email, address, displayName).
func text(obj map[string]any, keys ...string) string {
	v, ok := first(obj, keys...)
	if !ok {
		return ""
	}
	return stringValue(v)
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		if s := text(x, "name", "displayName", "real_name", "email", "address", "login"); s != "" {
			return s
		}
		if nested, ok := x["emailAddress"].(map[string]any); ok {
			return text(nested, "name", "address")
		}
	}
	return ""
}

func boolValue(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	case float64:
		return x != 0, true
	}
	return false, false
}

func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

// timeLayouts are tried in order for string timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// timeField reads the first parsable time among keys.
func timeField(obj map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if t, ok := timeValue(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeValue parses RFC3339 variants, date-only strings, mail date headers,
// unix seconds or milliseconds, and the {"dateTime"|"date"} objects used by
// calendar APIs. Zone-less values are taken as UTC.
func timeValue(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		return unixTime(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixTime(f)
		}
	case map[string]any:
		if t, ok := timeField(x, "dateTime", "datetime", "date_time", "date"); ok {
			if tz, ok := x["timeZone"].(string); ok && !hasZone(x) {
				if loc, err := time.LoadLocation(tz); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC(), true
				}
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// hasZone reports whether the dateTime string of a calendar object carries an offset.
func hasZone(obj map[string]any) bool {
	s, _ := obj["dateTime"].(string)
	_, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	return err == nil
}

func unixTime(f float64) (time.Time, bool) {
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return time.Time{}, false
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}
