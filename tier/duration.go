// Package tier defines the behavioral tiers (code, generative, agentic,
// human) that a cascade escalates across, along with the handler contract
// each tier satisfies and the small parsing utilities (duration, semver)
// the rest of the platform leans on.
package tier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned when a duration string does not match
// any recognized canonical form.
var ErrInvalidDuration = fmt.Errorf("invalid duration")

var durationPattern = regexp.MustCompile(`^(\d+)\s*(ms|s|seconds?|m|minutes?|h|hours?|d|days?)$`)

// ParseDuration converts a human duration ("5s", "1h", "250ms", 1500) into
// a time.Duration. A bare non-negative integer is interpreted as
// milliseconds. Any other string form returns ErrInvalidDuration.
func ParseDuration(v interface{}) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int:
		return durationFromMillis(val)
	case int64:
		return durationFromMillis(int(val))
	case float64:
		return durationFromMillis(int(val))
	case string:
		return parseDurationString(val)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidDuration, v)
	}
}

func durationFromMillis(ms int) (time.Duration, error) {
	if ms < 0 {
		return 0, fmt.Errorf("%w: negative milliseconds %d", ErrInvalidDuration, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseDurationString(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	m := durationPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	unit := durationUnit(m[2])
	return time.Duration(n) * unit, nil
}

func durationUnit(unit string) time.Duration {
	switch unit {
	case "ms":
		return time.Millisecond
	case "s", "second", "seconds":
		return time.Second
	case "m", "minute", "minutes":
		return time.Minute
	case "h", "hour", "hours":
		return time.Hour
	case "d", "day", "days":
		return 24 * time.Hour
	default:
		return 0
	}
}

// FormatDuration renders a time.Duration back into the canonical string
// form ParseDuration accepts, picking the largest whole unit so that
// format(parse(s)) == s for every canonical-format string s.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0ms"
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}
