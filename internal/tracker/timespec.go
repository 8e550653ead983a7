package tracker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// minHeadDuration keeps a fix from leaving a near-empty head session.
const minHeadDuration = 59 * time.Second

var (
	durationTokenPattern = regexp.MustCompile(`^(\d+\s*[hmчм])+$`)
	durationPartPattern  = regexp.MustCompile(`(\d+)\s*([hmчм])`)
	clockTokenPattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

type TimeSpecKind int

const (
	TimeSpecDuration TimeSpecKind = iota + 1
	TimeSpecClock
)

// TimeSpec is either an elapsed duration ("1h 30m", "1ч10м") or a wall clock
// time ("14:05").
type TimeSpec struct {
	Kind     TimeSpecKind
	Duration time.Duration
	Hour     int
	Minute   int
}

// FixArgs is the parsed form of "<time...> <state> [tag...]".
type FixArgs struct {
	Spec  TimeSpec
	State string
	Tag   string
}

func ParseFixArgs(args string) (FixArgs, error) {
	parts := strings.Fields(args)
	var timeParts []string
	for _, p := range parts {
		if !isTimeToken(p) {
			break
		}
		timeParts = append(timeParts, p)
	}
	rest := parts[len(timeParts):]
	if len(timeParts) == 0 || len(rest) == 0 {
		return FixArgs{}, ErrMissingArguments
	}
	spec, err := ParseTimeSpec(strings.Join(timeParts, " "))
	if err != nil {
		return FixArgs{}, err
	}
	return FixArgs{
		Spec:  spec,
		State: rest[0],
		Tag:   strings.Join(rest[1:], " "),
	}, nil
}

func isTimeToken(s string) bool {
	s = strings.ToLower(s)
	return durationTokenPattern.MatchString(s) || clockTokenPattern.MatchString(s)
}

func ParseTimeSpec(raw string) (TimeSpec, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return TimeSpec{}, ErrMissingArguments
	}
	if m := clockTokenPattern.FindStringSubmatch(raw); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return TimeSpec{}, fmt.Errorf("%w: %q is not a clock time", ErrInvalidTimeRange, raw)
		}
		return TimeSpec{Kind: TimeSpecClock, Hour: hour, Minute: minute}, nil
	}

	var total time.Duration
	for _, token := range strings.Fields(raw) {
		if !durationTokenPattern.MatchString(token) {
			return TimeSpec{}, fmt.Errorf("%w: %q is not a duration", ErrInvalidTimeRange, token)
		}
		for _, m := range durationPartPattern.FindAllStringSubmatch(token, -1) {
			unit := time.Minute
			if m[2] == "h" || m[2] == "ч" {
				unit = time.Hour
			}
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || n > math.MaxInt64/int64(unit) {
				return TimeSpec{}, fmt.Errorf("%w: %q is too long", ErrInvalidTimeRange, token)
			}
			part := time.Duration(n) * unit
			if total > math.MaxInt64-part {
				return TimeSpec{}, fmt.Errorf("%w: %q is too long", ErrInvalidTimeRange, raw)
			}
			total += part
		}
	}
	return TimeSpec{Kind: TimeSpecDuration, Duration: total}, nil
}

// ResolveBoundary turns spec into the instant splitting the open session
// that started at start. The result satisfies start+59s <= boundary <= now.
func ResolveBoundary(spec TimeSpec, start, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var boundary time.Time
	switch spec.Kind {
	case TimeSpecDuration:
		boundary = now.Add(-spec.Duration)
	case TimeSpecClock:
		local := now.In(loc)
		boundary = time.Date(local.Year(), local.Month(), local.Day(), spec.Hour, spec.Minute, 0, 0, loc)
		if boundary.After(now) {
			boundary = boundary.AddDate(0, 0, -1)
		}
	default:
		return time.Time{}, ErrMissingArguments
	}

	if boundary.After(now) {
		return time.Time{}, fmt.Errorf("%w: boundary is in the future", ErrInvalidTimeRange)
	}
	if boundary.Sub(start) < minHeadDuration {
		return time.Time{}, fmt.Errorf("%w: boundary must be at least %s after %s",
			ErrInvalidTimeRange, minHeadDuration, start.In(loc).Format(time.TimeOnly))
	}
	return boundary, nil
}
