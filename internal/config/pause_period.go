package config

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTimeZone is used when a job's timeZone config is unset, per
// spec.md §6.
const DefaultTimeZone = "UTC"

// pair is a parsed two-integer component of a range bound: "M/d" for
// pausePeriodDate, "H:m" for pausePeriodTime.
type pair struct {
	a, b int
}

// InPausePeriod reports whether t (already converted to the job's time
// zone by the caller) falls inside the job's configured pause window.
// A timestamp is paused iff (dateRange empty OR matches) AND (timeRange
// empty OR matches); both empty means never paused. A malformed range
// never matches: on its own it never pauses, and alongside a valid range
// of the other kind the result is not paused.
func InPausePeriod(t time.Time, pausePeriodDate, pausePeriodTime string) bool {
	dateEmpty := strings.TrimSpace(pausePeriodDate) == ""
	timeEmpty := strings.TrimSpace(pausePeriodTime) == ""

	if dateEmpty && timeEmpty {
		return false
	}

	dateIn := !dateEmpty && matchesDateRanges(t, pausePeriodDate)
	timeIn := !timeEmpty && matchesTimeRanges(t, pausePeriodTime)

	switch {
	case dateEmpty:
		return timeIn
	case timeEmpty:
		return dateIn
	default:
		return dateIn && timeIn
	}
}

// matchesDateRanges parses "M/d-M/d(,M/d-M/d)*" and reports whether t's
// month/day falls within any range. Segments are checked in order; the
// first segment that fails to parse ends the scan with no match, so only
// a segment before it can still match.
func matchesDateRanges(t time.Time, spec string) bool {
	month := int(t.Month())
	day := t.Day()

	for _, period := range strings.Split(spec, ",") {
		bounds := strings.SplitN(strings.TrimSpace(period), "-", 2)
		if len(bounds) != 2 {
			return false
		}
		left, ok1 := parseMonthDay(bounds[0])
		right, ok2 := parseMonthDay(bounds[1])
		if !ok1 || !ok2 {
			return false
		}
		afterLeft := month > left.a || (month == left.a && day >= left.b)
		beforeRight := month < right.a || (month == right.a && day <= right.b)
		if afterLeft && beforeRight {
			return true
		}
	}
	return false
}

// matchesTimeRanges parses "H:m-H:m(,H:m-H:m)*" the same way.
func matchesTimeRanges(t time.Time, spec string) bool {
	hour := t.Hour()
	min := t.Minute()

	for _, period := range strings.Split(spec, ",") {
		bounds := strings.SplitN(strings.TrimSpace(period), "-", 2)
		if len(bounds) != 2 {
			return false
		}
		left, ok1 := parseHourMinute(bounds[0])
		right, ok2 := parseHourMinute(bounds[1])
		if !ok1 || !ok2 {
			return false
		}
		afterLeft := hour > left.a || (hour == left.a && min >= left.b)
		beforeRight := hour < right.a || (hour == right.a && min <= right.b)
		if afterLeft && beforeRight {
			return true
		}
	}
	return false
}

func parseMonthDay(s string) (pair, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return pair{}, false
	}
	m, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return pair{}, false
	}
	return pair{a: m, b: d}, true
}

// parseHourMinute reuses pair's shape (a=hour, b=minute).
func parseHourMinute(s string) (pair, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return pair{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return pair{}, false
	}
	return pair{a: h, b: m}, true
}
