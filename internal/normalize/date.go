package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	fullUnitDate  = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	monthUnitDate = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
	numericDate   = regexp.MustCompile(`(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})`)
	numericMonth  = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
)

// ParseDate converts a provider date string into YYYY-MM-DD. Rules are tried
// in order: full date with unit markers, year-month with unit markers (day 01),
// slash or hyphen numeric date, hyphen year-month (day 01).
func ParseDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if m := fullUnitDate.FindStringSubmatch(s); m != nil {
		return formatDate(m[1], m[2], m[3])
	}
	if m := monthUnitDate.FindStringSubmatch(s); m != nil {
		return formatDate(m[1], m[2], "1")
	}
	if m := numericDate.FindStringSubmatch(s); m != nil {
		return formatDate(m[1], m[2], m[3])
	}
	if m := numericMonth.FindStringSubmatch(s); m != nil {
		return formatDate(m[1], m[2], "1")
	}
	return "", false
}

func formatDate(year, month, day string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, m, d), true
}

// EpochDate converts epoch seconds into a UTC calendar date.
func EpochDate(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.DateOnly)
}

// Regional is one region-tagged release timestamp.
type Regional struct {
	Region int
	Date   int64 // epoch seconds, 0 when unknown
}

// RegionalDate picks the release date for the target market: the target
// region first, then the worldwide region, then the primary release
// timestamp, then the earliest dated entry.
func RegionalDate(dates []Regional, primary int64, target, worldwide int) (string, bool) {
	for _, region := range []int{target, worldwide} {
		for _, d := range dates {
			if d.Region == region && d.Date > 0 {
				return EpochDate(d.Date), true
			}
		}
	}
	if primary > 0 {
		return EpochDate(primary), true
	}
	var earliest int64
	for _, d := range dates {
		if d.Date > 0 && (earliest == 0 || d.Date < earliest) {
			earliest = d.Date
		}
	}
	if earliest > 0 {
		return EpochDate(earliest), true
	}
	return "", false
}
