package schedule

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidWeekKey = errors.New("invalid week key")

	weekKeyRegex = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
)

// WeekInfo identifies an ISO-8601 week. Key has the form "2025-W39", the
// week number is never zero padded.
type WeekInfo struct {
	Year int    `json:"year"`
	Week int    `json:"week"`
	Key  string `json:"key"`
}

func NewWeekInfo(year, week int) WeekInfo {
	return WeekInfo{
		Year: year,
		Week: week,
		Key:  fmt.Sprintf("%d-W%d", year, week),
	}
}

// WeekKeyOf returns the ISO week the calendar date of t belongs to.
// The time of day and the location are dropped, the date itself is kept.
func WeekKeyOf(t time.Time) WeekInfo {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	// move to the thursday of the same week, it decides the year
	dayNum := (int(date.Weekday()) + 6) % 7
	thursday := date.AddDate(0, 0, 3-dayNum)
	year := thursday.Year()

	// january 4th is always in week 1
	firstThursday := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	firstOffset := float64((int(firstThursday.Weekday()) + 6) % 7)
	days := thursday.Sub(firstThursday).Hours() / 24
	week := 1 + int(math.Round((days-3+firstOffset)/7))

	return NewWeekInfo(year, week)
}

func IsWeekKey(key string) bool {
	return weekKeyRegex.MatchString(key)
}

// ParseWeekKey splits a week key into its year and week number.
func ParseWeekKey(key string) (year int, week int, err error) {
	m := weekKeyRegex.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeekKey, key)
	}
	if year, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: year: %w", ErrInvalidWeekKey, err)
	}
	if week, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, fmt.Errorf("%w: week: %w", ErrInvalidWeekKey, err)
	}
	return year, week, nil
}

// CompareWeekKeys orders week keys by year*100+week, so 2024-W9 comes
// before 2024-W10. If either key does not parse, the raw strings are compared.
func CompareWeekKeys(a, b string) int {
	ya, wa, errA := ParseWeekKey(a)
	yb, wb, errB := ParseWeekKey(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	na := ya*100 + wa
	nb := yb*100 + wb
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// SortWeekKeys returns a sorted copy, oldest week first.
func SortWeekKeys(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareWeekKeys(sorted[i], sorted[j]) < 0
	})
	return sorted
}
