package dates

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Layout is the dd/MM/yyyy format used for every date crossing an interface.
const Layout = "02/01/2006"

// Parse reads a dd/MM/yyyy date as a UTC calendar day. Only the canonical
// text is accepted, so a valid s always equals Format of its result.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if Format(t) != s {
		return time.Time{}, fmt.Errorf("date %q is not in dd/MM/yyyy form", s)
	}
	return t, nil
}

// Valid reports whether s is a canonical dd/MM/yyyy date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Format renders t as dd/MM/yyyy.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Month returns the "2006-01" month key of a dd/MM/yyyy date.
func Month(s string) (string, bool) {
	t, err := Parse(s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01"), true
}

// Sort orders ds chronologically in place. Tokens that do not parse keep
// their relative order and go after every valid date.
func Sort(ds []string) {
	keys := make(map[string]int64, len(ds))
	for _, d := range ds {
		if t, err := Parse(d); err == nil {
			keys[d] = t.Unix()
		}
	}
	sort.SliceStable(ds, func(i, j int) bool {
		ki, okI := keys[ds[i]]
		kj, okJ := keys[ds[j]]
		switch {
		case okI && okJ:
			return ki < kj
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
}

// Sorted returns a sorted copy of ds.
func Sorted(ds []string) []string {
	out := append([]string(nil), ds...)
	Sort(out)
	return out
}

var weekdayIndex = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// WeekdayNames is Monday=0 ... Sunday=6.
var WeekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex maps a weekday name (case-insensitive) to Monday=0 ... Sunday=6.
func WeekdayIndex(name string) (int, bool) {
	i, ok := weekdayIndex[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// Weekday returns the Monday=0 index of t.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDays turns weekday names into a Monday=0 index set.
func ParseDays(names []string) (map[int]bool, error) {
	set := make(map[int]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		i, ok := WeekdayIndex(n)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		set[i] = true
	}
	return set, nil
}

// SplitDays splits a "Monday,Wednesday" column value.
func SplitDays(csv string) []string {
	out := []string{}
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
