package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
)

// CandidateDates walks forward from start one day at a time and keeps every
// day whose weekday is in days, stopping once max dates are collected.
func CandidateDates(start string, days []string, max int) ([]string, error) {
	first, set, err := parseSchedule(start, days)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for d := first; len(out) < max; d = d.AddDate(0, 0, 1) {
		if set[dates.Weekday(d)] {
			out = append(out, dates.Format(d))
		}
	}
	return out, nil
}

func parseSchedule(start string, days []string) (time.Time, map[int]bool, error) {
	first, err := dates.Parse(start)
	if err != nil {
		return time.Time{}, nil, apperr.NewValidation(apperr.ErrInvalidSchedule, start,
			apperr.FieldError{Field: "start_date", Error: "expected dd/MM/yyyy"})
	}
	set, err := dates.ParseDays(days)
	if err != nil {
		return time.Time{}, nil, apperr.NewValidation(apperr.ErrInvalidSchedule, strings.Join(days, ","),
			apperr.FieldError{Field: "days", Error: err.Error()})
	}
	if len(set) == 0 {
		return time.Time{}, nil, apperr.NewValidation(apperr.ErrInvalidSchedule, "",
			apperr.FieldError{Field: "days", Error: "no class days selected"})
	}
	return first, set, nil
}

// Warning reports a start date that falls outside the class days.
type Warning struct {
	StartDate string `json:"start_date"`
	Weekday   string `json:"weekday"`
}

func (w *Warning) String() string {
	return fmt.Sprintf("start date %s is a %s, which is not a class day: the first session stays on %s, later sessions follow the class days",
		w.StartDate, w.Weekday, w.StartDate)
}

// StartDayWarning returns a non-fatal warning when start is not on one of days.
func StartDayWarning(start string, days []string) (*Warning, error) {
	first, set, err := parseSchedule(start, days)
	if err != nil {
		return nil, err
	}
	wd := dates.Weekday(first)
	if set[wd] {
		return nil, nil
	}
	return &Warning{StartDate: dates.Format(first), Weekday: dates.WeekdayNames[wd]}, nil
}

// Pad appends Date1, Date2, ... placeholder tokens until list holds max
// entries. Placeholders are for grid layout only and are never stored.
func Pad(list []string, max int) []string {
	out := append([]string(nil), list...)
	for i := 1; len(out) < max; i++ {
		out = append(out, fmt.Sprintf("Date%d", i))
	}
	return out
}

// IsPlaceholder reports whether s is a Pad token rather than a date.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, "Date") && !dates.Valid(s)
}
