// Package report projects attendance into read-only views: the teacher's
// monthly pay summary, per-student roll-ups and the CSV sheet.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/store"
)

// Month is one row of the monthly summary.
type Month struct {
	TotalHours  int    `json:"total_hours"`
	TotalTravel int    `json:"total_travel"`
	TotalBonus  int    `json:"total_bonus"`
	TotalPay    int    `json:"total_pay"`
	Notes       string `json:"notes"`
}

// Summary is keyed by YYYY-MM.
type Summary map[string]Month

// Months returns the keys in chronological order.
func (s Summary) Months() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Reporter struct {
	store *store.Store
}

func New(st *store.Store) *Reporter {
	return &Reporter{store: st}
}

// MonthlySummary totals hours, travel, bonus and pay per month over the
// teacher's active classes. A scheduled date counts once it is held, meaning
// at least one student was P, COD or CIA on it. teacher is required.
func (r *Reporter) MonthlySummary(ctx context.Context, teacher string) (Summary, error) {
	if strings.TrimSpace(teacher) == "" {
		return nil, apperr.NewValidation(apperr.ErrInvalidInput, "teacher",
			apperr.FieldError{Field: "teacher", Error: "required"})
	}
	type acc struct {
		Month
		classes map[string]bool
	}
	months := map[string]*acc{}
	get := func(m string) *acc {
		a, ok := months[m]
		if !ok {
			a = &acc{classes: map[string]bool{}}
			months[m] = a
		}
		return a
	}

	err := r.store.Snapshot(ctx, func(tx *store.Store) error {
		classes, err := tx.Classes(ctx, store.ClassFilter{Teacher: teacher})
		if err != nil {
			return err
		}
		for _, c := range classes {
			held, err := heldDates(ctx, tx, c.ClassNo)
			if err != nil {
				return err
			}
			for _, d := range held {
				a := get(d)
				a.TotalHours += c.ClassTime
				a.TotalTravel += c.Travel
				a.TotalPay += c.ClassTime*c.Rate + c.Travel
				a.classes[c.ClassNo] = true
			}
			if c.BonusClaimed != "" && c.Bonus != 0 {
				a := get(c.BonusClaimed)
				a.TotalBonus += c.Bonus
				a.TotalPay += c.Bonus
				a.classes[c.ClassNo] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(Summary, len(months))
	for k, a := range months {
		m := a.Month
		m.Notes = fmt.Sprintf("%d class(es)", len(a.classes))
		out[k] = m
	}
	return out, nil
}

// heldDates returns the month key of every held scheduled date, one entry per date.
func heldDates(ctx context.Context, tx *store.Store, classNo string) ([]string, error) {
	scheduled, err := tx.Dates(ctx, classNo)
	if err != nil {
		return nil, err
	}
	rows, err := tx.ClassAttendance(ctx, classNo)
	if err != nil {
		return nil, err
	}
	held := map[string]bool{}
	for _, r := range rows {
		if r.Status.Held() {
			held[r.Date] = true
		}
	}
	var out []string
	for _, d := range scheduled {
		if !held[d] {
			continue
		}
		m, ok := dates.Month(d)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
