// Package schedule owns the per-class date list and keeps the attendance
// matrix consistent with it. Every mutation runs in one store transaction and
// is announced on the event bus only after it commits.
package schedule

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

type Engine struct {
	store *store.Store
	bus   *events.Bus
	log   zerolog.Logger
}

func NewEngine(st *store.Store, bus *events.Bus, log zerolog.Logger) *Engine {
	return &Engine{store: st, bus: bus, log: log.With().Str("component", "schedule").Logger()}
}

// commit runs fn in a transaction and publishes kind once it has committed.
func (e *Engine) commit(ctx context.Context, kind events.Kind, classNo, subject string, fn func(tx *store.Store) error) error {
	if err := e.store.Transaction(ctx, fn); err != nil {
		e.log.Debug().Err(err).Str("op", string(kind)).Str("class_no", classNo).Msg("rejected")
		return err
	}
	e.bus.Publish(kind, classNo, subject)
	e.log.Info().Str("op", string(kind)).Str("class_no", classNo).Str("subject", subject).Msg("committed")
	return nil
}

// classState is everything one operation needs to know about a class.
type classState struct {
	class    models.Class
	dates    []string
	inList   map[string]bool
	students []models.Student
	rows     []models.Attendance
}

func load(ctx context.Context, tx *store.Store, classNo string) (*classState, error) {
	c, err := tx.Class(ctx, classNo)
	if err != nil {
		return nil, err
	}
	ds, err := tx.Dates(ctx, classNo)
	if err != nil {
		return nil, err
	}
	students, err := tx.Students(ctx, classNo)
	if err != nil {
		return nil, err
	}
	rows, err := tx.ClassAttendance(ctx, classNo)
	if err != nil {
		return nil, err
	}
	st := &classState{class: c, dates: ds, inList: make(map[string]bool, len(ds)), students: students, rows: rows}
	for _, d := range ds {
		st.inList[d] = true
	}
	return st, nil
}

// protected reports whether any student has a real status on date.
func (st *classState) protected(date string) bool {
	for _, r := range st.rows {
		if r.Date == date && r.Status.Real() {
			return true
		}
	}
	return false
}

func (st *classState) enrolled(studentID string) bool {
	for _, s := range st.students {
		if s.StudentID == studentID {
			return true
		}
	}
	return false
}

// unset builds one "-" row per enrolled student for each date.
func (st *classState) unset(on ...string) []models.Attendance {
	out := make([]models.Attendance, 0, len(st.students)*len(on))
	for _, d := range on {
		for _, s := range st.students {
			out = append(out, models.Attendance{ClassNo: st.class.ClassNo, StudentID: s.StudentID, Date: d, Status: models.StatusUnset})
		}
	}
	return out
}

func checkDate(d string) error {
	if !dates.Valid(d) {
		return apperr.NewValidation(apperr.ErrInvalidDate, d, apperr.FieldError{Field: "date", Error: "expected dd/MM/yyyy"})
	}
	return nil
}

func checkStatus(s models.Status) error {
	if !s.Valid() {
		return apperr.NewValidation(apperr.ErrInvalidStatus, string(s), apperr.FieldError{Field: "status", Error: "unknown status"})
	}
	return nil
}

// AddDate appends a session and gives every enrolled student an unset mark on it.
func (e *Engine) AddDate(ctx context.Context, classNo, date string) error {
	if err := checkDate(date); err != nil {
		return err
	}
	return e.commit(ctx, events.DateAdded, classNo, date, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		if st.inList[date] {
			return apperr.New(apperr.Conflict, apperr.ErrDuplicateDate, date)
		}
		if len(st.dates) >= st.class.MaxClasses {
			return apperr.New(apperr.CapExceeded, apperr.ErrCapExceeded, classNo)
		}
		if err := tx.InsertDate(ctx, classNo, date, ""); err != nil {
			return err
		}
		return tx.InsertMissingAttendance(ctx, st.unset(date)...)
	})
}

// RemoveDate drops a session that nobody has a real mark on.
func (e *Engine) RemoveDate(ctx context.Context, classNo, date string) error {
	return e.commit(ctx, events.DateRemoved, classNo, date, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		if !st.inList[date] {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, date)
		}
		if st.protected(date) {
			return apperr.New(apperr.Protected, apperr.ErrProtectedDate, date)
		}
		if err := tx.DeleteAttendanceOn(ctx, classNo, []string{date}); err != nil {
			return err
		}
		return tx.DeleteDate(ctx, classNo, date)
	})
}

// ModifyDate moves an unprotected session to a new date, carrying its
// attendance rows along.
func (e *Engine) ModifyDate(ctx context.Context, classNo, oldDate, newDate string) error {
	if err := checkDate(newDate); err != nil {
		return err
	}
	return e.commit(ctx, events.DateModified, classNo, oldDate+" -> "+newDate, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		if !st.inList[oldDate] {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, oldDate)
		}
		if st.protected(oldDate) {
			return apperr.New(apperr.Protected, apperr.ErrProtectedDate, oldDate)
		}
		if st.inList[newDate] {
			return apperr.New(apperr.Conflict, apperr.ErrDuplicateDate, newDate)
		}
		// stale rows left on newDate would collide with the renamed ones
		if err := tx.DeleteAttendanceOn(ctx, classNo, []string{newDate}); err != nil {
			return err
		}
		if err := tx.RenameDate(ctx, classNo, oldDate, newDate); err != nil {
			return err
		}
		return tx.InsertMissingAttendance(ctx, st.unset(newDate)...)
	})
}

// Reconcile replaces the scheduled list with list. Sessions that disappear
// lose their attendance rows unless someone has a real mark on them, in which
// case nothing changes. Surviving sessions keep their marks.
func (e *Engine) Reconcile(ctx context.Context, classNo string, list []string) error {
	if err := checkList(list); err != nil {
		return err
	}
	return e.commit(ctx, events.ScheduleChanged, classNo, "", func(tx *store.Store) error {
		return ReconcileTx(ctx, tx, classNo, list)
	})
}

func checkList(list []string) error {
	seen := make(map[string]bool, len(list))
	for _, d := range list {
		if err := checkDate(d); err != nil {
			return err
		}
		if seen[d] {
			return apperr.New(apperr.Conflict, apperr.ErrDuplicateDate, d)
		}
		seen[d] = true
	}
	return nil
}

// ReconcileTx is Reconcile inside the caller's transaction.
func ReconcileTx(ctx context.Context, tx *store.Store, classNo string, list []string) error {
	if err := checkList(list); err != nil {
		return err
	}
	st, err := load(ctx, tx, classNo)
	if err != nil {
		return err
	}
	if len(list) > st.class.MaxClasses {
		return apperr.New(apperr.CapExceeded, apperr.ErrCapExceeded, classNo)
	}

	want := make(map[string]bool, len(list))
	for _, d := range list {
		want[d] = true
	}

	// dates that go away: scheduled ones plus any that only carry rows
	var drop, dropScheduled []string
	seen := map[string]bool{}
	consider := func(d string) {
		if want[d] || seen[d] {
			return
		}
		seen[d] = true
		drop = append(drop, d)
		if st.inList[d] {
			dropScheduled = append(dropScheduled, d)
		}
	}
	for _, d := range st.dates {
		consider(d)
	}
	for _, r := range st.rows {
		consider(r.Date)
	}
	for _, d := range drop {
		if st.protected(d) {
			return apperr.New(apperr.Protected, apperr.ErrProtectedDate, d)
		}
	}

	if err := tx.DeleteAttendanceOn(ctx, classNo, drop); err != nil {
		return err
	}
	for _, d := range dropScheduled {
		if err := tx.DeleteDate(ctx, classNo, d); err != nil {
			return err
		}
	}
	for _, d := range list {
		if st.inList[d] {
			continue
		}
		if err := tx.InsertDate(ctx, classNo, d, ""); err != nil {
			return err
		}
	}
	return tx.InsertMissingAttendance(ctx, st.unset(list...)...)
}

// GenerateSchedule rebuilds the list from the class's start date, days and
// max classes, then reconciles. The warning is non-nil when the start date
// itself is not a class day.
func (e *Engine) GenerateSchedule(ctx context.Context, classNo string) (*Warning, []string, error) {
	var (
		warn *Warning
		list []string
	)
	err := e.commit(ctx, events.ScheduleChanged, classNo, "generated", func(tx *store.Store) error {
		c, err := tx.Class(ctx, classNo)
		if err != nil {
			return err
		}
		if list, err = CandidateDates(c.StartDate, c.DayList(), c.MaxClasses); err != nil {
			return err
		}
		if warn, err = StartDayWarning(c.StartDate, c.DayList()); err != nil {
			return err
		}
		return ReconcileTx(ctx, tx, classNo, list)
	})
	if err != nil {
		return nil, nil, err
	}
	return warn, list, nil
}

// SetAttendance records one student's status on a scheduled date.
func (e *Engine) SetAttendance(ctx context.Context, classNo, studentID, date string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	return e.commit(ctx, events.AttendanceSet, classNo, studentID+"@"+date, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		if !st.inList[date] {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, date)
		}
		if !st.enrolled(studentID) {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownStudent, studentID)
		}
		return tx.UpsertAttendance(ctx, models.Attendance{ClassNo: classNo, StudentID: studentID, Date: date, Status: status})
	})
}

// ColumnFill sets status for every enrolled student on one date.
func (e *Engine) ColumnFill(ctx context.Context, classNo, date string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	return e.commit(ctx, events.ColumnFilled, classNo, date, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		if !st.inList[date] {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, date)
		}
		rows := st.unset(date)
		for i := range rows {
			rows[i].Status = status
		}
		return tx.UpsertAttendance(ctx, rows...)
	})
}

// ProtectedDates lists the scheduled dates carrying at least one real mark.
func (e *Engine) ProtectedDates(ctx context.Context, classNo string) ([]string, error) {
	var out []string
	err := e.store.Snapshot(ctx, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		out = []string{}
		for _, d := range st.dates {
			if st.protected(d) {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, err
}

// CoverTx gives every enrolled student a row on every scheduled date, leaving
// existing rows alone.
func CoverTx(ctx context.Context, tx *store.Store, classNo string) error {
	st, err := load(ctx, tx, classNo)
	if err != nil {
		return err
	}
	return tx.InsertMissingAttendance(ctx, st.unset(st.dates...)...)
}

// Sheet is the attendance grid of one class as shown to the user.
type Sheet struct {
	Class     models.Class                        `json:"class"`
	Dates     []string                            `json:"dates"`
	Notes     map[string]string                   `json:"notes"`
	Students  []models.Student                    `json:"students"`
	Marks     map[string]map[string]models.Status `json:"marks"`
	Protected []string                            `json:"protected"`
}

// Sheet reads the grid under one snapshot. When pad is true the date list is
// extended with placeholders up to max classes.
func (e *Engine) Sheet(ctx context.Context, classNo string, pad bool) (*Sheet, error) {
	var sh *Sheet
	err := e.store.Snapshot(ctx, func(tx *store.Store) error {
		st, err := load(ctx, tx, classNo)
		if err != nil {
			return err
		}
		cds, err := tx.ClassDates(ctx, classNo)
		if err != nil {
			return err
		}
		sh = &Sheet{
			Class:     st.class,
			Dates:     st.dates,
			Notes:     map[string]string{},
			Students:  st.students,
			Marks:     make(map[string]map[string]models.Status, len(st.students)),
			Protected: []string{},
		}
		for _, cd := range cds {
			if strings.TrimSpace(cd.Note) != "" {
				sh.Notes[cd.Date] = cd.Note
			}
		}
		for _, s := range st.students {
			sh.Marks[s.StudentID] = map[string]models.Status{}
		}
		for _, r := range st.rows {
			if m, ok := sh.Marks[r.StudentID]; ok && st.inList[r.Date] {
				m[r.Date] = r.Status
			}
		}
		for _, d := range st.dates {
			if st.protected(d) {
				sh.Protected = append(sh.Protected, d)
			}
		}
		if pad {
			sh.Dates = Pad(sh.Dates, st.class.MaxClasses)
		}
		return nil
	})
	return sh, err
}

// SetNote attaches a note to a scheduled date.
func (e *Engine) SetNote(ctx context.Context, classNo, date, note string) error {
	return e.commit(ctx, events.DateModified, classNo, date, func(tx *store.Store) error {
		return tx.SetDateNote(ctx, classNo, date, note)
	})
}
