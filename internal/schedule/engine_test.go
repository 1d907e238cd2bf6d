package schedule

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

type fixture struct {
	ctx    context.Context
	store  *store.Store
	bus    *events.Bus
	engine *Engine
}

func newFixture(t *testing.T, maxClasses int, students ...string) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: openTestStore(t), bus: events.NewBus()}
	f.engine = NewEngine(f.store, f.bus, zerolog.Nop())
	require.NoError(t, f.store.InsertClass(f.ctx, models.Class{
		ClassNo: "C1", Teacher: "T", StartDate: "05/05/2025", Days: "Monday,Wednesday", MaxClasses: maxClasses,
	}))
	for _, id := range students {
		require.NoError(t, f.store.InsertStudent(f.ctx, models.Student{StudentID: id, ClassNo: "C1", Name: id}))
	}
	return f
}

func (f *fixture) dates(t *testing.T) []string {
	t.Helper()
	ds, err := f.store.Dates(f.ctx, "C1")
	require.NoError(t, err)
	return ds
}

func (f *fixture) marks(t *testing.T, studentID string) map[string]models.Status {
	t.Helper()
	m, err := f.store.Attendance(f.ctx, "C1", studentID)
	require.NoError(t, err)
	return m
}

// assertConsistent checks coverage, no orphan rows and the cap.
func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	c, err := f.store.Class(f.ctx, "C1")
	require.NoError(t, err)
	ds := f.dates(t)
	assert.LessOrEqual(t, len(ds), c.MaxClasses)

	students, err := f.store.Students(f.ctx, "C1")
	require.NoError(t, err)
	rows, err := f.store.ClassAttendance(f.ctx, "C1")
	require.NoError(t, err)

	have := map[string]bool{}
	for _, r := range rows {
		have[r.StudentID+"@"+r.Date] = true
		assert.Contains(t, ds, r.Date, "orphan attendance row %+v", r)
	}
	for _, s := range students {
		for _, d := range ds {
			assert.True(t, have[s.StudentID+"@"+d], "missing row for %s on %s", s.StudentID, d)
		}
	}
}

func TestCandidateDates_MondayWednesday(t *testing.T) {
	got, err := CandidateDates("05/05/2025", []string{"Monday", "Wednesday"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"05/05/2025", "07/05/2025", "12/05/2025", "14/05/2025", "19/05/2025"}, got)
}

func TestCandidateDates_AscendingAndOnDays(t *testing.T) {
	got, err := CandidateDates("31/12/2024", []string{"Friday", "Sunday"}, 12)
	require.NoError(t, err)
	require.Len(t, got, 12)
	prev := time.Time{}
	for _, d := range got {
		tm, err := time.Parse("02/01/2006", d)
		require.NoError(t, err)
		assert.True(t, tm.After(prev), "%s not after %s", d, prev)
		assert.Contains(t, []time.Weekday{time.Friday, time.Sunday}, tm.Weekday())
		prev = tm
	}
}

func TestCandidateDates_Errors(t *testing.T) {
	_, err := CandidateDates("2025-05-05", []string{"Monday"}, 3)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrInvalidSchedule)

	_, err = CandidateDates("05/05/2025", nil, 3)
	assert.ErrorIs(t, err, apperr.ErrInvalidSchedule)

	_, err = CandidateDates("05/05/2025", []string{"Funday"}, 3)
	assert.ErrorIs(t, err, apperr.ErrInvalidSchedule)

	got, err := CandidateDates("05/05/2025", []string{"Monday"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStartDayWarning(t *testing.T) {
	w, err := StartDayWarning("06/05/2025", []string{"Monday", "Wednesday"})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Tuesday", w.Weekday)
	assert.Contains(t, w.String(), "06/05/2025")

	w, err = StartDayWarning("05/05/2025", []string{"Monday"})
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestPad(t *testing.T) {
	assert.Equal(t, []string{"05/05/2025", "Date1", "Date2"}, Pad([]string{"05/05/2025"}, 3))
	assert.Equal(t, []string{"05/05/2025"}, Pad([]string{"05/05/2025"}, 1))
	assert.True(t, IsPlaceholder("Date2"))
	assert.False(t, IsPlaceholder("05/05/2025"))
}

func TestAddDate_PreservesAttendance(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusPresent))

	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "07/05/2025"))

	assert.Equal(t, []string{"05/05/2025", "07/05/2025"}, f.dates(t))
	assert.Equal(t, map[string]models.Status{"05/05/2025": "P", "07/05/2025": "-"}, f.marks(t, "S001"))
	f.assertConsistent(t)
}

func TestAddDate_Rejections(t *testing.T) {
	f := newFixture(t, 2, "S001")
	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))

	err := f.engine.AddDate(f.ctx, "C1", "05/05/2025")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrDuplicateDate)

	err = f.engine.AddDate(f.ctx, "C1", "5/5/2025")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "07/05/2025"))
	err = f.engine.AddDate(f.ctx, "C1", "12/05/2025")
	assert.Equal(t, apperr.CapExceeded, apperr.KindOf(err))

	err = f.engine.AddDate(f.ctx, "NOPE", "12/05/2025")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	f.assertConsistent(t)
}

func TestDatesMustBeCanonical(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "07/05/2025"))

	for _, d := range []string{" 07/05/2025", "07/05/2025 ", "7/05/2025", "07/5/2025"} {
		err := f.engine.AddDate(f.ctx, "C1", d)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err), "%q", d)
	}

	err := f.engine.Reconcile(f.ctx, "C1", []string{"12/05/2025", "12/05/2025 "})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	err = f.engine.ModifyDate(f.ctx, "C1", "07/05/2025", " 07/05/2025")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	assert.Equal(t, []string{"07/05/2025"}, f.dates(t))
	f.assertConsistent(t)
}

func TestModifyDate_RejectedWhenProtected(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusPresent))

	err := f.engine.ModifyDate(f.ctx, "C1", "05/05/2025", "06/05/2025")
	assert.Equal(t, apperr.Protected, apperr.KindOf(err))
	assert.Equal(t, "05/05/2025", apperr.SubjectOf(err))

	assert.Equal(t, []string{"05/05/2025", "07/05/2025"}, f.dates(t))
	assert.Equal(t, map[string]models.Status{"05/05/2025": "P", "07/05/2025": "-"}, f.marks(t, "S001"))
}

func TestModifyDate_AllowedWhenCleared(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusPresent))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusUnset))

	require.NoError(t, f.engine.ModifyDate(f.ctx, "C1", "05/05/2025", "06/05/2025"))

	assert.Equal(t, []string{"06/05/2025", "07/05/2025"}, f.dates(t))
	assert.Equal(t, map[string]models.Status{"06/05/2025": "-", "07/05/2025": "-"}, f.marks(t, "S001"))
	f.assertConsistent(t)
}

func TestModifyDate_SucceedsIffAllUnset(t *testing.T) {
	for _, tc := range []struct {
		status models.Status
		ok     bool
	}{
		{models.StatusUnset, true},
		{models.StatusEmpty, true},
		{models.StatusPresent, false},
		{models.StatusAbsent, false},
		{models.StatusLate, false},
		{models.StatusCOD, false},
		{models.StatusCIA, false},
		{models.StatusHoliday, false},
	} {
		t.Run(string(tc.status)+"_", func(t *testing.T) {
			f := newFixture(t, 5, "S001", "S002")
			require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))
			require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S002", "05/05/2025", tc.status))

			err := f.engine.ModifyDate(f.ctx, "C1", "05/05/2025", "06/05/2025")
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, apperr.Protected, apperr.KindOf(err))
			}
			f.assertConsistent(t)
		})
	}
}

func TestModifyDate_Errors(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))

	err := f.engine.ModifyDate(f.ctx, "C1", "01/01/2025", "02/01/2025")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = f.engine.ModifyDate(f.ctx, "C1", "05/05/2025", "07/05/2025")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	err = f.engine.ModifyDate(f.ctx, "C1", "05/05/2025", "bogus")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestRemoveDate(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusAbsent))

	err := f.engine.RemoveDate(f.ctx, "C1", "05/05/2025")
	assert.Equal(t, apperr.Protected, apperr.KindOf(err))

	require.NoError(t, f.engine.RemoveDate(f.ctx, "C1", "07/05/2025"))
	assert.Equal(t, []string{"05/05/2025"}, f.dates(t))

	err = f.engine.RemoveDate(f.ctx, "C1", "07/05/2025")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	f.assertConsistent(t)
}

func TestReconcile_DropsUnsetKeepsMarks(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025", "12/05/2025"}))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusPresent))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "12/05/2025", models.StatusAbsent))

	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "12/05/2025", "14/05/2025"}))

	assert.Equal(t, []string{"05/05/2025", "12/05/2025", "14/05/2025"}, f.dates(t))
	assert.Equal(t, map[string]models.Status{
		"05/05/2025": "P", "12/05/2025": "A", "14/05/2025": "-",
	}, f.marks(t, "S001"))
	f.assertConsistent(t)
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newFixture(t, 5, "S001", "S002")
	list := []string{"05/05/2025", "07/05/2025"}
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", list))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S002", "07/05/2025", models.StatusLate))

	before, err := f.store.ClassAttendance(f.ctx, "C1")
	require.NoError(t, err)
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", list))
	after, err := f.store.ClassAttendance(f.ctx, "C1")
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, list, f.dates(t))
}

func TestReconcile_ProtectedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "07/05/2025", models.StatusCOD))

	err := f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "14/05/2025"})
	assert.Equal(t, apperr.Protected, apperr.KindOf(err))
	assert.Equal(t, "07/05/2025", apperr.SubjectOf(err))
	assert.Equal(t, []string{"05/05/2025", "07/05/2025"}, f.dates(t))
	assert.Equal(t, map[string]models.Status{"05/05/2025": "-", "07/05/2025": "COD"}, f.marks(t, "S001"))
}

func TestReconcile_Rejections(t *testing.T) {
	f := newFixture(t, 2, "S001")

	err := f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "05/05/2025"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	err = f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025", "12/05/2025"})
	assert.Equal(t, apperr.CapExceeded, apperr.KindOf(err))

	err = f.engine.Reconcile(f.ctx, "C1", []string{"2025-05-05"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Empty(t, f.dates(t))
}

func TestGenerateSchedule(t *testing.T) {
	f := newFixture(t, 5, "S001")
	warn, list, err := f.engine.GenerateSchedule(f.ctx, "C1")
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, []string{"05/05/2025", "07/05/2025", "12/05/2025", "14/05/2025", "19/05/2025"}, list)
	assert.Equal(t, list, f.dates(t))
	f.assertConsistent(t)
}

func TestSetAttendance_Rejections(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))

	err := f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", "X")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	err = f.engine.SetAttendance(f.ctx, "C1", "S001", "07/05/2025", models.StatusPresent)
	assert.ErrorIs(t, err, apperr.ErrUnknownDate)

	err = f.engine.SetAttendance(f.ctx, "C1", "S999", "05/05/2025", models.StatusPresent)
	assert.ErrorIs(t, err, apperr.ErrUnknownStudent)
}

func TestColumnFillAndProtectedDates(t *testing.T) {
	f := newFixture(t, 5, "S001", "S002")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))

	require.NoError(t, f.engine.ColumnFill(f.ctx, "C1", "07/05/2025", models.StatusHoliday))
	assert.Equal(t, models.StatusHoliday, f.marks(t, "S001")["07/05/2025"])
	assert.Equal(t, models.StatusHoliday, f.marks(t, "S002")["07/05/2025"])

	got, err := f.engine.ProtectedDates(f.ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"07/05/2025"}, got)
}

func TestCommitPublishesOnlyOnSuccess(t *testing.T) {
	f := newFixture(t, 1, "S001")
	var kinds []events.Kind
	f.bus.Subscribe(func(ev events.Event) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))
	assert.Error(t, f.engine.AddDate(f.ctx, "C1", "07/05/2025"))

	assert.Equal(t, []events.Kind{events.DateAdded}, kinds)
}

func TestSheetPadsAndMarks(t *testing.T) {
	f := newFixture(t, 3, "S001")
	require.NoError(t, f.engine.AddDate(f.ctx, "C1", "05/05/2025"))
	require.NoError(t, f.engine.SetAttendance(f.ctx, "C1", "S001", "05/05/2025", models.StatusPresent))
	require.NoError(t, f.engine.SetNote(f.ctx, "C1", "05/05/2025", "unit 1"))

	sh, err := f.engine.Sheet(f.ctx, "C1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"05/05/2025", "Date1", "Date2"}, sh.Dates)
	assert.Equal(t, models.StatusPresent, sh.Marks["S001"]["05/05/2025"])
	assert.Equal(t, "unit 1", sh.Notes["05/05/2025"])
	assert.Equal(t, []string{"05/05/2025"}, sh.Protected)
}

func TestCoverTxFillsNewStudent(t *testing.T) {
	f := newFixture(t, 5, "S001")
	require.NoError(t, f.engine.Reconcile(f.ctx, "C1", []string{"05/05/2025", "07/05/2025"}))

	err := f.store.Transaction(f.ctx, func(tx *store.Store) error {
		if err := tx.InsertStudent(f.ctx, models.Student{StudentID: "S002", ClassNo: "C1", Name: "B"}); err != nil {
			return err
		}
		return CoverTx(f.ctx, tx, "C1")
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Status{"05/05/2025": "-", "07/05/2025": "-"}, f.marks(t, "S002"))
	f.assertConsistent(t)
}
