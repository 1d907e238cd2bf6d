package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/schedule"
	"github.com/lojf/classbook/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// seedClass creates a class with one student and the given date -> status marks.
func seedClass(t *testing.T, st *store.Store, c models.Class, marks map[string]models.Status) {
	t.Helper()
	ctx := context.Background()
	if c.MaxClasses == 0 {
		c.MaxClasses = 20
	}
	require.NoError(t, st.InsertClass(ctx, c))
	sid, err := st.NextStudentID(ctx)
	require.NoError(t, err)
	require.NoError(t, st.InsertStudent(ctx, models.Student{StudentID: sid, ClassNo: c.ClassNo, Name: "Ann"}))
	for d, s := range marks {
		require.NoError(t, st.InsertDate(ctx, c.ClassNo, d, ""))
		require.NoError(t, st.UpsertAttendance(ctx, models.Attendance{ClassNo: c.ClassNo, StudentID: sid, Date: d, Status: s}))
	}
}

func TestMonthlySummary_TwoClasses(t *testing.T) {
	st := openTestStore(t)
	base := models.Class{Teacher: "T", ClassTime: 2, Rate: 500, Travel: 200}

	c1 := base
	c1.ClassNo = "C1"
	seedClass(t, st, c1, map[string]models.Status{"05/05/2025": "P", "07/05/2025": "A"})

	c2 := base
	c2.ClassNo = "C2"
	seedClass(t, st, c2, map[string]models.Status{"06/05/2025": "COD", "08/05/2025": "CIA", "13/05/2025": "HOL"})

	got, err := New(st).MonthlySummary(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, Summary{
		"2025-05": {TotalHours: 6, TotalTravel: 600, TotalBonus: 0, TotalPay: 3600, Notes: "2 class(es)"},
	}, got)
}

func TestMonthlySummary_BonusAndFilters(t *testing.T) {
	st := openTestStore(t)
	seedClass(t, st, models.Class{
		ClassNo: "C1", Teacher: "T", ClassTime: 1, Rate: 100, Bonus: 50, BonusClaimed: "2025-06",
	}, map[string]models.Status{"05/05/2025": "P", "02/06/2025": "L"})
	seedClass(t, st, models.Class{
		ClassNo: "C2", Teacher: "T", ClassTime: 1, Rate: 100, Archive: models.Yes,
	}, map[string]models.Status{"05/05/2025": "P"})
	seedClass(t, st, models.Class{
		ClassNo: "C3", Teacher: "Other", ClassTime: 1, Rate: 100,
	}, map[string]models.Status{"05/05/2025": "P"})

	got, err := New(st).MonthlySummary(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-05", "2025-06"}, got.Months())
	assert.Equal(t, Month{TotalHours: 1, TotalPay: 100, Notes: "1 class(es)"}, got["2025-05"])
	assert.Equal(t, Month{TotalBonus: 50, TotalPay: 50, Notes: "1 class(es)"}, got["2025-06"])
}

func TestMonthlySummary_Empty(t *testing.T) {
	st := openTestStore(t)
	got, err := New(st).MonthlySummary(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMonthlySummary_RequiresTeacher(t *testing.T) {
	st := openTestStore(t)
	seedClass(t, st, models.Class{ClassNo: "C1", Teacher: "T", Rate: 100, ClassTime: 2},
		map[string]models.Status{"05/05/2025": "P"})

	for _, teacher := range []string{"", "  "} {
		got, err := New(st).MonthlySummary(context.Background(), teacher)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err), "%q", teacher)
		assert.Nil(t, got)
	}
}

func TestRollup_StudentsInNumericOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: "C1", MaxClasses: 5}))
	for _, id := range []string{"S1000", "S101", "S999"} {
		require.NoError(t, st.InsertStudent(ctx, models.Student{StudentID: id, ClassNo: "C1", Name: id}))
	}

	got, err := New(st).Rollup(ctx, "C1")
	require.NoError(t, err)
	ids := make([]string, 0, len(got.Students))
	for _, s := range got.Students {
		ids = append(ids, s.StudentID)
	}
	assert.Equal(t, []string{"S101", "S999", "S1000"}, ids)
}

func TestRollup(t *testing.T) {
	st := openTestStore(t)
	seedClass(t, st, models.Class{ClassNo: "C1"}, map[string]models.Status{
		"05/05/2025": "P", "07/05/2025": "A", "12/05/2025": "L", "14/05/2025": "HOL", "19/05/2025": "-",
	})

	got, err := New(st).Rollup(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, got.Students, 1)
	sr := got.Students[0]
	assert.Equal(t, 1, sr.Present)
	assert.Equal(t, 1, sr.Absent)
	assert.Equal(t, 1, sr.Late)
	assert.Equal(t, 1, sr.Holiday)
	assert.Equal(t, 1, sr.Unset)
	assert.InDelta(t, 66.67, sr.Percent, 0.01)
	assert.Equal(t, 1, got.Held)
}

func TestWriteSheetCSV(t *testing.T) {
	st := openTestStore(t)
	seedClass(t, st, models.Class{ClassNo: "C1", ShowNickname: models.No, ShowCompanyNo: models.No,
		ShowScore: models.No, ShowPrestest: models.No, ShowPosttest: models.No, ShowA: models.No, ShowL: models.No},
		map[string]models.Status{"05/05/2025": "P", "07/05/2025": "A"})
	ctx := context.Background()

	sh, err := schedule.NewEngine(st, nil, zerolog.Nop()).Sheet(ctx, "C1", false)
	require.NoError(t, err)
	roll, err := New(st).Rollup(ctx, "C1")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSheetCSV(&buf, sh, roll))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Student ID", "Name", "05/05/2025", "07/05/2025", "P", "Attn %"}, records[0])
	assert.Equal(t, []string{"S001", "Ann", "P", "A", "1", "50"}, records[1])
}
