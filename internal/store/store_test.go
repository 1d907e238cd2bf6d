package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/models"
)

func openTestStore(t *testing.T, path string, busy time.Duration) *Store {
	t.Helper()
	st, err := Open(path, busy, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSecondWriterIsBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classbook.db")
	a := openTestStore(t, path, 5*time.Second)
	b := openTestStore(t, path, 50*time.Millisecond)
	ctx := context.Background()

	var blocked error
	err := a.Transaction(ctx, func(tx *Store) error {
		if err := tx.InsertClass(ctx, models.Class{ClassNo: "A", MaxClasses: 1}); err != nil {
			return err
		}
		blocked = b.InsertClass(ctx, models.Class{ClassNo: "B", MaxClasses: 1})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, apperr.Busy, apperr.KindOf(blocked))
	assert.ErrorIs(t, blocked, apperr.ErrBusy)
	assert.Equal(t, "B", apperr.SubjectOf(blocked))

	_, err = a.Class(ctx, "A")
	assert.NoError(t, err)
	_, err = a.Class(ctx, "B")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// the lock is gone once the first writer commits
	require.NoError(t, b.InsertClass(ctx, models.Class{ClassNo: "B", MaxClasses: 1}))
}

func TestDatesSortPlaceholdersLast(t *testing.T) {
	st := openTestStore(t, filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second)
	ctx := context.Background()
	require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: "C1", MaxClasses: 10}))
	for _, d := range []string{"12/05/2025", "Date2", "05/05/2025", "Date1", "01/06/2024"} {
		require.NoError(t, st.InsertDate(ctx, "C1", d, ""))
	}

	got, err := st.Dates(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"01/06/2024", "05/05/2025", "12/05/2025", "Date2", "Date1"}, got)

	err = st.InsertDate(ctx, "C1", "05/05/2025", "")
	assert.ErrorIs(t, err, apperr.ErrDuplicateDate)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	st := openTestStore(t, filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second)
	ctx := context.Background()
	require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: "C1", MaxClasses: 10}))

	boom := errors.New("boom")
	err := st.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.InsertDate(ctx, "C1", "05/05/2025", ""))
		require.NoError(t, tx.InsertStudent(ctx, models.Student{StudentID: "S001", ClassNo: "C1", Name: "Ann"}))
		require.NoError(t, tx.UpsertDefault(ctx, "theme", "dark"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ds, err := st.Dates(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, ds)
	_, err = st.Student(ctx, "S001")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, ok, err := st.Default(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteClassCascades(t *testing.T) {
	st := openTestStore(t, filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second)
	ctx := context.Background()
	for _, c := range []string{"C1", "C2"} {
		require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: c, MaxClasses: 5}))
		require.NoError(t, st.InsertDate(ctx, c, "05/05/2025", ""))
	}
	require.NoError(t, st.InsertStudent(ctx, models.Student{StudentID: "S001", ClassNo: "C1", Name: "Ann"}))
	require.NoError(t, st.InsertStudent(ctx, models.Student{StudentID: "S002", ClassNo: "C2", Name: "Bo"}))
	require.NoError(t, st.UpsertAttendance(ctx,
		models.Attendance{ClassNo: "C1", StudentID: "S001", Date: "05/05/2025", Status: "P"},
		models.Attendance{ClassNo: "C2", StudentID: "S002", Date: "05/05/2025", Status: "A"},
	))

	require.NoError(t, st.DeleteClass(ctx, "C1"))

	_, err := st.Class(ctx, "C1")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = st.Student(ctx, "S001")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	rows, err := st.ClassAttendance(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	ds, err := st.Dates(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, ds)

	// the other class is untouched
	rows, err = st.ClassAttendance(ctx, "C2")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Equal(t, apperr.NotFound, apperr.KindOf(st.DeleteClass(ctx, "C1")))
}

func TestStudentIDOrdering(t *testing.T) {
	ids := []string{"S1000", "S101", "X9", "S999", "S002"}
	want := []string{"S002", "S101", "S999", "S1000", "X9"}
	for i := range want {
		for j := range want {
			assert.Equal(t, i < j, StudentIDLess(want[i], want[j]), "%s < %s", want[i], want[j])
		}
	}
	assert.Len(t, ids, len(want))

	st := openTestStore(t, filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second)
	ctx := context.Background()
	require.NoError(t, st.InsertClass(ctx, models.Class{ClassNo: "C1", MaxClasses: 5}))
	for _, id := range ids {
		require.NoError(t, st.InsertStudent(ctx, models.Student{StudentID: id, ClassNo: "C1", Name: id}))
	}
	got, err := st.Students(ctx, "C1")
	require.NoError(t, err)
	gotIDs := make([]string, len(got))
	for i, s := range got {
		gotIDs[i] = s.StudentID
	}
	assert.Equal(t, want, gotIDs)

	next, err := st.NextStudentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S1001", next)
}
