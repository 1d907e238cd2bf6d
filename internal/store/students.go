package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/models"
)

// FormatStudentID renders the n-th student id, e.g. S007.
func FormatStudentID(n int) string {
	return fmt.Sprintf("S%03d", n)
}

// StudentOrdinal parses the numeric suffix of an S### id.
func StudentOrdinal(id string) (int, bool) {
	if !strings.HasPrefix(id, "S") {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// StudentIDLess orders S### ids by number, so S1000 follows S999. Ids without
// a number go last in text order.
func StudentIDLess(a, b string) bool {
	na, okA := StudentOrdinal(a)
	nb, okB := StudentOrdinal(b)
	switch {
	case okA && okB && na != nb:
		return na < nb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// NextStudentID is S followed by the largest existing ordinal plus one.
func (s *Store) NextStudentID(ctx context.Context) (string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Student{}).Pluck("student_id", &ids).Error; err != nil {
		return "", fail(err, "fetch student ids", "")
	}
	max := 0
	for _, id := range ids {
		if n, ok := StudentOrdinal(id); ok && n > max {
			max = n
		}
	}
	return FormatStudentID(max + 1), nil
}

func (s *Store) Student(ctx context.Context, studentID string) (models.Student, error) {
	var st models.Student
	err := s.db.WithContext(ctx).Where("student_id = ?", studentID).First(&st).Error
	if err != nil {
		return models.Student{}, notFound(err, apperr.ErrUnknownStudent, "fetch student", studentID)
	}
	return st, nil
}

// Students returns the students enrolled in a class ordered by id.
func (s *Store) Students(ctx context.Context, classNo string) ([]models.Student, error) {
	var out []models.Student
	err := s.db.WithContext(ctx).
		Joins("JOIN class_students cs ON cs.student_id = students.student_id AND cs.class_no = ?", classNo).
		Order("students.student_id asc").
		Find(&out).Error
	if err != nil {
		return nil, fail(err, "fetch students", classNo)
	}
	sort.SliceStable(out, func(i, j int) bool { return StudentIDLess(out[i].StudentID, out[j].StudentID) })
	return out, nil
}

// InsertStudent creates the student and its enrollment link.
func (s *Store) InsertStudent(ctx context.Context, st models.Student) error {
	return s.atomic(ctx, func(tx *Store) error {
		exists, err := tx.classExists(ctx, st.ClassNo)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownClass, st.ClassNo)
		}
		g := tx.db.WithContext(ctx)
		var n int64
		if err := g.Model(&models.Student{}).Where("student_id = ?", st.StudentID).Count(&n).Error; err != nil {
			return fail(err, "insert student", st.StudentID)
		}
		if n > 0 {
			return apperr.New(apperr.Conflict, apperr.ErrDuplicateStudent, st.StudentID)
		}
		if err := g.Create(&st).Error; err != nil {
			return fail(err, "insert student", st.StudentID)
		}
		link := models.ClassStudent{ClassNo: st.ClassNo, StudentID: st.StudentID}
		return fail(g.Create(&link).Error, "insert enrollment", st.StudentID)
	})
}

var studentColumns = []string{
	"name", "nickname", "company_no", "gender", "score", "pre_test", "post_test", "note", "active",
}

// UpdateStudent rewrites the profile columns; the owning class never changes.
func (s *Store) UpdateStudent(ctx context.Context, st models.Student) error {
	res := s.db.WithContext(ctx).Model(&models.Student{}).
		Where("student_id = ?", st.StudentID).
		Select(studentColumns).
		Updates(&st)
	if res.Error != nil {
		return fail(res.Error, "update student", st.StudentID)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, apperr.ErrUnknownStudent, st.StudentID)
	}
	return nil
}

// DeleteStudent removes a student with its attendance and enrollment.
func (s *Store) DeleteStudent(ctx context.Context, studentID string) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx)
		for _, m := range []any{&models.Attendance{}, &models.ClassStudent{}} {
			if err := g.Where("student_id = ?", studentID).Delete(m).Error; err != nil {
				return fail(err, "delete student", studentID)
			}
		}
		res := g.Where("student_id = ?", studentID).Delete(&models.Student{})
		if res.Error != nil {
			return fail(res.Error, "delete student", studentID)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownStudent, studentID)
		}
		return nil
	})
}
