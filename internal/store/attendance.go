package store

import (
	"context"
	"sort"

	"gorm.io/gorm/clause"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/models"
)

var attendanceKey = []clause.Column{{Name: "class_no"}, {Name: "student_id"}, {Name: "date"}}

// ClassDates returns the scheduled list with notes, chronologically sorted.
// Tokens that are not dd/MM/yyyy dates sort last in insertion order.
func (s *Store) ClassDates(ctx context.Context, classNo string) ([]models.ClassDate, error) {
	var rows []models.ClassDate
	if err := s.db.WithContext(ctx).Where("class_no = ?", classNo).Order("rowid asc").Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch dates", classNo)
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Date
	}
	order := make(map[string]int, len(keys))
	sorted := dates.Sorted(keys)
	for i, d := range sorted {
		order[d] = i
	}
	sort.SliceStable(rows, func(i, j int) bool { return order[rows[i].Date] < order[rows[j].Date] })
	return rows, nil
}

// Dates returns the scheduled list of a class.
func (s *Store) Dates(ctx context.Context, classNo string) ([]string, error) {
	rows, err := s.ClassDates(ctx, classNo)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out, nil
}

func (s *Store) InsertDate(ctx context.Context, classNo, date, note string) error {
	row := models.ClassDate{ClassNo: classNo, Date: date, Note: note}
	err := fail(s.db.WithContext(ctx).Create(&row).Error, "insert date", date)
	if apperr.KindOf(err) == apperr.Conflict {
		return apperr.New(apperr.Conflict, apperr.ErrDuplicateDate, date)
	}
	return err
}

func (s *Store) DeleteDate(ctx context.Context, classNo, date string) error {
	res := s.db.WithContext(ctx).Where("class_no = ? AND date = ?", classNo, date).Delete(&models.ClassDate{})
	if res.Error != nil {
		return fail(res.Error, "delete date", date)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, date)
	}
	return nil
}

// SetDateNote updates the free-text note of a scheduled date.
func (s *Store) SetDateNote(ctx context.Context, classNo, date, note string) error {
	res := s.db.WithContext(ctx).Model(&models.ClassDate{}).
		Where("class_no = ? AND date = ?", classNo, date).Update("note", note)
	if res.Error != nil {
		return fail(res.Error, "update date note", date)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, date)
	}
	return nil
}

// RenameDate re-keys a scheduled date and every attendance row on it.
func (s *Store) RenameDate(ctx context.Context, classNo, oldDate, newDate string) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx)
		res := g.Model(&models.ClassDate{}).Where("class_no = ? AND date = ?", classNo, oldDate).Update("date", newDate)
		if res.Error != nil {
			return fail(res.Error, "rename date", oldDate)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownDate, oldDate)
		}
		err := g.Model(&models.Attendance{}).Where("class_no = ? AND date = ?", classNo, oldDate).Update("date", newDate).Error
		return fail(err, "rename attendance date", oldDate)
	})
}

// Attendance returns one student's date -> status map.
func (s *Store) Attendance(ctx context.Context, classNo, studentID string) (map[string]models.Status, error) {
	var rows []models.Attendance
	if err := s.db.WithContext(ctx).Where("class_no = ? AND student_id = ?", classNo, studentID).Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch attendance", studentID)
	}
	out := make(map[string]models.Status, len(rows))
	for _, r := range rows {
		out[r.Date] = r.Status
	}
	return out, nil
}

// ClassAttendance returns every attendance row of a class.
func (s *Store) ClassAttendance(ctx context.Context, classNo string) ([]models.Attendance, error) {
	var rows []models.Attendance
	err := s.db.WithContext(ctx).Where("class_no = ?", classNo).Order("student_id asc, date asc").Find(&rows).Error
	if err != nil {
		return nil, fail(err, "fetch attendance", classNo)
	}
	return rows, nil
}

// UpsertAttendance writes rows, overwriting existing statuses.
func (s *Store) UpsertAttendance(ctx context.Context, rows ...models.Attendance) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   attendanceKey,
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).CreateInBatches(&rows, 200).Error
	return fail(err, "upsert attendance", rows[0].ClassNo)
}

// InsertMissingAttendance writes rows only where no row exists yet.
func (s *Store) InsertMissingAttendance(ctx context.Context, rows ...models.Attendance) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   attendanceKey,
		DoNothing: true,
	}).CreateInBatches(&rows, 200).Error
	return fail(err, "insert attendance", rows[0].ClassNo)
}

// DeleteAttendanceOn removes every student's row on the given dates.
func (s *Store) DeleteAttendanceOn(ctx context.Context, classNo string, on []string) error {
	if len(on) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("class_no = ? AND date IN ?", classNo, on).Delete(&models.Attendance{}).Error
	return fail(err, "delete attendance", classNo)
}
