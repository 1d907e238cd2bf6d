package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/models"
)

type ClassFilter struct {
	Teacher         string
	IncludeArchived bool
}

func (s *Store) Class(ctx context.Context, classNo string) (models.Class, error) {
	var c models.Class
	err := s.db.WithContext(ctx).Where("class_no = ?", classNo).First(&c).Error
	if err != nil {
		return models.Class{}, notFound(err, apperr.ErrUnknownClass, "fetch class", classNo)
	}
	return c, nil
}

func (s *Store) Classes(ctx context.Context, f ClassFilter) ([]models.Class, error) {
	q := s.db.WithContext(ctx).Order("class_no asc")
	if f.Teacher != "" {
		q = q.Where("teacher = ?", f.Teacher)
	}
	if !f.IncludeArchived {
		q = q.Where("archive <> ?", models.Yes)
	}
	var cs []models.Class
	if err := q.Find(&cs).Error; err != nil {
		return nil, fail(err, "fetch classes", f.Teacher)
	}
	return cs, nil
}

func (s *Store) classExists(ctx context.Context, classNo string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Class{}).Where("class_no = ?", classNo).Count(&n).Error; err != nil {
		return false, fail(err, "fetch class", classNo)
	}
	return n > 0, nil
}

func (s *Store) InsertClass(ctx context.Context, c models.Class) error {
	return s.atomic(ctx, func(tx *Store) error {
		exists, err := tx.classExists(ctx, c.ClassNo)
		if err != nil {
			return err
		}
		if exists {
			return apperr.New(apperr.Conflict, apperr.ErrDuplicateClass, c.ClassNo)
		}
		return fail(tx.db.WithContext(ctx).Create(&c).Error, "insert class", c.ClassNo)
	})
}

// UpdateClass overwrites every column of an existing class.
func (s *Store) UpdateClass(ctx context.Context, c models.Class) error {
	res := s.db.WithContext(ctx).Model(&models.Class{}).
		Where("class_no = ?", c.ClassNo).
		Select("*").
		Updates(&c)
	if res.Error != nil {
		return fail(res.Error, "update class", c.ClassNo)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, apperr.ErrUnknownClass, c.ClassNo)
	}
	return nil
}

func (s *Store) SetArchive(ctx context.Context, classNo string, archived bool) error {
	flag := models.No
	if archived {
		flag = models.Yes
	}
	res := s.db.WithContext(ctx).Model(&models.Class{}).Where("class_no = ?", classNo).Update("archive", flag)
	if res.Error != nil {
		return fail(res.Error, "archive class", classNo)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, apperr.ErrUnknownClass, classNo)
	}
	return nil
}

// DeleteClass hard-deletes a class with its students, dates and attendance.
func (s *Store) DeleteClass(ctx context.Context, classNo string) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx)
		for _, m := range []any{&models.Attendance{}, &models.ClassDate{}, &models.ClassStudent{}, &models.Student{}} {
			if err := g.Where("class_no = ?", classNo).Delete(m).Error; err != nil {
				return fail(err, "delete class", classNo)
			}
		}
		res := g.Where("class_no = ?", classNo).Delete(&models.Class{})
		if res.Error != nil {
			return fail(res.Error, "delete class", classNo)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, apperr.ErrUnknownClass, classNo)
		}
		return nil
	})
}

// SetVisibility writes the same show_* values onto every class.
func (s *Store) SetVisibility(ctx context.Context, cols map[string]string) error {
	if len(cols) == 0 {
		return nil
	}
	updates := make(map[string]any, len(cols))
	for k, v := range cols {
		updates[k] = v
	}
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Class{}).Updates(updates).Error
	return fail(err, "update visibility", "")
}

// Wipe removes every class, student, date, attendance, holiday and user
// setting. Factory defaults are kept.
func (s *Store) Wipe(ctx context.Context) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, m := range []any{
			&models.Attendance{}, &models.ClassDate{}, &models.ClassStudent{}, &models.Student{},
			&models.Class{}, &models.Holiday{}, &models.Default{}, &models.FormSetting{}, &models.TeacherDefault{},
		} {
			if err := g.Delete(m).Error; err != nil {
				return fail(err, "wipe store", "")
			}
		}
		return nil
	})
}
