package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/models"
)

var keyColumn = []clause.Column{{Name: "key"}}

func lookup(err error) (bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Defaults(ctx context.Context) (map[string]string, error) {
	var rows []models.Default
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch defaults", "")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *Store) Default(ctx context.Context, key string) (string, bool, error) {
	var row models.Default
	ok, err := lookup(s.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error)
	return row.Value, ok, fail(err, "fetch default", key)
}

func (s *Store) UpsertDefault(ctx context.Context, key, value string) error {
	return s.UpsertDefaults(ctx, map[string]string{key: value})
}

// UpsertDefaults writes many global defaults in one transaction.
func (s *Store) UpsertDefaults(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]models.Default, len(keys))
	for i, k := range keys {
		rows[i] = models.Default{Key: k, Value: kv[k]}
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   keyColumn,
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	return fail(err, "upsert defaults", "")
}

// FormSettings returns every setting of one form.
func (s *Store) FormSettings(ctx context.Context, form string) (map[string]string, error) {
	var rows []models.FormSetting
	if err := s.db.WithContext(ctx).Where("form_name = ?", form).Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch form settings", form)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// AllFormSettings returns every form setting ordered by form and key.
func (s *Store) AllFormSettings(ctx context.Context) ([]models.FormSetting, error) {
	var rows []models.FormSetting
	if err := s.db.WithContext(ctx).Order("form_name asc, `key` asc").Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch form settings", "")
	}
	return rows, nil
}

func (s *Store) FormSetting(ctx context.Context, form, key string) (string, bool, error) {
	var row models.FormSetting
	ok, err := lookup(s.db.WithContext(ctx).Where("form_name = ? AND `key` = ?", form, key).First(&row).Error)
	return row.Value, ok, fail(err, "fetch form setting", form+"."+key)
}

func (s *Store) UpsertFormSetting(ctx context.Context, form, key, value string) error {
	row := models.FormSetting{FormName: form, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "form_name"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	return fail(err, "upsert form setting", form+"."+key)
}

func (s *Store) TeacherDefaults(ctx context.Context) (map[string]string, error) {
	var rows []models.TeacherDefault
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch teacher defaults", "")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *Store) UpsertTeacherDefault(ctx context.Context, key, value string) error {
	row := models.TeacherDefault{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   keyColumn,
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	return fail(err, "upsert teacher default", key)
}

// ClearUserSettings removes every global default and form setting.
func (s *Store) ClearUserSettings(ctx context.Context) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := g.Delete(&models.Default{}).Error; err != nil {
			return fail(err, "clear defaults", "")
		}
		return fail(g.Delete(&models.FormSetting{}).Error, "clear form settings", "")
	})
}

func (s *Store) FactoryDefaults(ctx context.Context) ([]models.FactoryDefault, error) {
	var rows []models.FactoryDefault
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch factory defaults", "")
	}
	return rows, nil
}

// FactoryDefault looks up a packaged value; form is ignored outside the form scope.
func (s *Store) FactoryDefault(ctx context.Context, scope, form, key string) (string, bool, error) {
	q := s.db.WithContext(ctx).Where("scope = ? AND `key` = ?", scope, key)
	if scope == models.ScopeForm {
		q = q.Where("form_name = ?", form)
	} else {
		q = q.Where("form_name IS NULL")
	}
	var row models.FactoryDefault
	ok, err := lookup(q.First(&row).Error)
	return row.Value, ok, fail(err, "fetch factory default", scope+"."+key)
}

// ReplaceFactoryDefaults swaps the packaged snapshot for rows.
func (s *Store) ReplaceFactoryDefaults(ctx context.Context, rows []models.FactoryDefault) error {
	return s.atomic(ctx, func(tx *Store) error {
		g := tx.db.WithContext(ctx)
		if err := g.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.FactoryDefault{}).Error; err != nil {
			return fail(err, "clear factory defaults", "")
		}
		if len(rows) == 0 {
			return nil
		}
		return fail(g.Create(&rows).Error, "insert factory defaults", "")
	})
}

func (s *Store) Holidays(ctx context.Context) ([]models.Holiday, error) {
	var rows []models.Holiday
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fail(err, "fetch holidays", "")
	}
	keys := make([]string, len(rows))
	byDate := make(map[string]models.Holiday, len(rows))
	for i, h := range rows {
		keys[i] = h.Date
		byDate[h.Date] = h
	}
	dates.Sort(keys)
	for i, k := range keys {
		rows[i] = byDate[k]
	}
	return rows, nil
}

func (s *Store) UpsertHoliday(ctx context.Context, h models.Holiday) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&h).Error
	return fail(err, "upsert holiday", h.Date)
}

func (s *Store) DeleteHoliday(ctx context.Context, date string) error {
	return fail(s.db.WithContext(ctx).Where("date = ?", date).Delete(&models.Holiday{}).Error, "delete holiday", date)
}
