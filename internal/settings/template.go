package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

// classFields maps a prefillable class column to its destination in c.
// Values are either *string or *int.
func classFields(c *models.Class) map[string]any {
	return map[string]any{
		"company":         &c.Company,
		"consultant":      &c.Consultant,
		"teacher":         &c.Teacher,
		"teacher_no":      &c.TeacherNo,
		"room":            &c.Room,
		"course_book":     &c.CourseBook,
		"time":            &c.Time,
		"notes":           &c.Notes,
		"days":            &c.Days,
		"cod_cia":         &c.CodCia,
		"rate":            &c.Rate,
		"ccp":             &c.CCP,
		"travel":          &c.Travel,
		"bonus":           &c.Bonus,
		"course_hours":    &c.CourseHours,
		"class_time":      &c.ClassTime,
		"max_classes":     &c.MaxClasses,
		"show_nickname":   &c.ShowNickname,
		"show_company_no": &c.ShowCompanyNo,
		"show_score":      &c.ShowScore,
		"show_prestest":   &c.ShowPrestest,
		"show_posttest":   &c.ShowPosttest,
		"show_attn":       &c.ShowAttn,
		"show_p":          &c.ShowP,
		"show_a":          &c.ShowA,
		"show_l":          &c.ShowL,
	}
}

func apply(c *models.Class, kv map[string]string) {
	fields := classFields(c)
	for k, v := range kv {
		switch dst := fields[k].(type) {
		case *string:
			*dst = v
		case *int:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
}

// ClassTemplate is the prefill for a new class: factory class values
// overridden by the teacher's own defaults.
func (r *Resolver) ClassTemplate(ctx context.Context) (models.Class, error) {
	var c models.Class
	err := r.store.Snapshot(ctx, func(tx *store.Store) error {
		rows, err := tx.FactoryDefaults(ctx)
		if err != nil {
			return err
		}
		factory := map[string]string{}
		for _, row := range rows {
			if row.Scope == models.ScopeClass {
				factory[row.Key] = row.Value
			}
		}
		teacher, err := tx.TeacherDefaults(ctx)
		if err != nil {
			return err
		}
		apply(&c, factory)
		apply(&c, teacher)
		return nil
	})
	c.Archive = models.No
	return c, err
}

// Prefill fills the zero-valued fields of c from the class template.
func (r *Resolver) Prefill(ctx context.Context, c models.Class) (models.Class, error) {
	tpl, err := r.ClassTemplate(ctx)
	if err != nil {
		return c, err
	}
	dst, src := classFields(&c), classFields(&tpl)
	for k, v := range dst {
		switch d := v.(type) {
		case *string:
			if *d == "" {
				*d = *src[k].(*string)
			}
		case *int:
			if *d == 0 {
				*d = *src[k].(*int)
			}
		}
	}
	if c.Archive == "" {
		c.Archive = models.No
	}
	return c, nil
}
