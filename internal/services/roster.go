// Package services holds the class and student write paths that sit beside
// the schedule engine: validation, id generation and enrollment upkeep.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/schedule"
	"github.com/lojf/classbook/internal/settings"
	"github.com/lojf/classbook/internal/store"
)

type Roster struct {
	store    *store.Store
	settings *settings.Resolver
	bus      *events.Bus
	log      zerolog.Logger
}

func NewRoster(st *store.Store, res *settings.Resolver, bus *events.Bus, log zerolog.Logger) *Roster {
	return &Roster{store: st, settings: res, bus: bus, log: log.With().Str("component", "roster").Logger()}
}

func (r *Roster) Class(ctx context.Context, classNo string) (models.Class, error) {
	return r.store.Class(ctx, classNo)
}

func (r *Roster) Classes(ctx context.Context, f store.ClassFilter) ([]models.Class, error) {
	return r.store.Classes(ctx, f)
}

func (r *Roster) Students(ctx context.Context, classNo string) ([]models.Student, error) {
	if _, err := r.store.Class(ctx, classNo); err != nil {
		return nil, err
	}
	return r.store.Students(ctx, classNo)
}

// CreateClass fills blank fields from the class template, validates and
// inserts the class. The returned class is what was stored.
func (r *Roster) CreateClass(ctx context.Context, c models.Class) (models.Class, error) {
	c.ClassNo = strings.TrimSpace(c.ClassNo)
	c, err := r.settings.Prefill(ctx, c)
	if err != nil {
		return models.Class{}, err
	}
	if err := check(c, c.ClassNo); err != nil {
		return models.Class{}, err
	}
	if err := r.store.InsertClass(ctx, c); err != nil {
		return models.Class{}, err
	}
	r.log.Info().Str("class_no", c.ClassNo).Msg("class created")
	r.bus.Publish(events.ClassChanged, c.ClassNo, "created")
	return c, nil
}

// UpdateClass overwrites a class. Lowering max classes below the number of
// scheduled dates is refused.
func (r *Roster) UpdateClass(ctx context.Context, c models.Class) error {
	if err := check(c, c.ClassNo); err != nil {
		return err
	}
	err := r.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.Class(ctx, c.ClassNo); err != nil {
			return err
		}
		ds, err := tx.Dates(ctx, c.ClassNo)
		if err != nil {
			return err
		}
		if len(ds) > c.MaxClasses {
			return apperr.New(apperr.CapExceeded, apperr.ErrCapExceeded, c.ClassNo)
		}
		return tx.UpdateClass(ctx, c)
	})
	if err != nil {
		return err
	}
	r.bus.Publish(events.ClassChanged, c.ClassNo, "updated")
	return nil
}

func (r *Roster) SetArchived(ctx context.Context, classNo string, archived bool) error {
	if err := r.store.SetArchive(ctx, classNo, archived); err != nil {
		return err
	}
	subject := "unarchived"
	if archived {
		subject = "archived"
	}
	r.bus.Publish(events.ClassChanged, classNo, subject)
	return nil
}

// ClaimBonus records the YYYY-MM month the class bonus was paid in; an empty
// month clears the claim.
func (r *Roster) ClaimBonus(ctx context.Context, classNo, month string) error {
	if month != "" {
		if err := validate.Var(month, monthTag); err != nil {
			return apperr.NewValidation(apperr.ErrInvalidInput, month,
				apperr.FieldError{Field: "bonus_claimed", Error: "expected YYYY-MM"})
		}
	}
	err := r.store.Transaction(ctx, func(tx *store.Store) error {
		c, err := tx.Class(ctx, classNo)
		if err != nil {
			return err
		}
		c.BonusClaimed = month
		return tx.UpdateClass(ctx, c)
	})
	if err != nil {
		return err
	}
	r.bus.Publish(events.ClassChanged, classNo, "bonus")
	return nil
}

// DeleteClass removes the class with its students, dates and attendance.
func (r *Roster) DeleteClass(ctx context.Context, classNo string) error {
	if err := r.store.DeleteClass(ctx, classNo); err != nil {
		return err
	}
	r.log.Info().Str("class_no", classNo).Msg("class deleted")
	r.bus.Publish(events.ClassDeleted, classNo, "")
	return nil
}

// AddStudent enrolls a new student under the next free S### id and gives it
// an unset mark on every scheduled date, all in one transaction.
func (r *Roster) AddStudent(ctx context.Context, s models.Student) (models.Student, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Active == "" {
		s.Active = models.Yes
	}
	if err := check(s, s.Name); err != nil {
		return models.Student{}, err
	}
	err := r.store.Transaction(ctx, func(tx *store.Store) error {
		id, err := tx.NextStudentID(ctx)
		if err != nil {
			return err
		}
		s.StudentID = id
		if err := tx.InsertStudent(ctx, s); err != nil {
			return err
		}
		return schedule.CoverTx(ctx, tx, s.ClassNo)
	})
	if err != nil {
		return models.Student{}, err
	}
	r.bus.Publish(events.StudentChanged, s.ClassNo, s.StudentID)
	return s, nil
}

// UpdateStudent rewrites a student's profile. The class is never changed.
func (r *Roster) UpdateStudent(ctx context.Context, s models.Student) error {
	current, err := r.store.Student(ctx, s.StudentID)
	if err != nil {
		return err
	}
	s.ClassNo = current.ClassNo
	if s.Active == "" {
		s.Active = current.Active
	}
	if err := check(s, s.StudentID); err != nil {
		return err
	}
	if err := r.store.UpdateStudent(ctx, s); err != nil {
		return err
	}
	r.bus.Publish(events.StudentChanged, s.ClassNo, s.StudentID)
	return nil
}

func (r *Roster) DeleteStudent(ctx context.Context, studentID string) error {
	current, err := r.store.Student(ctx, studentID)
	if err != nil {
		return err
	}
	if err := r.store.DeleteStudent(ctx, studentID); err != nil {
		return err
	}
	r.bus.Publish(events.StudentDeleted, current.ClassNo, studentID)
	return nil
}
