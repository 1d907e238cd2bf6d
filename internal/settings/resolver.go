// Package settings layers configuration: a form setting beats a global
// default, which beats the packaged factory value.
package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

type Resolver struct {
	store *store.Store
	bus   *events.Bus
	log   zerolog.Logger
}

func NewResolver(st *store.Store, bus *events.Bus, log zerolog.Logger) *Resolver {
	return &Resolver{store: st, bus: bus, log: log.With().Str("component", "settings").Logger()}
}

// Seed loads the packaged snapshot into factory_defaults when the table is empty.
func (r *Resolver) Seed(ctx context.Context) error {
	rows, err := r.store.FactoryDefaults(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	f, err := LoadFactory()
	if err != nil {
		return err
	}
	if err := r.store.ReplaceFactoryDefaults(ctx, f.Rows()); err != nil {
		return err
	}
	r.log.Info().Int("rows", len(f.Rows())).Msg("factory defaults seeded")
	return nil
}

// Resolve walks form setting, global default, factory form value and factory
// global value, returning the first hit. form may be empty.
func (r *Resolver) Resolve(ctx context.Context, form, key string) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := r.store.Snapshot(ctx, func(tx *store.Store) error {
		var steps []func() (string, bool, error)
		if form != "" {
			steps = append(steps, func() (string, bool, error) { return tx.FormSetting(ctx, form, key) })
		}
		steps = append(steps, func() (string, bool, error) { return tx.Default(ctx, key) })
		if form != "" {
			steps = append(steps, func() (string, bool, error) { return tx.FactoryDefault(ctx, models.ScopeForm, form, key) })
		}
		steps = append(steps, func() (string, bool, error) { return tx.FactoryDefault(ctx, models.ScopeGlobal, "", key) })
		for _, step := range steps {
			v, ok, err := step()
			if err != nil {
				return err
			}
			if ok {
				val, found = v, true
				return nil
			}
		}
		return nil
	})
	return val, found, err
}

// Get resolves key and falls back to fallback when no layer has it.
func (r *Resolver) Get(ctx context.Context, form, key, fallback string) (string, error) {
	v, ok, err := r.Resolve(ctx, form, key)
	if err != nil || !ok {
		return fallback, err
	}
	return v, nil
}

// Bool resolves a Yes/No flag.
func (r *Resolver) Bool(ctx context.Context, form, key string, fallback bool) (bool, error) {
	def := models.No
	if fallback {
		def = models.Yes
	}
	v, err := r.Get(ctx, form, key, def)
	return strings.EqualFold(v, models.Yes), err
}

// Int resolves a numeric setting; unparsable values yield fallback.
func (r *Resolver) Int(ctx context.Context, form, key string, fallback int) (int, error) {
	v, err := r.Get(ctx, form, key, strconv.Itoa(fallback))
	if err != nil {
		return fallback, err
	}
	n, perr := strconv.Atoi(strings.TrimSpace(v))
	if perr != nil {
		return fallback, nil
	}
	return n, nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.NewValidation(apperr.ErrInvalidInput, "", apperr.FieldError{Field: "key", Error: "required"})
	}
	return nil
}

func (r *Resolver) changed(subject string) {
	r.bus.Publish(events.SettingsChanged, "", subject)
}

func (r *Resolver) SetDefault(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.store.UpsertDefault(ctx, key, value); err != nil {
		return err
	}
	r.changed(key)
	return nil
}

// SetDefaults writes several global defaults at once.
func (r *Resolver) SetDefaults(ctx context.Context, kv map[string]string) error {
	for k := range kv {
		if err := checkKey(k); err != nil {
			return err
		}
	}
	if err := r.store.UpsertDefaults(ctx, kv); err != nil {
		return err
	}
	r.changed("defaults")
	return nil
}

func (r *Resolver) SetFormSetting(ctx context.Context, form, key, value string) error {
	if strings.TrimSpace(form) == "" {
		return apperr.NewValidation(apperr.ErrInvalidInput, "", apperr.FieldError{Field: "form_name", Error: "required"})
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.store.UpsertFormSetting(ctx, form, key, value); err != nil {
		return err
	}
	r.changed(form + "." + key)
	return nil
}

func (r *Resolver) SetTeacherDefault(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, ok := classFields(&models.Class{})[key]; !ok {
		return apperr.NewValidation(apperr.ErrInvalidInput, key, apperr.FieldError{Field: "key", Error: "not a class field"})
	}
	if err := r.store.UpsertTeacherDefault(ctx, key, value); err != nil {
		return err
	}
	r.changed("teacher." + key)
	return nil
}

// Reset restores the packaged snapshot: factory rows are reloaded, global
// defaults and form settings are replaced and every class gets the packaged
// visibility flags. Class, student and attendance data is untouched.
func (r *Resolver) Reset(ctx context.Context) error {
	f, err := LoadFactory()
	if err != nil {
		return err
	}
	err = r.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.ReplaceFactoryDefaults(ctx, f.Rows()); err != nil {
			return err
		}
		if err := tx.ClearUserSettings(ctx); err != nil {
			return err
		}
		if err := tx.UpsertDefaults(ctx, f.Global); err != nil {
			return err
		}
		for _, form := range sortedFormNames(f.Forms) {
			for _, k := range sortedKeys(f.Forms[form]) {
				if err := tx.UpsertFormSetting(ctx, form, k, f.Forms[form][k]); err != nil {
					return err
				}
			}
		}
		return tx.SetVisibility(ctx, f.Visibility())
	})
	if err != nil {
		return err
	}
	r.log.Info().Msg("settings reset to factory defaults")
	r.changed("reset")
	return nil
}

func (r *Resolver) Holidays(ctx context.Context) ([]models.Holiday, error) {
	return r.store.Holidays(ctx)
}

// SetHoliday records or renames a holiday. Holidays are informational and
// never change attendance.
func (r *Resolver) SetHoliday(ctx context.Context, h models.Holiday) error {
	if !dates.Valid(h.Date) {
		return apperr.NewValidation(apperr.ErrInvalidDate, h.Date, apperr.FieldError{Field: "date", Error: "expected dd/MM/yyyy"})
	}
	if err := r.store.UpsertHoliday(ctx, h); err != nil {
		return err
	}
	r.changed("holiday." + h.Date)
	return nil
}

func (r *Resolver) DeleteHoliday(ctx context.Context, date string) error {
	if err := r.store.DeleteHoliday(ctx, date); err != nil {
		return err
	}
	r.changed("holiday." + date)
	return nil
}
