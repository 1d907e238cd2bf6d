package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/classbook/internal/models"
)

// SettingResolve returns the effective value of {key}, optionally for ?form=.
func SettingResolve(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		v, ok, err := d.Settings.Resolve(r.Context(), r.URL.Query().Get("form"), key)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, Problem{Error: "setting not found", Kind: "not_found", Subject: key})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": v})
	}
}

// DefaultsSet upserts global defaults from a key -> value object.
func DefaultsSet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kv map[string]string
		if err := decode(r, &kv); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Settings.SetDefaults(r.Context(), kv); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func FormSettingsSet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := chi.URLParam(r, "form")
		var kv map[string]string
		if err := decode(r, &kv); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		for _, k := range sortedKeys(kv) {
			if err := d.Settings.SetFormSetting(r.Context(), form, k, kv[k]); err != nil {
				writeError(w, r, d.Log, err)
				return
			}
		}
		noContent(w)
	}
}

func TeacherDefaultsSet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kv map[string]string
		if err := decode(r, &kv); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		for _, k := range sortedKeys(kv) {
			if err := d.Settings.SetTeacherDefault(r.Context(), k, kv[k]); err != nil {
				writeError(w, r, d.Log, err)
				return
			}
		}
		noContent(w)
	}
}

func SettingsReset(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Settings.Reset(r.Context()); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func HolidaysIndex(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hs, err := d.Settings.Holidays(r.Context())
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, hs)
	}
}

func HolidaySet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var h models.Holiday
		if err := decode(r, &h); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Settings.SetHoliday(r.Context(), h); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func HolidayDelete(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Settings.DeleteHoliday(r.Context(), r.URL.Query().Get("date")); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}
