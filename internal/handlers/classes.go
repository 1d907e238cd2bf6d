package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClassesIndex lists classes, optionally for one teacher and with archived ones.
func ClassesIndex(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		archived, _ := strconv.ParseBool(q.Get("archived"))
		cs, err := d.Roster.Classes(r.Context(), store.ClassFilter{Teacher: q.Get("teacher"), IncludeArchived: archived})
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

func ClassShow(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Roster.Class(r.Context(), chi.URLParam(r, "classNo"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// ClassTemplate returns the prefill for the new class form.
func ClassTemplate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Settings.ClassTemplate(r.Context())
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func ClassCreate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Class
		if err := decode(r, &c); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		created, err := d.Roster.CreateClass(r.Context(), c)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ClassUpdate applies the JSON body over the stored class, so omitted fields
// keep their values.
func ClassUpdate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classNo := chi.URLParam(r, "classNo")
		c, err := d.Roster.Class(r.Context(), classNo)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := decode(r, &c); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		c.ClassNo = classNo
		if err := d.Roster.UpdateClass(r.Context(), c); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func ClassArchive(d *Deps, archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Roster.SetArchived(r.Context(), chi.URLParam(r, "classNo"), archived); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func ClassClaimBonus(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Month string `json:"month"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Roster.ClaimBonus(r.Context(), chi.URLParam(r, "classNo"), body.Month); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func ClassDelete(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Roster.DeleteClass(r.Context(), chi.URLParam(r, "classNo")); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func StudentsIndex(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := d.Roster.Students(r.Context(), chi.URLParam(r, "classNo"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, ss)
	}
}

func StudentCreate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s models.Student
		if err := decode(r, &s); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		s.ClassNo = chi.URLParam(r, "classNo")
		created, err := d.Roster.AddStudent(r.Context(), s)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func StudentUpdate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s models.Student
		if err := decode(r, &s); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		s.StudentID = chi.URLParam(r, "studentID")
		if err := d.Roster.UpdateStudent(r.Context(), s); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func StudentDelete(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Roster.DeleteStudent(r.Context(), chi.URLParam(r, "studentID")); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}
