package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/schedule"
)

type dateBody struct {
	Date string `json:"date"`
}

// Sheet returns the attendance grid; ?pad=1 adds placeholder columns.
func Sheet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pad, _ := strconv.ParseBool(r.URL.Query().Get("pad"))
		sh, err := d.Engine.Sheet(r.Context(), chi.URLParam(r, "classNo"), pad)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, sh)
	}
}

func DateAdd(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dateBody
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Engine.AddDate(r.Context(), chi.URLParam(r, "classNo"), body.Date); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// DateRemove takes the date from ?date= since dd/MM/yyyy does not fit a path segment.
func DateRemove(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Engine.RemoveDate(r.Context(), chi.URLParam(r, "classNo"), r.URL.Query().Get("date")); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func DateModify(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Old string `json:"old"`
			New string `json:"new"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Engine.ModifyDate(r.Context(), chi.URLParam(r, "classNo"), body.Old, body.New); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func DateNote(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Date string `json:"date"`
			Note string `json:"note"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Engine.SetNote(r.Context(), chi.URLParam(r, "classNo"), body.Date, body.Note); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

// ScheduleReconcile replaces the date list with the posted one.
func ScheduleReconcile(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Dates []string `json:"dates"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if body.Dates == nil {
			body.Dates = []string{}
		}
		if err := d.Engine.Reconcile(r.Context(), chi.URLParam(r, "classNo"), body.Dates); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"dates": body.Dates})
	}
}

func ScheduleGenerate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warn, list, err := d.Engine.GenerateSchedule(r.Context(), chi.URLParam(r, "classNo"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		resp := map[string]any{"dates": list}
		if warn != nil {
			resp["warning"] = warn.String()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Candidates previews generated dates without touching the store.
func Candidates(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StartDate  string   `json:"start_date"`
			Days       []string `json:"days"`
			MaxClasses int      `json:"max_classes"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		list, err := schedule.CandidateDates(body.StartDate, body.Days, body.MaxClasses)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		resp := map[string]any{"dates": list}
		if warn, _ := schedule.StartDayWarning(body.StartDate, body.Days); warn != nil {
			resp["warning"] = warn.String()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func ProtectedDates(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := d.Engine.ProtectedDates(r.Context(), chi.URLParam(r, "classNo"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, ds)
	}
}

func AttendanceSet(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StudentID string        `json:"student_id"`
			Date      string        `json:"date"`
			Status    models.Status `json:"status"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		err := d.Engine.SetAttendance(r.Context(), chi.URLParam(r, "classNo"), body.StudentID, body.Date, body.Status)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}

func AttendanceFill(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Date   string        `json:"date"`
			Status models.Status `json:"status"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Engine.ColumnFill(r.Context(), chi.URLParam(r, "classNo"), body.Date, body.Status); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		noContent(w)
	}
}
