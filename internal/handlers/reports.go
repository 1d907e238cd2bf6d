package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/report"
)

// Summary is the monthly pay summary of ?teacher=.
func Summary(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacher := strings.TrimSpace(r.URL.Query().Get("teacher"))
		if teacher == "" {
			writeError(w, r, d.Log, apperr.NewValidation(apperr.ErrInvalidInput, "teacher",
				apperr.FieldError{Field: "teacher", Error: "required"}))
			return
		}
		s, err := d.Reports.MonthlySummary(r.Context(), teacher)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func Rollup(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roll, err := d.Reports.Rollup(r.Context(), chi.URLParam(r, "classNo"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, roll)
	}
}

// SheetCSV downloads the attendance grid of a class.
func SheetCSV(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classNo := chi.URLParam(r, "classNo")
		sh, err := d.Engine.Sheet(r.Context(), classNo, false)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		roll, err := d.Reports.Rollup(r.Context(), classNo)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		var buf bytes.Buffer
		if err := report.WriteSheetCSV(&buf, sh, roll); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-%s.csv", classNo))
		_, _ = w.Write(buf.Bytes())
	}
}
