package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/lojf/classbook/internal/backup"
	"github.com/lojf/classbook/internal/events"
)

// Export downloads the whole store as JSON.
func Export(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := d.Backup.Export(r.Context())
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		var buf bytes.Buffer
		if err := backup.WriteJSON(&buf, doc); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=classbook.json")
		_, _ = w.Write(buf.Bytes())
	}
}

// Import replaces the store with the posted export.
func Import(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := backup.ReadJSON(r.Body)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if err := d.Backup.Import(r.Context(), doc); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"classes": len(doc.Classes)})
	}
}

func BackupCreate(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := d.Backup.Snapshot(r.Context())
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"file": filepath.Base(path)})
	}
}

func BackupIndex(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := d.Backup.List()
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = filepath.Base(f)
		}
		writeJSON(w, http.StatusOK, names)
	}
}

// Events returns the latest committed changes, ?n= of them (default 20).
func Events(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("n"))
		if err != nil || n <= 0 {
			n = 20
		}
		evs := d.Bus.Recent(n)
		if evs == nil {
			evs = []events.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
