package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

// ClassQR renders a PNG that opens the attendance sheet of a class, so a
// tablet on the same network can take the register.
func ClassQR(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classNo := chi.URLParam(r, "classNo")
		// ensure class exists
		if _, err := d.Roster.Class(r.Context(), classNo); err != nil {
			writeError(w, r, d.Log, err)
			return
		}

		link := "http://" + r.Host + "/api/classes/" + url.PathEscape(classNo) + "/sheet?pad=1"
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
