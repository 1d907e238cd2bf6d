package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojf/classbook/internal/handlers"
)

func Router(d *handlers.Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", handlers.Health)
	r.Get("/events", handlers.Events(d))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.SetHeader("Cache-Control", "no-store"))

		// Classes
		api.Get("/classes", handlers.ClassesIndex(d))
		api.Post("/classes", handlers.ClassCreate(d))
		api.Get("/classes/template", handlers.ClassTemplate(d))
		api.Post("/schedule/candidates", handlers.Candidates(d))

		api.Route("/classes/{classNo}", func(cr chi.Router) {
			cr.Get("/", handlers.ClassShow(d))
			cr.Put("/", handlers.ClassUpdate(d))
			cr.Delete("/", handlers.ClassDelete(d))
			cr.Post("/archive", handlers.ClassArchive(d, true))
			cr.Post("/unarchive", handlers.ClassArchive(d, false))
			cr.Post("/bonus", handlers.ClassClaimBonus(d))
			cr.Get("/qr.png", handlers.ClassQR(d))

			// Students
			cr.Get("/students", handlers.StudentsIndex(d))
			cr.Post("/students", handlers.StudentCreate(d))

			// Schedule
			cr.Get("/sheet", handlers.Sheet(d))
			cr.Post("/dates", handlers.DateAdd(d))
			cr.Delete("/dates", handlers.DateRemove(d))
			cr.Post("/dates/modify", handlers.DateModify(d))
			cr.Post("/dates/note", handlers.DateNote(d))
			cr.Put("/schedule", handlers.ScheduleReconcile(d))
			cr.Post("/schedule/generate", handlers.ScheduleGenerate(d))
			cr.Get("/protected", handlers.ProtectedDates(d))

			// Attendance
			cr.Post("/attendance", handlers.AttendanceSet(d))
			cr.Post("/attendance/fill", handlers.AttendanceFill(d))

			// Reports
			cr.Get("/rollup", handlers.Rollup(d))
			cr.Get("/sheet.csv", handlers.SheetCSV(d))
		})

		api.Put("/students/{studentID}", handlers.StudentUpdate(d))
		api.Delete("/students/{studentID}", handlers.StudentDelete(d))

		api.Get("/summary", handlers.Summary(d))

		// Settings
		api.Get("/settings/{key}", handlers.SettingResolve(d))
		api.Put("/settings/defaults", handlers.DefaultsSet(d))
		api.Put("/settings/forms/{form}", handlers.FormSettingsSet(d))
		api.Put("/settings/teacher", handlers.TeacherDefaultsSet(d))
		api.Post("/settings/reset", handlers.SettingsReset(d))

		api.Get("/holidays", handlers.HolidaysIndex(d))
		api.Put("/holidays", handlers.HolidaySet(d))
		api.Delete("/holidays", handlers.HolidayDelete(d))

		// Store
		api.Get("/export", handlers.Export(d))
		api.Post("/import", handlers.Import(d))
		api.Get("/backups", handlers.BackupIndex(d))
		api.Post("/backups", handlers.BackupCreate(d))
	})

	return r
}
