package backup

import (
	"context"
	"sort"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/schedule"
	"github.com/lojf/classbook/internal/store"
)

// Export reads the whole store under one snapshot. Student keys are
// renumbered S001, S002, ... per class in student id order.
func (c *Coordinator) Export(ctx context.Context) (*Document, error) {
	doc := &Document{
		Classes:         map[string]ClassDoc{},
		Holidays:        map[string]string{},
		Defaults:        map[string]string{},
		FormSettings:    map[string]map[string]string{},
		TeacherDefaults: map[string]string{},
	}
	err := c.store.Snapshot(ctx, func(tx *store.Store) error {
		classes, err := tx.Classes(ctx, store.ClassFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		for _, cl := range classes {
			cd, err := exportClass(ctx, tx, cl)
			if err != nil {
				return err
			}
			doc.Classes[cl.ClassNo] = cd
		}

		hs, err := tx.Holidays(ctx)
		if err != nil {
			return err
		}
		for _, h := range hs {
			doc.Holidays[h.Date] = h.Name
		}
		if doc.Defaults, err = tx.Defaults(ctx); err != nil {
			return err
		}
		fs, err := tx.AllFormSettings(ctx)
		if err != nil {
			return err
		}
		for _, f := range fs {
			if doc.FormSettings[f.FormName] == nil {
				doc.FormSettings[f.FormName] = map[string]string{}
			}
			doc.FormSettings[f.FormName][f.Key] = f.Value
		}
		doc.TeacherDefaults, err = tx.TeacherDefaults(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func exportClass(ctx context.Context, tx *store.Store, cl models.Class) (ClassDoc, error) {
	cds, err := tx.ClassDates(ctx, cl.ClassNo)
	if err != nil {
		return ClassDoc{}, err
	}
	meta := Metadata{Class: cl, Dates: make([]string, 0, len(cds))}
	for _, cd := range cds {
		meta.Dates = append(meta.Dates, cd.Date)
		if cd.Note != "" {
			if meta.DateNotes == nil {
				meta.DateNotes = map[string]string{}
			}
			meta.DateNotes[cd.Date] = cd.Note
		}
	}

	students, err := tx.Students(ctx, cl.ClassNo)
	if err != nil {
		return ClassDoc{}, err
	}
	rows, err := tx.ClassAttendance(ctx, cl.ClassNo)
	if err != nil {
		return ClassDoc{}, err
	}
	marks := map[string]map[string]models.Status{}
	for _, r := range rows {
		if marks[r.StudentID] == nil {
			marks[r.StudentID] = map[string]models.Status{}
		}
		marks[r.StudentID][r.Date] = r.Status
	}

	out := ClassDoc{Metadata: meta, Students: make(map[string]StudentDoc, len(students))}
	for i, s := range students {
		att := marks[s.StudentID]
		if att == nil {
			att = map[string]models.Status{}
		}
		out.Students[store.FormatStudentID(i+1)] = StudentDoc{
			Name: s.Name, Nickname: s.Nickname, CompanyNo: s.CompanyNo, Gender: s.Gender,
			Score: s.Score, PreTest: s.PreTest, PostTest: s.PostTest, Note: s.Note, Active: s.Active,
			Attendance: att,
		}
	}
	return out, nil
}

// Import replaces the store contents with doc in one transaction. Factory
// defaults are kept. Students get fresh ids in class then key order.
func (c *Coordinator) Import(ctx context.Context, doc *Document) error {
	if err := checkDocument(doc); err != nil {
		return err
	}
	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Wipe(ctx); err != nil {
			return err
		}
		for _, d := range sortedKeys(doc.Holidays) {
			if err := tx.UpsertHoliday(ctx, models.Holiday{Date: d, Name: doc.Holidays[d]}); err != nil {
				return err
			}
		}
		if err := tx.UpsertDefaults(ctx, doc.Defaults); err != nil {
			return err
		}
		for _, form := range sortedKeys(doc.FormSettings) {
			for _, k := range sortedKeys(doc.FormSettings[form]) {
				if err := tx.UpsertFormSetting(ctx, form, k, doc.FormSettings[form][k]); err != nil {
					return err
				}
			}
		}
		for _, k := range sortedKeys(doc.TeacherDefaults) {
			if err := tx.UpsertTeacherDefault(ctx, k, doc.TeacherDefaults[k]); err != nil {
				return err
			}
		}

		next := 1
		for _, classNo := range sortedKeys(doc.Classes) {
			n, err := importClass(ctx, tx, classNo, doc.Classes[classNo], next)
			if err != nil {
				return err
			}
			next += n
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info().Int("classes", len(doc.Classes)).Msg("store imported")
	c.bus.Publish(events.StoreReplaced, "", "import")
	return nil
}

func importClass(ctx context.Context, tx *store.Store, classNo string, cd ClassDoc, next int) (int, error) {
	cl := cd.Metadata.Class
	cl.ClassNo = classNo
	if err := tx.InsertClass(ctx, cl); err != nil {
		return 0, err
	}
	for _, d := range cd.Metadata.Dates {
		if err := tx.InsertDate(ctx, classNo, d, cd.Metadata.DateNotes[d]); err != nil {
			return 0, err
		}
	}
	scheduled := make(map[string]bool, len(cd.Metadata.Dates))
	for _, d := range cd.Metadata.Dates {
		scheduled[d] = true
	}

	keys := sortedKeys(cd.Students)
	sort.SliceStable(keys, func(i, j int) bool { return store.StudentIDLess(keys[i], keys[j]) })
	for i, key := range keys {
		sd := cd.Students[key]
		active := sd.Active
		if active == "" {
			active = models.Yes
		}
		id := store.FormatStudentID(next + i)
		err := tx.InsertStudent(ctx, models.Student{
			StudentID: id, ClassNo: classNo, Name: sd.Name, Nickname: sd.Nickname, CompanyNo: sd.CompanyNo,
			Gender: sd.Gender, Score: sd.Score, PreTest: sd.PreTest, PostTest: sd.PostTest, Note: sd.Note, Active: active,
		})
		if err != nil {
			return 0, err
		}
		rows := make([]models.Attendance, 0, len(sd.Attendance))
		for _, d := range sortedKeys(sd.Attendance) {
			if !scheduled[d] {
				continue
			}
			rows = append(rows, models.Attendance{ClassNo: classNo, StudentID: id, Date: d, Status: sd.Attendance[d]})
		}
		if err := tx.UpsertAttendance(ctx, rows...); err != nil {
			return 0, err
		}
	}
	return len(keys), schedule.CoverTx(ctx, tx, classNo)
}

// checkDocument validates dates, statuses and the cap before anything is wiped.
func checkDocument(doc *Document) error {
	for classNo, cd := range doc.Classes {
		if classNo == "" {
			return apperr.NewValidation(apperr.ErrInvalidInput, "", apperr.FieldError{Field: "class_no", Error: "required"})
		}
		seen := map[string]bool{}
		for _, d := range cd.Metadata.Dates {
			if !dates.Valid(d) {
				return apperr.NewValidation(apperr.ErrInvalidDate, d, apperr.FieldError{Field: classNo + ".dates", Error: "expected dd/MM/yyyy"})
			}
			if seen[d] {
				return apperr.New(apperr.Conflict, apperr.ErrDuplicateDate, d)
			}
			seen[d] = true
		}
		if len(cd.Metadata.Dates) > cd.Metadata.MaxClasses {
			return apperr.New(apperr.CapExceeded, apperr.ErrCapExceeded, classNo)
		}
		for key, sd := range cd.Students {
			for d, s := range sd.Attendance {
				if !s.Valid() {
					return apperr.NewValidation(apperr.ErrInvalidStatus, string(s),
						apperr.FieldError{Field: classNo + "." + key + "." + d, Error: "unknown status"})
				}
			}
		}
	}
	for d := range doc.Holidays {
		if !dates.Valid(d) {
			return apperr.NewValidation(apperr.ErrInvalidDate, d, apperr.FieldError{Field: "holidays", Error: "expected dd/MM/yyyy"})
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
