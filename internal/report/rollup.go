package report

import (
	"context"

	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/store"
)

// StudentRollup counts one student's marks over the scheduled dates.
type StudentRollup struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Late      int     `json:"late"`
	COD       int     `json:"cod"`
	CIA       int     `json:"cia"`
	Holiday   int     `json:"holiday"`
	Unset     int     `json:"unset"`
	Percent   float64 `json:"percent"`
}

func (s *StudentRollup) add(st models.Status) {
	switch st {
	case models.StatusPresent:
		s.Present++
	case models.StatusAbsent:
		s.Absent++
	case models.StatusLate:
		s.Late++
	case models.StatusCOD:
		s.COD++
	case models.StatusCIA:
		s.CIA++
	case models.StatusHoliday:
		s.Holiday++
	default:
		s.Unset++
	}
}

// attended over every date that was neither a holiday nor left unmarked.
func (s *StudentRollup) percent() float64 {
	attended := s.Present + s.Late + s.COD + s.CIA
	counted := attended + s.Absent
	if counted == 0 {
		return 0
	}
	return float64(attended) * 100 / float64(counted)
}

type Rollup struct {
	ClassNo  string          `json:"class_no"`
	Dates    []string        `json:"dates"`
	Held     int             `json:"held"`
	Students []StudentRollup `json:"students"`
}

// Rollup counts marks per enrolled student across the scheduled dates.
func (r *Reporter) Rollup(ctx context.Context, classNo string) (*Rollup, error) {
	var out *Rollup
	err := r.store.Snapshot(ctx, func(tx *store.Store) error {
		if _, err := tx.Class(ctx, classNo); err != nil {
			return err
		}
		scheduled, err := tx.Dates(ctx, classNo)
		if err != nil {
			return err
		}
		students, err := tx.Students(ctx, classNo)
		if err != nil {
			return err
		}
		rows, err := tx.ClassAttendance(ctx, classNo)
		if err != nil {
			return err
		}
		marks := map[string]map[string]models.Status{}
		heldOn := map[string]bool{}
		for _, a := range rows {
			if marks[a.StudentID] == nil {
				marks[a.StudentID] = map[string]models.Status{}
			}
			marks[a.StudentID][a.Date] = a.Status
			if a.Status.Held() {
				heldOn[a.Date] = true
			}
		}

		out = &Rollup{ClassNo: classNo, Dates: scheduled, Students: make([]StudentRollup, 0, len(students))}
		for _, d := range scheduled {
			if heldOn[d] {
				out.Held++
			}
		}
		for _, s := range students {
			sr := StudentRollup{StudentID: s.StudentID, Name: s.Name}
			for _, d := range scheduled {
				sr.add(marks[s.StudentID][d])
			}
			sr.Percent = sr.percent()
			out.Students = append(out.Students, sr)
		}
		return nil
	})
	return out, err
}
