package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lojf/classbook/internal/models"
	"github.com/lojf/classbook/internal/schedule"
)

// WriteSheetCSV writes the attendance grid of a class, one row per student,
// followed by the roll-up counts. Visibility flags on the class decide which
// optional columns appear.
func WriteSheetCSV(w io.Writer, sh *schedule.Sheet, roll *Rollup) error {
	c := sh.Class
	show := func(flag string) bool { return flag != models.No }

	header := []string{"Student ID", "Name"}
	if show(c.ShowNickname) {
		header = append(header, "Nickname")
	}
	if show(c.ShowCompanyNo) {
		header = append(header, "Company No")
	}
	if show(c.ShowScore) {
		header = append(header, "Score")
	}
	if show(c.ShowPrestest) {
		header = append(header, "Pre-test")
	}
	if show(c.ShowPosttest) {
		header = append(header, "Post-test")
	}
	header = append(header, sh.Dates...)
	if show(c.ShowP) {
		header = append(header, "P")
	}
	if show(c.ShowA) {
		header = append(header, "A")
	}
	if show(c.ShowL) {
		header = append(header, "L")
	}
	if show(c.ShowAttn) {
		header = append(header, "Attn %")
	}

	byID := map[string]StudentRollup{}
	if roll != nil {
		for _, sr := range roll.Students {
			byID[sr.StudentID] = sr
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range sh.Students {
		row := []string{s.StudentID, s.Name}
		if show(c.ShowNickname) {
			row = append(row, s.Nickname)
		}
		if show(c.ShowCompanyNo) {
			row = append(row, s.CompanyNo)
		}
		if show(c.ShowScore) {
			row = append(row, s.Score)
		}
		if show(c.ShowPrestest) {
			row = append(row, s.PreTest)
		}
		if show(c.ShowPosttest) {
			row = append(row, s.PostTest)
		}
		for _, d := range sh.Dates {
			row = append(row, string(sh.Marks[s.StudentID][d]))
		}
		sr := byID[s.StudentID]
		if show(c.ShowP) {
			row = append(row, fmt.Sprint(sr.Present))
		}
		if show(c.ShowA) {
			row = append(row, fmt.Sprint(sr.Absent))
		}
		if show(c.ShowL) {
			row = append(row, fmt.Sprint(sr.Late))
		}
		if show(c.ShowAttn) {
			row = append(row, fmt.Sprintf("%.0f", sr.Percent))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
